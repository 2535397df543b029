// Package netx contains small HTTP helpers shared by clients.
package netx

import (
	"io"
	"mime/multipart"
	"sort"
)

// FilePart is a file attached to a multipart body.
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// MultipartBody streams fields and an optional file as multipart/form-data.
// The body is produced on the fly through a pipe, so large files are never
// held in memory. Fields are written in key order before the file.
// The returned reader must be consumed or closed.
func MultipartBody(fields map[string]string, file *FilePart) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeParts(mw, fields, file))
	}()

	return pr, mw.FormDataContentType()
}

func writeParts(mw *multipart.Writer, fields map[string]string, file *FilePart) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := mw.WriteField(k, fields[k]); err != nil {
			return err
		}
	}

	if file != nil {
		w, err := mw.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, file.Content); err != nil {
			return err
		}
	}

	return mw.Close()
}
