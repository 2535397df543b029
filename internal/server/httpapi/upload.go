package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/server/attachments"
	"github.com/dmitrijs2005/wellkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	// formOverhead is the allowance for text fields and part headers on
	// top of the attachment size limit.
	formOverhead = 1 << 20

	maxTextField = 64 << 10
)

// readRecordRequest turns a multipart or JSON body into record input and an
// optional stored attachment. Any stored attachment is discarded if the
// body turns out to be invalid afterwards.
func (h *handlers) readRecordRequest(c *gin.Context, userID string) (*services.RecordInput, *attachments.Ref, error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		return h.readMultipart(c, userID)
	case "application/json":
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, formOverhead)
		in := services.NewRecordInput()
		if err := json.NewDecoder(c.Request.Body).Decode(in); err != nil {
			var verr *common.ValidationError
			if errors.As(err, &verr) {
				return nil, nil, err
			}
			return nil, nil, invalidBody("body must be a JSON object")
		}
		return in, nil, nil
	default:
		return nil, nil, invalidBody("expected multipart/form-data or application/json")
	}
}

func (h *handlers) readMultipart(c *gin.Context, userID string) (*services.RecordInput, *attachments.Ref, error) {
	ctx := c.Request.Context()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.attachments.MaxSize()+formOverhead)

	mr, err := c.Request.MultipartReader()
	if err != nil {
		return nil, nil, invalidBody("malformed multipart body")
	}

	var ref *attachments.Ref
	fail := func(err error) (*services.RecordInput, *attachments.Ref, error) {
		if ref != nil {
			h.attachments.Discard(ctx, ref.Path, "request rejected")
		}
		return nil, nil, err
	}

	in := services.NewRecordInput()
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(multipartError(err))
		}

		name := part.FormName()
		switch {
		case part.FileName() != "" && name == common.MedicalReportField:
			if ref != nil {
				part.Close()
				return fail(fieldError(common.MedicalReportField, "only one file may be uploaded"))
			}
			stored, err := h.attachments.Store(ctx, userID, part.FileName(), part)
			h.metrics.RecordUpload(err == nil)
			part.Close()
			if err != nil {
				return fail(uploadError(err))
			}
			ref = stored
		case part.FileName() != "":
			// files under other names are ignored
			part.Close()
		default:
			value, err := io.ReadAll(io.LimitReader(part, maxTextField+1))
			part.Close()
			if err != nil {
				return fail(multipartError(err))
			}
			if len(value) > maxTextField {
				return fail(fieldError(name, "is too long"))
			}
			in.Set(name, string(value))
		}
	}

	return in, ref, nil
}

// uploadError keeps attachment and storage errors as they are, except that
// hitting the body cap counts as an oversized file.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return common.ErrFileTooLarge
	}
	return err
}

func multipartError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return common.ErrFileTooLarge
	}
	return invalidBody(fmt.Sprintf("malformed multipart body: %v", err))
}

func fieldError(field, reason string) error {
	verr := common.NewValidationError()
	verr.Add(field, reason)
	return verr
}

func invalidBody(reason string) error {
	return fieldError("body", reason)
}

// contentDisposition builds an attachment header carrying the original
// name; non-ASCII names are encoded per RFC 2231.
func contentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return fmt.Sprintf("attachment; filename=%q", attachments.DefaultDownloadName)
}
