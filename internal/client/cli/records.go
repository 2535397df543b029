package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/wellkeeper/internal/client/client"
	"github.com/dmitrijs2005/wellkeeper/internal/client/models"
	"github.com/dmitrijs2005/wellkeeper/internal/filex"
)

// handle reports err and ends the session when the server rejected the token.
func (a *App) handle(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		a.client.Logout()
		a.userName = ""
		fmt.Fprintln(a.out, "Session expired, please login again")
		return err
	}
	return a.report(err)
}

// readRecordID prompts for a record id and rejects anything that is not a UUID.
func (a *App) readRecordID(prompt string) (string, error) {
	id, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", a.report(fmt.Errorf("invalid record id %q", id))
	}
	return id, nil
}

func (a *App) List(ctx context.Context) error {
	recs, err := a.client.ListRecords(ctx)
	if err != nil {
		return a.handle(err)
	}

	if len(recs) == 0 {
		fmt.Fprintln(a.out, "No records")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintln(a.out, r.String())
	}
	return nil
}

func (a *App) Show(ctx context.Context) error {
	id, err := a.readRecordID("Enter record id to show")
	if err != nil {
		return err
	}

	r, err := a.client.GetRecord(ctx, id)
	if err != nil {
		return a.handle(err)
	}

	fmt.Fprint(a.out, r.Details())
	return nil
}

// Add prompts for every record field and an optional report file.
func (a *App) Add(ctx context.Context) error {
	fields := make(map[string]string, len(models.RecordFields))
	for _, f := range models.RecordFields {
		v, err := getSimpleText(a.reader, f.Prompt, a.out)
		if err != nil {
			return err
		}
		if v != "" {
			fields[f.Key] = v
		}
	}

	path, err := getSimpleText(a.reader, "Medical report file (optional, PDF/JPG/PNG/DOC/DOCX up to 10MB)", a.out)
	if err != nil {
		return err
	}

	file, closeFn, err := openAttachment(path)
	if err != nil {
		return a.report(err)
	}
	defer closeFn()

	r, err := a.client.CreateRecord(ctx, fields, file)
	if err != nil {
		return a.handle(err)
	}

	fmt.Fprintf(a.out, "Record %s created\n", r.ID)
	return nil
}

// Attach replaces the medical report of an existing record.
func (a *App) Attach(ctx context.Context) error {
	id, err := a.readRecordID("Enter record id")
	if err != nil {
		return err
	}
	path, err := getSimpleText(a.reader, "Medical report file", a.out)
	if err != nil {
		return err
	}
	if path == "" {
		return a.report(errors.New("file path is required"))
	}

	file, closeFn, err := openAttachment(path)
	if err != nil {
		return a.report(err)
	}
	defer closeFn()

	r, err := a.client.UpdateRecord(ctx, id, nil, file)
	if err != nil {
		return a.handle(err)
	}

	fmt.Fprintf(a.out, "Report %s attached to record %s\n", r.MedicalReportName, r.ID)
	return nil
}

// Download saves a record's report into a directory under its original name.
func (a *App) Download(ctx context.Context) error {
	id, err := a.readRecordID("Enter record id")
	if err != nil {
		return err
	}
	dir, err := getSimpleText(a.reader, "Save to directory (empty for current)", a.out)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = "."
	}

	dir, err = filex.EnsureDir(dir)
	if err != nil {
		return a.report(err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return a.report(err)
	}
	defer os.Remove(tmp.Name())

	name, err := a.client.DownloadReport(ctx, id, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return a.handle(err)
	}

	target := filepath.Join(dir, filex.SanitizeFileName(name))
	if err := os.Rename(tmp.Name(), target); err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Saved %s\n", target)
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	id, err := a.readRecordID("Enter record id to delete")
	if err != nil {
		return err
	}

	ok, err := getConfirmation(a.reader, "Delete record "+id+" and its report?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.client.DeleteRecord(ctx, id); err != nil {
		return a.handle(err)
	}

	fmt.Fprintln(a.out, "Deleted")
	return nil
}

// openAttachment opens the file at path for upload. An empty path means
// no attachment.
func openAttachment(path string) (*client.Attachment, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	return &client.Attachment{FileName: filepath.Base(path), Content: f}, func() { f.Close() }, nil
}
