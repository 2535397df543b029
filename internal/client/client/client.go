package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/wellkeeper/internal/client/models"
)

// Attachment is a medical report to upload.
type Attachment struct {
	FileName string
	Content  io.Reader
}

type Client interface {
	Ping(ctx context.Context) error
	Register(ctx context.Context, r models.Registration) error
	Login(ctx context.Context, email string, password []byte) (*models.Session, error)
	Logout()
	Profile(ctx context.Context) (*models.User, error)
	ListRecords(ctx context.Context) ([]models.Record, error)
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	CreateRecord(ctx context.Context, fields map[string]string, file *Attachment) (*models.Record, error)
	UpdateRecord(ctx context.Context, id string, fields map[string]string, file *Attachment) (*models.Record, error)
	DeleteRecord(ctx context.Context, id string) error
	DownloadReport(ctx context.Context, id string, w io.Writer) (string, error)
}

var _ Client = (*HTTPClient)(nil)
