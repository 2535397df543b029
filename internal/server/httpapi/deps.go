// Package httpapi exposes the record API over HTTP using gin.
//
// Every route below /api except register and login passes through the
// bearer token guard before any request body is read.
package httpapi

import (
	"context"
	"io"

	"github.com/dmitrijs2005/wellkeeper/internal/server/attachments"
	"github.com/dmitrijs2005/wellkeeper/internal/server/models"
	"github.com/dmitrijs2005/wellkeeper/internal/server/services"
)

// UserService is the subset of services.UserService used by the handlers.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

// RecordService is the subset of services.RecordService used by the handlers.
type RecordService interface {
	Create(ctx context.Context, userID string, in *services.RecordInput, ref *attachments.Ref) (*models.HealthRecord, error)
	List(ctx context.Context, userID string) ([]*models.HealthRecord, error)
	Get(ctx context.Context, userID, id string) (*models.HealthRecord, error)
	Update(ctx context.Context, userID, id string, in *services.RecordInput, ref *attachments.Ref) (*models.HealthRecord, error)
	Delete(ctx context.Context, userID, id string) error
	Report(ctx context.Context, userID, id string) (*services.Report, error)
}

// AttachmentStore stores uploads streamed out of a multipart body.
type AttachmentStore interface {
	Store(ctx context.Context, userID, filename string, r io.Reader) (*attachments.Ref, error)
	Discard(ctx context.Context, path, reason string)
	MaxSize() int64
}
