package services

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/dbx"
	"github.com/dmitrijs2005/wellkeeper/internal/logging"
	"github.com/dmitrijs2005/wellkeeper/internal/server/attachments"
	"github.com/dmitrijs2005/wellkeeper/internal/server/models"
	"github.com/dmitrijs2005/wellkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Report is an open attachment stream ready to be sent to the owner.
type Report struct {
	Body        io.ReadCloser
	Size        int64
	Name        string
	ContentType string
}

// RecordService implements ownership-scoped health record operations and
// keeps each record's attachment blob in step with the row.
//
// Blob cleanup follows the row: a replaced or deleted blob is removed only
// after the database change has committed, and a freshly stored blob is
// removed if the change that would reference it fails.
type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	attachments *attachments.Manager
	logger      logging.Logger
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager, am *attachments.Manager, logger logging.Logger) *RecordService {
	return &RecordService{
		db:          db,
		repomanager: m,
		attachments: am,
		logger:      logger.With("module", "records"),
	}
}

// Create validates in and inserts a record owned by userID. ref, when not
// nil, is an already stored upload that becomes the record's attachment.
func (s *RecordService) Create(ctx context.Context, userID string, in *RecordInput, ref *attachments.Ref) (*models.HealthRecord, error) {
	rec := &models.HealthRecord{UserID: userID}
	if err := in.Apply(rec, true); err != nil {
		s.discard(ctx, ref, "record rejected")
		return nil, err
	}
	if ref != nil {
		rec.SetAttachment(ref.Path, ref.OriginalName)
	}

	created, err := s.repomanager.Records(s.db).Create(ctx, rec)
	if err != nil {
		s.discard(ctx, ref, "record insert failed")
		return nil, err
	}

	s.logger.Info(ctx, "record created", "user_id", userID, "record_id", created.ID, "attachment", ref != nil)
	return created, nil
}

// List returns the records owned by userID, newest first.
func (s *RecordService) List(ctx context.Context, userID string) ([]*models.HealthRecord, error) {
	return s.repomanager.Records(s.db).ListByUser(ctx, userID)
}

// Get returns one record owned by userID. Missing, foreign and malformed ids
// all yield common.ErrorNotFound.
func (s *RecordService) Get(ctx context.Context, userID, id string) (*models.HealthRecord, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Records(s.db).GetByID(ctx, userID, id)
}

// Update overwrites the supplied fields of a record. With ref the record's
// attachment is replaced; the previous blob is removed once the update has
// committed. Without ref the current attachment is kept.
func (s *RecordService) Update(ctx context.Context, userID, id string, in *RecordInput, ref *attachments.Ref) (*models.HealthRecord, error) {
	if !validID(id) {
		s.discard(ctx, ref, "record not found")
		return nil, common.ErrorNotFound
	}

	var (
		updated *models.HealthRecord
		oldPath string
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)

		rec, err := repo.GetForUpdate(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := in.Apply(rec, false); err != nil {
			return err
		}
		if ref != nil {
			if rec.HasAttachment() {
				oldPath = *rec.MedicalReportPath
			}
			rec.SetAttachment(ref.Path, ref.OriginalName)
		}

		updated, err = repo.Update(ctx, rec)
		return err
	})
	if err != nil {
		s.discard(ctx, ref, "record update failed")
		return nil, err
	}

	if oldPath != "" && oldPath != ref.Path {
		s.attachments.Discard(ctx, oldPath, "attachment replaced")
	}

	s.logger.Info(ctx, "record updated", "user_id", userID, "record_id", id, "attachment_replaced", ref != nil)
	return updated, nil
}

// Delete removes a record and then its attachment blob. A blob that cannot
// be removed is logged and does not fail the call.
func (s *RecordService) Delete(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}

	path, err := s.repomanager.Records(s.db).Delete(ctx, userID, id)
	if err != nil {
		return err
	}

	if path != nil && *path != "" {
		s.attachments.Discard(ctx, *path, "record deleted")
	}

	s.logger.Info(ctx, "record deleted", "user_id", userID, "record_id", id)
	return nil
}

// Report opens the attachment of a record owned by userID. A record without
// an attachment yields common.ErrorNotFound; a referenced blob that is gone
// yields common.ErrBlobMissing.
func (s *RecordService) Report(ctx context.Context, userID, id string) (*Report, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !rec.HasAttachment() {
		return nil, common.ErrorNotFound
	}

	body, size, err := s.attachments.Retrieve(ctx, *rec.MedicalReportPath)
	if err != nil {
		if errors.Is(err, common.ErrBlobMissing) {
			s.logger.Warn(ctx, "attachment referenced by record is missing", "record_id", id, "path", *rec.MedicalReportPath)
		}
		return nil, err
	}

	var name string
	if rec.MedicalReportName != nil {
		name = *rec.MedicalReportName
	}
	name = attachments.DownloadName(name)

	return &Report{
		Body:        body,
		Size:        size,
		Name:        name,
		ContentType: attachments.ContentType(name),
	}, nil
}

func (s *RecordService) discard(ctx context.Context, ref *attachments.Ref, reason string) {
	if ref == nil {
		return
	}
	s.attachments.Discard(ctx, ref.Path, reason)
}

// validID accepts only the canonical 36-character uuid form the database emits.
func validID(id string) bool {
	return len(id) == 36 && uuid.Validate(id) == nil
}
