package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/dbx"
	"github.com/dmitrijs2005/wellkeeper/internal/logging"
	"github.com/dmitrijs2005/wellkeeper/internal/server/attachments"
	"github.com/dmitrijs2005/wellkeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/wellkeeper/internal/server/models"
	recordsrepo "github.com/dmitrijs2005/wellkeeper/internal/server/repositories/records"
	usersrepo "github.com/dmitrijs2005/wellkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.Discard()
}

// --- users ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User

	createErr error
	getErr    error
	created   int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.byEmail[u.Email] = u
	f.created++
	return u, nil
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- records ---

type fakeRecordsRepo struct {
	mu   sync.Mutex
	rows map[string]*models.HealthRecord
	seq  int

	createErr error
	updateErr error
}

func newFakeRecordsRepo() *fakeRecordsRepo {
	return &fakeRecordsRepo{rows: map[string]*models.HealthRecord{}}
}

func (f *fakeRecordsRepo) Create(ctx context.Context, rec *models.HealthRecord) (*models.HealthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Unix(int64(f.seq), 0)
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	f.rows[rec.ID] = &cp
	return rec, nil
}

func (f *fakeRecordsRepo) ListByUser(ctx context.Context, userID string) ([]*models.HealthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.HealthRecord, 0)
	for _, r := range f.rows {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRecordsRepo) GetByID(ctx context.Context, userID, id string) (*models.HealthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRecordsRepo) GetForUpdate(ctx context.Context, userID, id string) (*models.HealthRecord, error) {
	return f.GetByID(ctx, userID, id)
}

func (f *fakeRecordsRepo) Update(ctx context.Context, rec *models.HealthRecord) (*models.HealthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	r, ok := f.rows[rec.ID]
	if !ok || r.UserID != rec.UserID {
		return nil, common.ErrorNotFound
	}
	rec.UpdatedAt = r.UpdatedAt.Add(time.Second)
	cp := *rec
	f.rows[rec.ID] = &cp
	return rec, nil
}

func (f *fakeRecordsRepo) Delete(ctx context.Context, userID, id string) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	delete(f.rows, id)
	return r.MedicalReportPath, nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRecordsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRecordsRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Records(db dbx.DBTX) recordsrepo.Repository   { return m.r }

// --- attachments ---

func newAttachments(t *testing.T) (*attachments.Manager, *blobstore.FSStore) {
	t.Helper()
	store, err := blobstore.NewFSStore(filepath.Join(t.TempDir(), "reports"))
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	return attachments.NewManager(store, 0, discardLogger()), store
}

func storeBlob(t *testing.T, am *attachments.Manager, userID, name, content string) *attachments.Ref {
	t.Helper()
	ref, err := am.Store(context.Background(), userID, name, strings.NewReader(content))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	return ref
}

func blobExists(t *testing.T, am *attachments.Manager, path string) bool {
	t.Helper()
	rc, _, err := am.Retrieve(context.Background(), path)
	if err != nil {
		return false
	}
	rc.Close()
	return true
}

func validRecordInput() *RecordInput {
	in := NewRecordInput()
	in.Set("fullName", "Alice Smith")
	in.Set("age", "30")
	in.Set("gender", "Female")
	in.Set("mobileNumber", "555-0100")
	in.Set("height", "170")
	in.Set("weight", "60.5")
	in.Set("bloodType", "A+")
	in.Set("alcoholOrSmoke", "No")
	in.Set("purpose", "Annual checkup")
	in.Set("healthCheckupDate", "2024-03-01")
	return in
}
