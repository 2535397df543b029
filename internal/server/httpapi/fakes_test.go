package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/cryptox"
	"github.com/dmitrijs2005/wellkeeper/internal/logging"
	"github.com/dmitrijs2005/wellkeeper/internal/server/attachments"
	"github.com/dmitrijs2005/wellkeeper/internal/server/auth"
	"github.com/dmitrijs2005/wellkeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/wellkeeper/internal/server/config"
	"github.com/dmitrijs2005/wellkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/wellkeeper/internal/server/models"
	"github.com/dmitrijs2005/wellkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeUsers keeps accounts in memory and mints real tokens.
type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*models.User{}}
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		verr := common.NewValidationError()
		verr.Add("email", "is required")
		return nil, verr
	}
	if _, ok := f.users[email]; ok {
		return nil, common.ErrDuplicateEmail
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{ID: uuid.NewString(), FullName: in.FullName, Email: email, PasswordHash: hash}
	f.users[email] = u
	return u, nil
}

func (f *fakeUsers) Login(_ context.Context, in services.LoginInput) (*services.LoginResult, error) {
	f.mu.Lock()
	u, ok := f.users[strings.ToLower(strings.TrimSpace(in.Email))]
	f.mu.Unlock()

	if !ok || !cryptox.CheckPassword(u.PasswordHash, in.Password) {
		return nil, common.ErrInvalidCredentials
	}
	token, err := auth.GenerateToken(u.ID, []byte(testSecret), time.Hour)
	if err != nil {
		return nil, err
	}
	return &services.LoginResult{Token: token, User: u}, nil
}

func (f *fakeUsers) Profile(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// fakeRecords is an in-memory, owner-scoped record store that manages
// attachments the same way the real service does.
type fakeRecords struct {
	mu          sync.Mutex
	records     map[string]*models.HealthRecord
	attachments *attachments.Manager
	createErr   error
}

func newFakeRecords(am *attachments.Manager) *fakeRecords {
	return &fakeRecords{records: map[string]*models.HealthRecord{}, attachments: am}
}

func (f *fakeRecords) owned(userID, id string) (*models.HealthRecord, bool) {
	rec, ok := f.records[id]
	if !ok || rec.UserID != userID {
		return nil, false
	}
	return rec, true
}

func (f *fakeRecords) Create(ctx context.Context, userID string, in *services.RecordInput, ref *attachments.Ref) (*models.HealthRecord, error) {
	rec := &models.HealthRecord{UserID: userID}
	if err := in.Apply(rec, true); err != nil {
		f.discard(ctx, ref)
		return nil, err
	}
	if f.createErr != nil {
		f.discard(ctx, ref)
		return nil, f.createErr
	}
	if ref != nil {
		rec.SetAttachment(ref.Path, ref.OriginalName)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().Add(time.Duration(len(f.records)) * time.Millisecond)
	rec.UpdatedAt = rec.CreatedAt
	f.records[rec.ID] = rec
	cp := *rec
	return &cp, nil
}

func (f *fakeRecords) List(_ context.Context, userID string) ([]*models.HealthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []*models.HealthRecord{}
	for _, r := range f.records {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRecords) Get(_ context.Context, userID, id string) (*models.HealthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.owned(userID, id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRecords) Update(ctx context.Context, userID, id string, in *services.RecordInput, ref *attachments.Ref) (*models.HealthRecord, error) {
	f.mu.Lock()
	rec, ok := f.owned(userID, id)
	if !ok {
		f.mu.Unlock()
		f.discard(ctx, ref)
		return nil, common.ErrorNotFound
	}
	next := *rec
	if err := in.Apply(&next, false); err != nil {
		f.mu.Unlock()
		f.discard(ctx, ref)
		return nil, err
	}
	var oldPath string
	if ref != nil {
		if next.HasAttachment() {
			oldPath = *next.MedicalReportPath
		}
		next.SetAttachment(ref.Path, ref.OriginalName)
	}
	next.UpdatedAt = time.Now()
	f.records[id] = &next
	f.mu.Unlock()

	if oldPath != "" {
		f.attachments.Discard(ctx, oldPath, "attachment replaced")
	}
	cp := next
	return &cp, nil
}

func (f *fakeRecords) Delete(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	rec, ok := f.owned(userID, id)
	if ok {
		delete(f.records, id)
	}
	f.mu.Unlock()

	if !ok {
		return common.ErrorNotFound
	}
	if rec.HasAttachment() {
		f.attachments.Discard(ctx, *rec.MedicalReportPath, "record deleted")
	}
	return nil
}

func (f *fakeRecords) Report(ctx context.Context, userID, id string) (*services.Report, error) {
	rec, err := f.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !rec.HasAttachment() {
		return nil, common.ErrorNotFound
	}
	body, size, err := f.attachments.Retrieve(ctx, *rec.MedicalReportPath)
	if err != nil {
		return nil, err
	}
	name := attachments.DownloadName(*rec.MedicalReportName)
	return &services.Report{Body: body, Size: size, Name: name, ContentType: attachments.ContentType(name)}, nil
}

func (f *fakeRecords) discard(ctx context.Context, ref *attachments.Ref) {
	if ref != nil {
		f.attachments.Discard(ctx, ref.Path, "rejected")
	}
}

type testEnv struct {
	server    *Server
	users     *fakeUsers
	records   *fakeRecords
	uploadDir string
	metrics   *metrics.Metrics
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.LoginBurst = 100
	cfg.LoginRatePerSecond = 100
	for _, m := range mutate {
		m(cfg)
	}

	dir := t.TempDir()
	store, err := blobstore.NewFSStore(dir)
	require.NoError(t, err)

	am := attachments.NewManager(store, attachments.DefaultMaxSize, logging.Discard())
	users := newFakeUsers()
	records := newFakeRecords(am)
	m := metrics.New()

	return &testEnv{
		server:    NewServer(cfg, users, records, am, m, logging.Discard()),
		users:     users,
		records:   records,
		uploadDir: dir,
		metrics:   m,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) blobCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(e.uploadDir)
	require.NoError(t, err)
	return len(entries)
}

// signup registers and logs in a user and returns a bearer token.
func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()

	rec := e.do(t, jsonRequest(t, http.MethodPost, "/api/register", "", map[string]string{
		"fullname": "Test User", "email": email, "phone": "555", "dateOfBirth": "1990-01-01",
		"gender": "Female", "password": "secret123",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, jsonRequest(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": "secret123",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func jsonRequest(t *testing.T, method, path, token string, body any) *http.Request {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type upload struct {
	name    string
	content []byte
}

func multipartRequest(t *testing.T, method, path, token string, fields map[string]string, file *upload) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		fw, err := w.CreateFormFile(common.MedicalReportField, file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func recordFields() map[string]string {
	return map[string]string{
		"fullName":          "Alice Example",
		"age":               "34",
		"gender":            "Female",
		"mobileNumber":      "+1-555-0100",
		"height":            "168.5",
		"weight":            "61.2",
		"bloodType":         "A+",
		"alcoholOrSmoke":    "No",
		"purpose":           "Annual checkup",
		"healthCheckupDate": "2024-01-15",
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
