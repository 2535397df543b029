// Package attachments manages the medical report bound to a health record:
// it validates uploads, generates storage keys and moves bytes in and out of
// a blobstore.Store.
package attachments

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/filex"
	"github.com/dmitrijs2005/wellkeeper/internal/logging"
	"github.com/dmitrijs2005/wellkeeper/internal/server/blobstore"
)

const (
	// DefaultMaxSize is the largest accepted report, in bytes.
	DefaultMaxSize int64 = 10 << 20

	// DefaultDownloadName is served when a record has no stored original name.
	DefaultDownloadName = "medical-report.pdf"
)

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Ref describes a blob that has been written to the store.
type Ref struct {
	Path         string
	OriginalName string
	Size         int64
	ContentType  string
}

type Manager struct {
	store   blobstore.Store
	maxSize int64
	logger  logging.Logger
	now     func() time.Time
}

// NewManager returns a Manager writing to store. A non-positive maxSize
// selects DefaultMaxSize.
func NewManager(store blobstore.Store, maxSize int64, logger logging.Logger) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Manager{
		store:   store,
		maxSize: maxSize,
		logger:  logger.With("module", "attachments"),
		now:     time.Now,
	}
}

// MaxSize returns the upload limit in bytes.
func (m *Manager) MaxSize() int64 {
	return m.maxSize
}

// Validate checks the extension of filename and, when size is known
// (non-negative), the size limit.
func (m *Manager) Validate(filename string, size int64) error {
	if _, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; !ok {
		return common.ErrInvalidFileType
	}
	if size > m.maxSize {
		return common.ErrFileTooLarge
	}
	return nil
}

// Store validates filename and streams at most MaxSize+1 bytes from r into
// the store under a freshly generated key. An upload that turns out to be
// over the limit is deleted again, so nothing remains when Store fails.
func (m *Manager) Store(ctx context.Context, userID, filename string, r io.Reader) (*Ref, error) {
	if err := m.Validate(filename, -1); err != nil {
		return nil, err
	}

	key, err := m.newKey(userID, filename)
	if err != nil {
		return nil, err
	}

	src := &sizeCounter{r: io.LimitReader(r, m.maxSize+1)}
	if err := m.store.Put(ctx, key, src, -1); err != nil {
		m.Discard(ctx, key, "upload failed")
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if err := m.Validate(filename, src.n); err != nil {
		m.Discard(ctx, key, "upload too large")
		return nil, err
	}

	return &Ref{
		Path:         key,
		OriginalName: filename,
		Size:         src.n,
		ContentType:  ContentType(filename),
	}, nil
}

type sizeCounter struct {
	r io.Reader
	n int64
}

func (c *sizeCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Remove deletes the blob at path. Removing a missing blob succeeds.
func (m *Manager) Remove(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	return m.store.Delete(ctx, path)
}

// Discard is Remove for cleanup paths: a failure is logged, not returned.
// The removal survives cancellation of ctx, so a client that disconnects
// mid-request does not leave the blob behind.
func (m *Manager) Discard(ctx context.Context, path, reason string) {
	ctx = context.WithoutCancel(ctx)
	if err := m.Remove(ctx, path); err != nil {
		m.logger.Error(ctx, "failed to remove attachment, storage leaked", "path", path, "reason", reason, "error", err)
	}
}

// Retrieve opens the blob at path. A missing blob yields common.ErrBlobMissing.
func (m *Manager) Retrieve(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	return m.store.Open(ctx, path)
}

func (m *Manager) newKey(userID, filename string) (string, error) {
	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%d_%s_%s", userID, m.now().UnixMilli(), suffix, filex.SanitizeFileName(filename)), nil
}

// DownloadName returns the name a report is served under.
func DownloadName(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultDownloadName
	}
	return name
}

// ContentType maps an accepted file name to its media type.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}
