// Package blobstore holds the byte storage behind medical report attachments.
// Two backends are provided: a local directory and an S3-compatible bucket.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for keys that could escape the store's namespace.
var ErrInvalidKey = errors.New("invalid blob key")

// Store addresses blobs by opaque keys.
//
// Open returns common.ErrBlobMissing when no blob exists for key.
// Delete of a missing key is not an error.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}
