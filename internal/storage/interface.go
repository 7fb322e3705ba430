package storage

import (
	"context"
	"io"
)

// ObjectStorage is the blob store reports are archived in.
type ObjectStorage interface {
	// Upload writes an object, replacing any previous version
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download opens an object; missing keys return ErrObjectNotFound
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}
