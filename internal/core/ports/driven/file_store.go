package driven

import (
	"context"
	"io"
)

// FileStore persists uploaded document bytes
type FileStore interface {
	// Save writes r under name and returns the stored path and size
	Save(ctx context.Context, name string, r io.Reader) (path string, size int64, err error)

	// Open opens a stored file for random access
	Open(ctx context.Context, path string) (StoredFile, error)

	// Delete removes a stored file. Missing files are not an error.
	Delete(ctx context.Context, path string) error
}

// StoredFile is an open upload
type StoredFile interface {
	io.ReaderAt
	io.Closer
	Size() int64
}
