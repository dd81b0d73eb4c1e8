package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FileStore = (*Local)(nil)

// Local stores uploads as plain files in one directory.
type Local struct {
	dir string
}

// NewLocal creates the upload directory if needed.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: abs}, nil
}

// Dir returns the absolute upload directory
func (l *Local) Dir() string {
	return l.dir
}

// Save writes r to <dir>/<name>. A partially written file is removed on error.
func (l *Local) Save(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	path, err := l.resolve(name)
	if err != nil {
		return "", 0, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: r})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return path, n, nil
}

// Open opens a stored file. Missing files return domain.ErrNotFound.
func (l *Local) Open(ctx context.Context, path string) (driven.StoredFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &storedFile{File: f, size: info.Size()}, nil
}

// Delete removes a stored file. Paths outside the upload directory are refused.
func (l *Local) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if !l.contains(path) {
		return fmt.Errorf("%w: %s is outside the upload directory", domain.ErrInvalidInput, path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) resolve(name string) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: bad file name %q", domain.ErrInvalidInput, name)
	}
	return filepath.Join(l.dir, base), nil
}

func (l *Local) contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(l.dir, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

type storedFile struct {
	*os.File
	size int64
}

func (f *storedFile) Size() int64 {
	return f.size
}

// ctxReader stops a copy once the context is cancelled
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
