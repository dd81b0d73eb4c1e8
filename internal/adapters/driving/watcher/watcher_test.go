package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driving"
)

var _ driving.DocumentService = (*recordingDocuments)(nil)

// recordingDocuments records uploads and deletes
type recordingDocuments struct {
	mu       sync.Mutex
	seq      int
	uploads  map[string]string // filename -> content of the last upload
	deleted  []string
	uploaded []string
}

func newRecordingDocuments() *recordingDocuments {
	return &recordingDocuments{uploads: make(map[string]string)}
}

func (r *recordingDocuments) Upload(_ context.Context, filename string, body io.Reader) (*domain.Document, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := fmt.Sprintf("%s#%d", filename, r.seq)
	r.uploads[filename] = string(data)
	r.uploaded = append(r.uploaded, id)
	return &domain.Document{ID: id, Filename: filename}, nil
}

func (r *recordingDocuments) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingDocuments) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (r *recordingDocuments) GetWithChunks(context.Context, string) (*domain.DocumentWithChunks, error) {
	return nil, domain.ErrNotFound
}

func (r *recordingDocuments) List(context.Context, int, int) ([]*domain.Document, error) {
	return nil, nil
}

func (r *recordingDocuments) Count(context.Context) (int, error) { return 0, nil }

func (r *recordingDocuments) Reindex(context.Context, string) error { return nil }

func (r *recordingDocuments) snapshot() (uploaded, deleted []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uploaded...), append([]string(nil), r.deleted...)
}

func startWatcher(t *testing.T, dir string, docs *recordingDocuments) *Watcher {
	t.Helper()
	w, err := New(Config{Dir: dir, Documents: docs, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w
}

func TestNew_Validation(t *testing.T) {
	docs := newRecordingDocuments()

	_, err := New(Config{Documents: docs})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(Config{Dir: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(Config{Dir: filepath.Join(t.TempDir(), "missing"), Documents: docs})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = New(Config{Dir: file, Documents: docs})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSupported(t *testing.T) {
	assert.True(t, supported("/x/bid.pdf"))
	assert.True(t, supported("/x/prices.XLSX"))
	assert.False(t, supported("/x/notes.txt"))
	assert.False(t, supported("/x/.hidden.pdf"))
	assert.False(t, supported("/x/~$draft.docx"))
}

func TestWatcher_UploadsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.pdf"), []byte("v1"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("v1"), 0o600))

	docs := newRecordingDocuments()
	startWatcher(t, dir, docs)

	require.Eventually(t, func() bool {
		uploaded, _ := docs.snapshot()
		return len(uploaded) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_CreateModifyRemove(t *testing.T) {
	dir := t.TempDir()
	docs := newRecordingDocuments()
	w := startWatcher(t, dir, docs)

	// Let the initial scan finish before creating files
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(w.dir, "tender.docx")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	require.Eventually(t, func() bool {
		_, ok := w.Tracked(path)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	firstID, _ := w.Tracked(path)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))
	require.Eventually(t, func() bool {
		id, ok := w.Tracked(path)
		return ok && id != firstID
	}, 2*time.Second, 10*time.Millisecond)

	_, deleted := docs.snapshot()
	assert.Contains(t, deleted, firstID, "new version replaces the old document")
	docs.mu.Lock()
	assert.Equal(t, "v2", docs.uploads["tender.docx"])
	docs.mu.Unlock()

	secondID, _ := w.Tracked(path)
	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		_, deleted := docs.snapshot()
		for _, id := range deleted {
			if id == secondID {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := w.Tracked(path)
	assert.False(t, ok)
}

// gatedDocuments holds the first Upload until release is closed
type gatedDocuments struct {
	*recordingDocuments
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedDocuments) Upload(ctx context.Context, filename string, body io.Reader) (*domain.Document, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
		<-g.release
	}
	return g.recordingDocuments.Upload(ctx, filename, body)
}

func TestWatcher_WriteDuringUpload(t *testing.T) {
	dir := t.TempDir()
	docs := &gatedDocuments{
		recordingDocuments: newRecordingDocuments(),
		started:            make(chan struct{}),
		release:            make(chan struct{}),
	}
	w, err := New(Config{Dir: dir, Documents: docs, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(w.dir, "tender.pdf")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))
	<-docs.started

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.EqualValues(t, 1, docs.calls.Load(), "no second upload while the first is in flight")

	close(docs.release)

	require.Eventually(t, func() bool {
		uploaded, _ := docs.snapshot()
		return len(uploaded) == 2
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	uploaded, deleted := docs.snapshot()
	require.Len(t, uploaded, 2, "one follow-up upload")
	assert.Equal(t, []string{uploaded[0]}, deleted, "first version is replaced")

	id, ok := w.Tracked(path)
	require.True(t, ok)
	assert.Equal(t, uploaded[1], id)
	docs.mu.Lock()
	assert.Equal(t, "v2", docs.uploads["tender.pdf"])
	docs.mu.Unlock()
}

func TestWatcher_RemoveDuringUpload(t *testing.T) {
	dir := t.TempDir()
	docs := &gatedDocuments{
		recordingDocuments: newRecordingDocuments(),
		started:            make(chan struct{}),
		release:            make(chan struct{}),
	}
	w, err := New(Config{Dir: dir, Documents: docs, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(w.dir, "lots.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))
	<-docs.started

	require.NoError(t, os.Remove(path))
	time.Sleep(100 * time.Millisecond)
	close(docs.release)

	require.Eventually(t, func() bool {
		uploaded, deleted := docs.snapshot()
		return len(uploaded) == 1 && len(deleted) == 1 && uploaded[0] == deleted[0]
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := w.Tracked(path)
	assert.False(t, ok)
}
