package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tender-rag/internal/adapters/driven/filestore"
	"github.com/custodia-labs/tender-rag/internal/adapters/driven/memory"
	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven/mocks"
)

type documentFixture struct {
	docs   *memory.DocumentStore
	chunks *memory.ChunkStore
	files  *filestore.Local
	queue  *memory.Queue
	index  *mocks.MockVectorIndex
	svc    *documentService
}

func newDocumentFixture(t *testing.T, maxSize int64) *documentFixture {
	t.Helper()
	files, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	f := &documentFixture{
		docs:   memory.NewDocumentStore(),
		chunks: memory.NewChunkStore(),
		files:  files,
		queue:  memory.NewQueue(),
		index:  mocks.NewMockVectorIndex(),
	}
	f.svc = NewDocumentService(DocumentServiceConfig{
		DocumentStore: f.docs,
		ChunkStore:    f.chunks,
		FileStore:     f.files,
		Index:         f.index,
		TaskQueue:     f.queue,
		MaxFileSize:   maxSize,
	}).(*documentService)
	return f
}

func TestDocumentService_Upload(t *testing.T) {
	f := newDocumentFixture(t, 0)
	ctx := context.Background()

	doc, err := f.svc.Upload(ctx, "Tender Pack.xlsx", strings.NewReader("spreadsheet bytes"))
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Tender Pack.xlsx", doc.Filename)
	assert.Equal(t, domain.FileTypeExcel, doc.FileType)
	assert.Equal(t, domain.DocumentStatusProcessing, doc.Status)
	assert.Equal(t, int64(17), doc.Size)
	assert.Equal(t, doc.ID+"_Tender Pack.xlsx", filepath.Base(doc.Path))

	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, "spreadsheet bytes", string(data))

	task, err := f.queue.DequeueWithTimeout(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, domain.TaskTypeIngestDocument, task.Type)
	assert.Equal(t, doc.ID, task.DocumentID())
}

func TestDocumentService_UploadValidation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		wantErr  error
	}{
		{name: "unsupported extension", filename: "notes.txt", content: []byte("x"), wantErr: domain.ErrUnsupportedFormat},
		{name: "no extension", filename: "README", content: []byte("x"), wantErr: domain.ErrUnsupportedFormat},
		{name: "missing name", filename: "", content: []byte("x"), wantErr: domain.ErrInvalidInput},
		{name: "too large", filename: "big.pdf", content: bytes.Repeat([]byte("a"), 11), wantErr: domain.ErrFileTooLarge},
		{name: "empty", filename: "empty.docx", content: nil, wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocumentFixture(t, 10)

			_, err := f.svc.Upload(context.Background(), tt.filename, bytes.NewReader(tt.content))
			assert.ErrorIs(t, err, tt.wantErr)

			count, _ := f.docs.Count(context.Background())
			assert.Equal(t, 0, count)
			entries, _ := os.ReadDir(f.files.Dir())
			assert.Empty(t, entries, "rejected uploads must not leave files behind")
		})
	}
}

func TestDocumentService_UploadStripsPath(t *testing.T) {
	f := newDocumentFixture(t, 0)
	doc, err := f.svc.Upload(context.Background(), "../../secret/rfp.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "rfp.pdf", doc.Filename)
	assert.Equal(t, f.files.Dir(), filepath.Dir(doc.Path))
}

func TestDocumentService_UploadWithoutQueue(t *testing.T) {
	f := newDocumentFixture(t, 0)
	f.svc.taskQueue = nil

	doc, err := f.svc.Upload(context.Background(), "rfp.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)

	stats, err := f.queue.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.PendingCount)
	assert.Equal(t, domain.DocumentStatusProcessing, doc.Status)
}

func TestDocumentService_GetWithChunks(t *testing.T) {
	f := newDocumentFixture(t, 0)
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, "rfp.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)

	require.NoError(t, f.chunks.SaveBatch(ctx, []*domain.Chunk{
		{DocumentID: doc.ID, ChunkID: "a", Position: 1, Text: "second"},
		{DocumentID: doc.ID, ChunkID: "b", Position: 0, Text: "first"},
	}))

	got, err := f.svc.GetWithChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.Document.ID)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, "first", got.Chunks[0].Text)

	_, err = f.svc.GetWithChunks(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_ListAndCount(t *testing.T) {
	f := newDocumentFixture(t, 0)
	ctx := context.Background()
	for _, name := range []string{"a.pdf", "b.docx", "c.xlsx"} {
		_, err := f.svc.Upload(ctx, name, strings.NewReader("data"))
		require.NoError(t, err)
	}

	docs, err := f.svc.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = f.svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	count, err := f.svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestDocumentService_Delete(t *testing.T) {
	f := newDocumentFixture(t, 0)
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, "rfp.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	require.NoError(t, f.chunks.SaveBatch(ctx, []*domain.Chunk{{DocumentID: doc.ID, ChunkID: "a"}}))

	require.NoError(t, f.svc.Delete(ctx, doc.ID))

	assert.Equal(t, []string{doc.ID}, f.index.Deleted())
	_, err = os.Stat(doc.Path)
	assert.True(t, os.IsNotExist(err))
	n, _ := f.chunks.CountByDocument(ctx, doc.ID)
	assert.Zero(t, n)
	_, err = f.svc.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_DeleteSurvivesIndexFailure(t *testing.T) {
	f := newDocumentFixture(t, 0)
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, "rfp.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	f.index.SetDeleteError(domain.ErrIndexUnavailable)

	require.NoError(t, f.svc.Delete(ctx, doc.ID))
	_, err = f.svc.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Reindex(t *testing.T) {
	f := newDocumentFixture(t, 0)
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, "rfp.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)

	// Drain the upload task and fail the document
	task, _ := f.queue.DequeueWithTimeout(ctx, 1)
	require.NotNil(t, task)
	require.NoError(t, f.queue.Ack(ctx, task.ID))
	stored, _ := f.docs.Get(ctx, doc.ID)
	stored.MarkFailed("boom")
	require.NoError(t, f.docs.Save(ctx, stored))

	require.NoError(t, f.svc.Reindex(ctx, doc.ID))

	stored, _ = f.docs.Get(ctx, doc.ID)
	assert.Equal(t, domain.DocumentStatusProcessing, stored.Status)
	assert.Empty(t, stored.ErrorMessage)

	task, err = f.queue.DequeueWithTimeout(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, doc.ID, task.DocumentID())

	assert.ErrorIs(t, f.svc.Reindex(ctx, "missing"), domain.ErrNotFound)
}

func TestDocumentService_DeleteWhileIngestionHoldsLock(t *testing.T) {
	f := newDocumentFixture(t, 0)
	ctx := context.Background()
	doc, err := f.svc.Upload(ctx, "tender.pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)

	lock := memory.NewLock()
	f.svc.lock = lock
	f.svc.deleteWait = 300 * time.Millisecond

	ok, err := lock.Acquire(ctx, "ingest:"+doc.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	err = f.svc.Delete(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentProcessing)

	_, err = f.docs.Get(ctx, doc.ID)
	assert.NoError(t, err, "document survives a refused delete")
	assert.Empty(t, f.index.Deleted())

	require.NoError(t, lock.Release(ctx, "ingest:"+doc.ID))
	require.NoError(t, f.svc.Delete(ctx, doc.ID))
	assert.False(t, lock.IsHeld("ingest:"+doc.ID))
}
