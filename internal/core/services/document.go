package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

const (
	// DefaultMaxFileSize is the upload limit when none is configured (100 MB)
	DefaultMaxFileSize int64 = 100 << 20

	// DefaultDeleteWait is how long Delete waits for a running ingestion
	DefaultDeleteWait = 30 * time.Second

	defaultListLimit = 50
	maxListLimit     = 1000

	deleteLockTTL      = time.Minute
	deletePollInterval = 250 * time.Millisecond
)

// DocumentServiceConfig holds dependencies for the document registry service.
type DocumentServiceConfig struct {
	DocumentStore driven.DocumentStore
	ChunkStore    driven.ChunkStore
	FileStore     driven.FileStore
	Index         driven.VectorIndex
	TaskQueue     driven.TaskQueue       // Nil when the caller ingests synchronously
	Lock          driven.DistributedLock // Shared with ingestion; optional
	MaxFileSize   int64
	DeleteWait    time.Duration
	Logger        *slog.Logger
}

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	fileStore     driven.FileStore
	index         driven.VectorIndex
	taskQueue     driven.TaskQueue
	lock          driven.DistributedLock
	maxFileSize   int64
	deleteWait    time.Duration
	logger        *slog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(cfg DocumentServiceConfig) driving.DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	deleteWait := cfg.DeleteWait
	if deleteWait <= 0 {
		deleteWait = DefaultDeleteWait
	}

	return &documentService{
		documentStore: cfg.DocumentStore,
		chunkStore:    cfg.ChunkStore,
		fileStore:     cfg.FileStore,
		index:         cfg.Index,
		taskQueue:     cfg.TaskQueue,
		lock:          cfg.Lock,
		maxFileSize:   maxSize,
		deleteWait:    deleteWait,
		logger:        logger,
	}
}

// Upload stores the file as "<id>_<filename>", registers it as processing and
// queues its ingestion.
func (s *documentService) Upload(ctx context.Context, filename string, r io.Reader) (*domain.Document, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: missing filename", domain.ErrInvalidInput)
	}
	fileType, err := domain.ParseFileType(filename)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	path, size, err := s.fileStore.Save(ctx, id+"_"+filename, io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if size > s.maxFileSize {
		_ = s.fileStore.Delete(ctx, path)
		return nil, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, s.maxFileSize)
	}
	if size == 0 {
		_ = s.fileStore.Delete(ctx, path)
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}

	now := time.Now()
	doc := &domain.Document{
		ID:         id,
		Filename:   filename,
		FileType:   fileType,
		Path:       path,
		Size:       size,
		Status:     domain.DocumentStatusProcessing,
		UploadedAt: now,
		UpdatedAt:  now,
	}
	if err := s.documentStore.Save(ctx, doc); err != nil {
		_ = s.fileStore.Delete(ctx, path)
		return nil, fmt.Errorf("register document: %w", err)
	}

	if err := s.enqueue(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document uploaded", "document_id", id, "filename", filename, "size", size)
	return doc, nil
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// GetWithChunks retrieves a document with its chunks
func (s *documentService) GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkStore.GetByDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.DocumentWithChunks{
		Document: doc,
		Chunks:   chunks,
	}, nil
}

// List retrieves documents, newest first
func (s *documentService) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.documentStore.List(ctx, limit, offset)
}

// Count returns the total number of documents
func (s *documentService) Count(ctx context.Context) (int, error) {
	return s.documentStore.Count(ctx)
}

// Delete removes the document everywhere. It holds the document's ingestion
// lock, so a running ingestion finishes before its points are removed.
// Index and file cleanup failures are logged; the registry record is still
// removed.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if _, err := s.documentStore.Get(ctx, id); err != nil {
		return err
	}
	logger := s.logger.With("document_id", id)

	if s.lock != nil {
		if err := s.acquireIngestLock(ctx, id); err != nil {
			return err
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), ingestLockName(id)); err != nil {
				logger.Warn("failed to release ingestion lock", "error", err)
			}
		}()
	}

	// Reload: the ingestion we waited for may have moved the document on
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.DeleteByDocument(ctx, id); err != nil {
			logger.Warn("failed to delete document points", "error", err)
		}
	}
	if err := s.fileStore.Delete(ctx, doc.Path); err != nil {
		logger.Warn("failed to delete stored file", "path", doc.Path, "error", err)
	}
	if err := s.chunkStore.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.documentStore.Delete(ctx, id); err != nil {
		return err
	}

	logger.Info("document deleted", "filename", doc.Filename)
	return nil
}

// Reindex marks the document processing and queues a fresh ingestion.
func (s *documentService) Reindex(ctx context.Context, id string) error {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return err
	}

	doc.MarkProcessing()
	if err := s.documentStore.Save(ctx, doc); err != nil {
		return err
	}
	return s.enqueue(ctx, doc)
}

// acquireIngestLock polls for the document's ingestion lock until deleteWait
// passes, then gives up with ErrDocumentProcessing.
func (s *documentService) acquireIngestLock(ctx context.Context, id string) error {
	deadline := time.Now().Add(s.deleteWait)
	for {
		acquired, err := s.lock.Acquire(ctx, ingestLockName(id), deleteLockTTL)
		if err != nil {
			return fmt.Errorf("acquire ingestion lock: %w", err)
		}
		if acquired {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", domain.ErrDocumentProcessing, id)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(deletePollInterval):
		}
	}
}

func (s *documentService) enqueue(ctx context.Context, doc *domain.Document) error {
	if s.taskQueue == nil {
		return nil
	}
	if err := s.taskQueue.Enqueue(ctx, domain.NewIngestTask(doc.ID)); err != nil {
		doc.MarkFailed("could not queue ingestion: " + err.Error())
		_ = s.documentStore.Save(ctx, doc)
		return fmt.Errorf("%w: enqueue ingestion: %v", domain.ErrServiceUnavailable, err)
	}
	return nil
}
