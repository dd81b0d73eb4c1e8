package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driving"
)

// Ensure IngestionOrchestrator implements IngestionService
var _ driving.IngestionService = (*IngestionOrchestrator)(nil)

const (
	// DefaultEmbedBatchSize is how many chunk texts go into one embedding call
	DefaultEmbedBatchSize = 32

	// ingestLockTTL bounds how long a crashed worker can block re-ingestion
	ingestLockTTL = 15 * time.Minute
)

var (
	// ErrIngestionInProgress is returned when another worker holds the document's lock
	ErrIngestionInProgress = errors.New("ingestion already in progress")

	// ErrDocumentDeleted is returned when the document is deleted while it is
	// being ingested. It wraps domain.ErrNotFound, so the task is not retried.
	ErrDocumentDeleted = fmt.Errorf("%w: document deleted during ingestion", domain.ErrNotFound)
)

// ingestLockName names the per-document lock shared by ingestion and deletion
func ingestLockName(documentID string) string {
	return "ingest:" + documentID
}

// IngestionOrchestrator coordinates the document ingestion pipeline:
//  1. Lock the document and mark it processing
//  2. Open the stored upload
//  3. Extract segments
//  4. Chunk segments
//  5. Embed chunk texts in batches
//  6. Delete the document's existing points, then upsert the new ones
//  7. Store chunks and mark the document ready
type IngestionOrchestrator struct {
	documentStore  driven.DocumentStore
	chunkStore     driven.ChunkStore
	fileStore      driven.FileStore
	extractors     driven.ExtractorRegistry
	chunker        driven.Chunker
	embedder       driven.EmbeddingService
	index          driven.VectorIndex
	lock           driven.DistributedLock
	embedBatchSize int
	logger         *slog.Logger
}

// IngestionOrchestratorConfig holds dependencies for IngestionOrchestrator.
type IngestionOrchestratorConfig struct {
	DocumentStore  driven.DocumentStore
	ChunkStore     driven.ChunkStore
	FileStore      driven.FileStore
	Extractors     driven.ExtractorRegistry
	Chunker        driven.Chunker
	Embedder       driven.EmbeddingService
	Index          driven.VectorIndex
	Lock           driven.DistributedLock // Optional
	EmbedBatchSize int
	Logger         *slog.Logger
}

// NewIngestionOrchestrator creates a new ingestion orchestrator.
func NewIngestionOrchestrator(cfg IngestionOrchestratorConfig) *IngestionOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	batch := cfg.EmbedBatchSize
	if batch <= 0 {
		batch = DefaultEmbedBatchSize
	}

	return &IngestionOrchestrator{
		documentStore:  cfg.DocumentStore,
		chunkStore:     cfg.ChunkStore,
		fileStore:      cfg.FileStore,
		extractors:     cfg.Extractors,
		chunker:        cfg.Chunker,
		embedder:       cfg.Embedder,
		index:          cfg.Index,
		lock:           cfg.Lock,
		embedBatchSize: batch,
		logger:         logger,
	}
}

// Ingest runs the full pipeline for one registered document.
// Terminal failures (see domain.IsTerminalIngestionError) mark the document
// failed; other failures leave it processing so the caller can retry.
func (o *IngestionOrchestrator) Ingest(ctx context.Context, documentID string) error {
	logger := o.logger.With("document_id", documentID)
	start := time.Now()

	if o.lock != nil {
		lockName := ingestLockName(documentID)
		acquired, err := o.lock.Acquire(ctx, lockName, ingestLockTTL)
		if err != nil {
			return fmt.Errorf("acquire ingestion lock: %w", err)
		}
		if !acquired {
			return fmt.Errorf("%w: %s", ErrIngestionInProgress, documentID)
		}
		defer func() {
			if err := o.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
				logger.Warn("failed to release ingestion lock", "error", err)
			}
		}()
	}

	// Step 1: Load and mark processing
	doc, err := o.documentStore.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	doc.MarkProcessing()
	if err := o.documentStore.Save(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	total, err := o.process(ctx, doc, logger)
	if err != nil {
		if domain.IsTerminalIngestionError(err) && !errors.Is(err, ErrDocumentDeleted) {
			o.markFailed(ctx, doc, err, logger)
		}
		return err
	}

	// The record may have been deleted while we worked; never write it back
	if err := o.ensureExists(ctx, doc.ID); err != nil {
		o.discard(ctx, doc.ID, logger)
		return err
	}

	doc.MarkReady(total)
	if err := o.documentStore.Save(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	logger.Info("document ingested",
		"filename", doc.Filename,
		"chunks", total,
		"duration", time.Since(start),
	)
	return nil
}

// MarkFailed records a non-terminal failure after the caller stopped retrying.
func (o *IngestionOrchestrator) MarkFailed(ctx context.Context, documentID string, cause error) error {
	doc, err := o.documentStore.Get(ctx, documentID)
	if err != nil {
		return err
	}
	o.markFailed(ctx, doc, cause, o.logger.With("document_id", documentID))
	return nil
}

func (o *IngestionOrchestrator) process(ctx context.Context, doc *domain.Document, logger *slog.Logger) (int, error) {
	// Step 2: Open the upload
	file, err := o.fileStore.Open(ctx, doc.Path)
	if err != nil {
		return 0, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Step 3: Extract
	segments, err := o.extractors.Extract(ctx, file, file.Size(), doc.FileType)
	if err != nil {
		return 0, err
	}

	// Step 4: Chunk
	chunks := o.chunker.Chunk(domain.ChunkBase{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		FileType:   doc.FileType,
	}, segments)
	if err := checkPointIDs(chunks); err != nil {
		return 0, err
	}
	logger.Debug("document chunked", "segments", len(segments), "chunks", len(chunks))

	// Step 5: Embed
	points, err := o.embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	if err := o.ensureExists(ctx, doc.ID); err != nil {
		return 0, err
	}

	// Step 6: Replace the document's points
	if err := o.index.DeleteByDocument(ctx, doc.ID); err != nil {
		return 0, fmt.Errorf("delete existing points: %w", err)
	}
	if len(points) > 0 {
		if err := o.index.Upsert(ctx, points); err != nil {
			return 0, fmt.Errorf("upsert points: %w", err)
		}
	}

	// Step 7: Store chunks
	if err := o.chunkStore.DeleteByDocument(ctx, doc.ID); err != nil {
		return 0, fmt.Errorf("delete existing chunks: %w", err)
	}
	if len(chunks) > 0 {
		if err := o.chunkStore.SaveBatch(ctx, chunks); err != nil {
			return 0, fmt.Errorf("save chunks: %w", err)
		}
	}

	return len(chunks), nil
}

func (o *IngestionOrchestrator) embed(ctx context.Context, chunks []*domain.Chunk) ([]domain.Point, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if o.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}

	points := make([]domain.Point, 0, len(chunks))
	for start := 0; start < len(chunks); start += o.embedBatchSize {
		end := min(start+o.embedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := o.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingUnavailable, len(vectors), len(batch))
		}

		for i, c := range batch {
			points = append(points, domain.Point{
				ID:     c.PointID(),
				Vector: vectors[i],
				Chunk:  c,
			})
		}
	}
	return points, nil
}

// ensureExists reports ErrDocumentDeleted once the registry record is gone
func (o *IngestionOrchestrator) ensureExists(ctx context.Context, documentID string) error {
	_, err := o.documentStore.Get(ctx, documentID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return ErrDocumentDeleted
	default:
		return fmt.Errorf("get document: %w", err)
	}
}

// discard removes what this run wrote for a document deleted underneath it
func (o *IngestionOrchestrator) discard(ctx context.Context, documentID string, logger *slog.Logger) {
	ctx = context.WithoutCancel(ctx)
	if err := o.index.DeleteByDocument(ctx, documentID); err != nil {
		logger.Warn("failed to delete points of deleted document", "error", err)
	}
	if err := o.chunkStore.DeleteByDocument(ctx, documentID); err != nil {
		logger.Warn("failed to delete chunks of deleted document", "error", err)
	}
	logger.Info("document deleted during ingestion; results discarded")
}

func (o *IngestionOrchestrator) markFailed(ctx context.Context, doc *domain.Document, cause error, logger *slog.Logger) {
	doc.MarkFailed(cause.Error())
	if err := o.documentStore.Save(context.WithoutCancel(ctx), doc); err != nil {
		logger.Error("failed to record ingestion failure", "error", err)
	}
	logger.Error("ingestion failed", "filename", doc.Filename, "error", cause)
}

// checkPointIDs rejects a chunk set in which two chunks would overwrite each
// other in the index.
func checkPointIDs(chunks []*domain.Chunk) error {
	seen := make(map[uint64]*domain.Chunk, len(chunks))
	for _, c := range chunks {
		id := c.PointID()
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q and %q both map to %d", domain.ErrPointIDCollision, prev.ChunkID, c.ChunkID, id)
		}
		seen[id] = c
	}
	return nil
}
