package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// DocumentService manages the document registry and its ingestion lifecycle
type DocumentService interface {
	// Upload validates and stores a file, registers it as processing and
	// queues it for ingestion
	Upload(ctx context.Context, filename string, r io.Reader) (*domain.Document, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetWithChunks retrieves a document with its chunks
	GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error)

	// List retrieves documents, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Count returns the total number of documents
	Count(ctx context.Context) (int, error)

	// Delete removes a document's points, stored file, chunks and record
	Delete(ctx context.Context, id string) error

	// Reindex queues a fresh ingestion of an existing document
	Reindex(ctx context.Context, id string) error
}

// IngestionService turns a registered document into indexed chunks
type IngestionService interface {
	// Ingest extracts, chunks, embeds and indexes the document, replacing
	// any points it already has
	Ingest(ctx context.Context, documentID string) error

	// MarkFailed records a failure the caller has given up retrying
	MarkFailed(ctx context.Context, documentID string, cause error) error
}
