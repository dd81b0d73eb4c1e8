package driven

import (
	"context"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// DocumentStore is the document registry (PostgreSQL or in-memory).
// Implementations must be safe for concurrent ingestions updating status.
type DocumentStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByFilename retrieves the most recent document uploaded under filename
	GetByFilename(ctx context.Context, filename string) (*domain.Document, error)

	// List retrieves documents newest first with pagination
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Delete deletes a document
	Delete(ctx context.Context, id string) error

	// Count returns total document count
	Count(ctx context.Context) (int, error)

	// CountByStatus returns document count for a status
	CountByStatus(ctx context.Context, status domain.DocumentStatus) (int, error)
}

// ChunkStore keeps the chunk text of each document for inspection and re-embedding
type ChunkStore interface {
	// SaveBatch saves all chunks of one document in a transaction
	SaveBatch(ctx context.Context, chunks []*domain.Chunk) error

	// GetByDocument retrieves all chunks for a document ordered by position
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	// DeleteByDocument deletes all chunks for a document
	DeleteByDocument(ctx context.Context, documentID string) error

	// CountByDocument returns the number of stored chunks for a document
	CountByDocument(ctx context.Context, documentID string) (int, error)
}
