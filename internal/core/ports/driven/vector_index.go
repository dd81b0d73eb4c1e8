package driven

import (
	"context"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// MaxUpsertBatch is the largest number of points sent in one index write
const MaxUpsertBatch = 100

// VectorIndex persists chunk vectors and answers filtered nearest-neighbour queries.
// Implementations must be safe for concurrent use.
type VectorIndex interface {
	// Bootstrap connects and ensures the collection exists.
	// Returns ErrIndexUnavailable once its retries are exhausted.
	Bootstrap(ctx context.Context) error

	// Upsert writes points, splitting them into batches of at most MaxUpsertBatch
	Upsert(ctx context.Context, points []domain.Point) error

	// Search returns up to limit candidates matching filter, ranked by descending score
	Search(ctx context.Context, vector []float32, filter domain.SearchFilter, limit int) ([]domain.Candidate, error)

	// DeleteByDocument removes every point whose payload documentId equals documentID
	DeleteByDocument(ctx context.Context, documentID string) error

	// HealthCheck verifies the index is reachable
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the index client
	Close() error
}
