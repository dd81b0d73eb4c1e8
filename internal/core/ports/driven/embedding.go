package driven

import (
	"context"
)

// EmbeddingService generates normalized text embeddings.
// Implementations must be safe for concurrent use.
type EmbeddingService interface {
	// Embed generates embeddings for multiple texts.
	// Output order matches input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding model is loaded and reachable
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}
