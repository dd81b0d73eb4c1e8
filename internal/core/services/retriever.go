package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

const (
	// DefaultTopK is used when a request does not ask for a result count
	DefaultTopK = 5

	// DefaultRerankingFactor is how many candidates are fetched per returned result
	DefaultRerankingFactor = 3

	// MaxRetrievalK caps over-fetching regardless of the reranking factor
	MaxRetrievalK = 15
)

// RetrieverConfig holds dependencies for Retriever.
type RetrieverConfig struct {
	Embedder        driven.EmbeddingService
	Index           driven.VectorIndex
	RerankingFactor int
	MaxRetrievalK   int
	Logger          *slog.Logger
}

// Retriever embeds queries and fetches candidate chunks from the vector index.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	factor   int
	maxK     int
	logger   *slog.Logger
}

// NewRetriever creates a retriever. Non-positive limits fall back to defaults.
func NewRetriever(cfg RetrieverConfig) *Retriever {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	factor := cfg.RerankingFactor
	if factor < 1 {
		factor = DefaultRerankingFactor
	}
	maxK := cfg.MaxRetrievalK
	if maxK < 1 {
		maxK = MaxRetrievalK
	}

	return &Retriever{
		embedder: cfg.Embedder,
		index:    cfg.Index,
		factor:   factor,
		maxK:     maxK,
		logger:   logger,
	}
}

// RetrievalK returns how many candidates to fetch for a final result count of topK.
func (r *Retriever) RetrievalK(topK int) int {
	if topK <= 0 {
		topK = DefaultTopK
	}
	k := topK * r.factor
	if k > r.maxK {
		k = r.maxK
	}
	return k
}

// EmbedQuery embeds an already preprocessed query.
func (r *Retriever) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrEmbeddingUnavailable)
	}
	return vector, nil
}

// Search fetches RetrievalK(topK) candidates for a query vector.
// An empty result is not an error.
func (r *Retriever) Search(ctx context.Context, vector []float32, filter domain.SearchFilter, topK int) ([]domain.Candidate, error) {
	if r.index == nil {
		return nil, fmt.Errorf("%w: no vector index configured", domain.ErrIndexUnavailable)
	}
	limit := r.RetrievalK(topK)
	candidates, err := r.index.Search(ctx, vector, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	r.logger.Debug("retrieved candidates", "limit", limit, "count", len(candidates))
	return candidates, nil
}
