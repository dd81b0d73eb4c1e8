package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// DefaultKeywordBonus is added to a candidate's score for each query keyword it contains
const DefaultKeywordBonus = 0.1

// ErrNoCandidates is returned by Rerank when there is nothing to rank
var ErrNoCandidates = errors.New("no candidates to rerank")

// Reranker rescores retrieved candidates against the query.
type Reranker struct {
	embedder     driven.EmbeddingService
	keywordBonus float64
}

// NewReranker creates a reranker. The bonus is used as given, so zero disables
// keyword boosting; configuration supplies DefaultKeywordBonus when unset.
func NewReranker(embedder driven.EmbeddingService, keywordBonus float64) *Reranker {
	return &Reranker{embedder: embedder, keywordBonus: keywordBonus}
}

// Rerank embeds every candidate text in one batch and orders the candidates by
// exact cosine similarity to queryVector, keeping the first topK. Ties keep
// retrieval order. Each kept candidate's Score is replaced by the similarity.
// The input slice is not modified.
func (r *Reranker) Rerank(ctx context.Context, queryVector []float32, candidates []domain.Candidate, topK int) ([]domain.Candidate, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if r.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Chunk.Text
	}
	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(candidates) {
		return nil, fmt.Errorf("%w: got %d vectors for %d candidates", domain.ErrEmbeddingUnavailable, len(vectors), len(candidates))
	}

	ranked := make([]domain.Candidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = domain.Candidate{
			Chunk:       c.Chunk,
			Score:       CosineSimilarity(queryVector, vectors[i]),
			HybridScore: c.HybridScore,
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return truncate(ranked, topK), nil
}

// Hybrid adds the keyword bonus for each query keyword found (case-insensitively)
// in a candidate's text, stores the total as HybridScore and orders by it.
// Score keeps the index similarity.
func (r *Reranker) Hybrid(query string, candidates []domain.Candidate, topK int) []domain.Candidate {
	keywords := ExtractKeywords(query)

	scored := make([]domain.Candidate, len(candidates))
	for i, c := range candidates {
		text := strings.ToLower(c.Chunk.Text)
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		scored[i] = domain.Candidate{
			Chunk:       c.Chunk,
			Score:       c.Score,
			HybridScore: c.Score + r.keywordBonus*float64(matches),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].HybridScore > scored[j].HybridScore
	})

	return truncate(scored, topK)
}

// Fallback returns the first topK candidates in retrieval order, unmodified.
func Fallback(candidates []domain.Candidate, topK int) []domain.Candidate {
	return truncate(candidates, topK)
}

// CosineSimilarity returns the cosine of the angle between a and b,
// or 0 when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func truncate(candidates []domain.Candidate, topK int) []domain.Candidate {
	if topK <= 0 || topK >= len(candidates) {
		return candidates
	}
	return candidates[:topK]
}
