// Package memory is an in-process vector index using brute-force cosine similarity.
// It backs development runs and tests; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Ensure Index implements VectorIndex
var _ driven.VectorIndex = (*Index)(nil)

// Index stores points keyed by point id.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	points     map[uint64]domain.Point
}

// New creates an empty index for vectors of the given size
func New(dimensions int) *Index {
	if dimensions <= 0 {
		dimensions = domain.EmbeddingDimensions
	}
	return &Index{
		dimensions: dimensions,
		points:     make(map[uint64]domain.Point),
	}
}

// Bootstrap is a no-op
func (s *Index) Bootstrap(ctx context.Context) error {
	return nil
}

// Upsert stores copies of the points, replacing any with the same id
func (s *Index) Upsert(ctx context.Context, points []domain.Point) error {
	for _, p := range points {
		if len(p.Vector) != s.dimensions {
			return fmt.Errorf("point %d has %d dimensions, want %d", p.ID, len(p.Vector), s.dimensions)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		chunk := *p.Chunk
		s.points[p.ID] = domain.Point{
			ID:     p.ID,
			Vector: append([]float32(nil), p.Vector...),
			Chunk:  &chunk,
		}
	}
	return nil
}

// Search scores every matching point and returns the best limit of them
func (s *Index) Search(ctx context.Context, vector []float32, filter domain.SearchFilter, limit int) ([]domain.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	type scored struct {
		id    uint64
		score float64
		chunk *domain.Chunk
	}
	hits := make([]scored, 0, len(s.points))
	for id, p := range s.points {
		if !filter.Matches(p.Chunk) {
			continue
		}
		hits = append(hits, scored{id: id, score: cosine(vector, p.Vector), chunk: p.Chunk})
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].id < hits[j].id
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	candidates := make([]domain.Candidate, len(hits))
	for i, h := range hits {
		chunk := *h.chunk
		candidates[i] = domain.Candidate{Chunk: &chunk, Score: h.score}
	}
	return candidates, nil
}

// DeleteByDocument removes every point of one document
func (s *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.points {
		if p.Chunk.DocumentID == documentID {
			delete(s.points, id)
		}
	}
	return nil
}

// Len returns the number of stored points
func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// HealthCheck always succeeds
func (s *Index) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *Index) Close() error {
	return nil
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
