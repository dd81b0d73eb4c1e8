package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore keeps chunks grouped by document in memory
type ChunkStore struct {
	mu         sync.RWMutex
	byDocument map[string][]*domain.Chunk
}

// NewChunkStore creates an empty ChunkStore
func NewChunkStore() *ChunkStore {
	return &ChunkStore{byDocument: make(map[string][]*domain.Chunk)}
}

// SaveBatch replaces chunks with the same (chunkId, granularity) and appends the rest
func (s *ChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		existing := s.byDocument[c.DocumentID]
		replaced := false
		for i, e := range existing {
			if e.ChunkID == c.ChunkID && e.Granularity == c.Granularity {
				existing[i] = c.Clone()
				replaced = true
				break
			}
		}
		if !replaced {
			s.byDocument[c.DocumentID] = append(existing, c.Clone())
		}
	}
	return nil
}

func (s *ChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.byDocument[documentID]
	out := make([]*domain.Chunk, len(stored))
	for i, c := range stored {
		out[i] = c.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byDocument, documentID)
	return nil
}

func (s *ChunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byDocument[documentID]), nil
}
