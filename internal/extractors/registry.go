// Package extractors selects and runs document extractors by file type.
package extractors

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry implements ExtractorRegistry with priority-based selection.
// When multiple extractors match a file type, the highest priority one is used.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.Extractor
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make([]driven.Extractor, 0),
	}
}

// Register registers an extractor.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = append(r.extractors, extractor)
}

// Get retrieves the best-matching extractor for a file type.
// Returns nil if no extractor is registered for the type.
func (r *Registry) Get(fileType domain.FileType) driven.Extractor {
	matches := r.GetAll(fileType)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// GetAll retrieves all extractors for a file type, sorted by priority (highest first).
func (r *Registry) GetAll(fileType domain.FileType) []driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []driven.Extractor
	for _, e := range r.extractors {
		for _, t := range e.SupportedTypes() {
			if t == fileType {
				matches = append(matches, e)
				break
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})
	return matches
}

// List returns all file types with at least one extractor.
func (r *Registry) List() []domain.FileType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeSet := make(map[domain.FileType]struct{})
	for _, e := range r.extractors {
		for _, t := range e.SupportedTypes() {
			typeSet[t] = struct{}{}
		}
	}

	types := make([]domain.FileType, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Extract runs the best extractor for fileType and drops empty segments.
func (r *Registry) Extract(ctx context.Context, rd io.ReaderAt, size int64, fileType domain.FileType) ([]domain.Segment, error) {
	extractor := r.Get(fileType)
	if extractor == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, fileType)
	}

	segments, err := extractor.Extract(ctx, rd, size)
	if err != nil {
		return nil, err
	}

	kept := segments[:0]
	for _, seg := range segments {
		if !seg.IsEmpty() {
			kept = append(kept, seg)
		}
	}
	return kept, nil
}
