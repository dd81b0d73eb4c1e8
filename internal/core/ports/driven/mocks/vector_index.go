package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*MockVectorIndex)(nil)

// MockVectorIndex records calls and returns preset search results
type MockVectorIndex struct {
	mu          sync.Mutex
	results     []domain.Candidate
	searchErr   error
	upsertErr   error
	deleteErr   error
	upserted    []domain.Point
	deleted     []string
	lastFilter  domain.SearchFilter
	lastLimit   int
	searchCalls int
	calls       []string
	afterUpsert func()
}

// NewMockVectorIndex creates an empty MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{}
}

func (m *MockVectorIndex) Bootstrap(ctx context.Context) error {
	return nil
}

func (m *MockVectorIndex) Upsert(ctx context.Context, points []domain.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "upsert")
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, points...)
	if hook := m.afterUpsert; hook != nil {
		m.mu.Unlock()
		hook()
		m.mu.Lock()
	}
	return nil
}

func (m *MockVectorIndex) Search(ctx context.Context, vector []float32, filter domain.SearchFilter, limit int) ([]domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	m.lastFilter = filter
	m.lastLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	var out []domain.Candidate
	for _, c := range m.results {
		if !filter.Matches(c.Chunk) {
			continue
		}
		out = append(out, domain.Candidate{Chunk: c.Chunk.Clone(), Score: c.Score})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockVectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, documentID)
	kept := m.upserted[:0]
	for _, p := range m.upserted {
		if p.Chunk.DocumentID != documentID {
			kept = append(kept, p)
		}
	}
	m.upserted = kept
	return nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockVectorIndex) Close() error {
	return nil
}

// Helper methods for testing

// SetResults sets the candidates returned by Search, in rank order
func (m *MockVectorIndex) SetResults(results []domain.Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
}

func (m *MockVectorIndex) SetSearchError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchErr = err
}

// SetAfterUpsert runs fn after each successful Upsert
func (m *MockVectorIndex) SetAfterUpsert(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.afterUpsert = fn
}

func (m *MockVectorIndex) SetUpsertError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertErr = err
}

func (m *MockVectorIndex) SetDeleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

// Upserted returns every point currently held
func (m *MockVectorIndex) Upserted() []domain.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Point(nil), m.upserted...)
}

// Deleted returns the document ids passed to DeleteByDocument
func (m *MockVectorIndex) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Calls returns the order of write calls ("delete", "upsert")
func (m *MockVectorIndex) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// LastSearch returns the filter and limit of the latest Search call
func (m *MockVectorIndex) LastSearch() (domain.SearchFilter, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastFilter, m.lastLimit
}

func (m *MockVectorIndex) SearchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls
}
