package extractors

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// Mock extractor for testing
type mockExtractor struct {
	name     string
	types    []domain.FileType
	priority int
	err      error
}

func (m *mockExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64) ([]domain.Segment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Segment{
		{Text: m.name, PageNumber: 1},
		{Text: "  \n", PageNumber: 2},
	}, nil
}

func (m *mockExtractor) SupportedTypes() []domain.FileType {
	return m.types
}

func (m *mockExtractor) Priority() int {
	return m.priority
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("expected non-nil registry")
	}
	if len(r.List()) != 0 {
		t.Error("expected no file types")
	}
}

func TestRegistry_Get_PrioritySelection(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockExtractor{name: "low", types: []domain.FileType{domain.FileTypePDF}, priority: 10})
	r.Register(&mockExtractor{name: "high", types: []domain.FileType{domain.FileTypePDF}, priority: 90})
	r.Register(&mockExtractor{name: "medium", types: []domain.FileType{domain.FileTypePDF}, priority: 50})

	e := r.Get(domain.FileTypePDF)
	if e == nil {
		t.Fatal("expected to find extractor")
	}
	if e.Priority() != 90 {
		t.Errorf("expected highest priority extractor, got %d", e.Priority())
	}

	if r.Get(domain.FileTypeExcel) != nil {
		t.Error("expected nil for unregistered type")
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockExtractor{types: []domain.FileType{domain.FileTypePDF}})
	r.Register(&mockExtractor{types: []domain.FileType{domain.FileTypeExcel, domain.FileTypeDOCX}})

	types := r.List()
	want := []domain.FileType{domain.FileTypeDOCX, domain.FileTypeExcel, domain.FileTypePDF}
	if len(types) != len(want) {
		t.Fatalf("expected %d types, got %d", len(want), len(types))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("type %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestRegistry_Extract(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockExtractor{name: "pdf text", types: []domain.FileType{domain.FileTypePDF}, priority: 50})

	segs, err := r.Extract(context.Background(), bytes.NewReader(nil), 0, domain.FileTypePDF)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected empty segment to be dropped, got %d segments", len(segs))
	}
	if segs[0].Text != "pdf text" {
		t.Errorf("unexpected text %q", segs[0].Text)
	}
}

func TestRegistry_Extract_UnsupportedFormat(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract(context.Background(), bytes.NewReader(nil), 0, "pptx")
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRegistry_Extract_PropagatesError(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockExtractor{types: []domain.FileType{domain.FileTypeDOCX}, err: domain.ErrCorruptDocument})

	_, err := r.Extract(context.Background(), bytes.NewReader(nil), 0, domain.FileTypeDOCX)
	if !errors.Is(err, domain.ErrCorruptDocument) {
		t.Errorf("expected ErrCorruptDocument, got %v", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, ft := range []domain.FileType{domain.FileTypePDF, domain.FileTypeDOCX, domain.FileTypeExcel} {
		if r.Get(ft) == nil {
			t.Errorf("expected extractor for %s", ft)
		}
	}
}
