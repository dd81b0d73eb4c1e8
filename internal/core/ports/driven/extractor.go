package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// Extractor converts document bytes into ordered segments.
// Returns ErrCorruptDocument when the underlying parser cannot read the input.
type Extractor interface {
	// Extract reads the whole document and returns its segments in document order.
	// Empty segments are never returned.
	Extract(ctx context.Context, r io.ReaderAt, size int64) ([]domain.Segment, error)

	// SupportedTypes returns the file types this extractor handles
	SupportedTypes() []domain.FileType

	// Priority returns the extractor priority (higher = preferred).
	// Priority ranges:
	//   50-100: Format-specific parsers
	//   1-49:   Fallback text extraction
	Priority() int
}

// ExtractorRegistry manages document extractors.
// When multiple extractors match a file type, the highest priority one is used.
type ExtractorRegistry interface {
	// Get retrieves the best extractor for a file type, or nil
	Get(fileType domain.FileType) Extractor

	// Register registers an extractor
	Register(extractor Extractor)

	// List returns all file types with at least one extractor
	List() []domain.FileType

	// Extract picks an extractor for fileType and runs it.
	// Returns ErrUnsupportedFormat if none is registered.
	Extract(ctx context.Context, r io.ReaderAt, size int64, fileType domain.FileType) ([]domain.Segment, error)
}
