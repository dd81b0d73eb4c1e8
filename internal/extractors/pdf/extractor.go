// Package pdf extracts page text from PDF files and groups it into sections.
package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Extractor = (*Extractor)(nil)

var licenseOnce sync.Once

// Config configures the PDF extractor
type Config struct {
	// LicenseKey is the UniDoc metered key. Empty leaves the library unlicensed.
	LicenseKey string
	Logger     *slog.Logger
}

// Extractor reads PDFs with UniPDF
type Extractor struct {
	logger *slog.Logger
}

// New creates a PDF extractor, registering the license key once per process
func New(cfg Config) (*Extractor, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	var licenseErr error
	if cfg.LicenseKey != "" {
		licenseOnce.Do(func() {
			licenseErr = license.SetMeteredKey(cfg.LicenseKey)
		})
	}
	if licenseErr != nil {
		return nil, fmt.Errorf("set pdf license key: %w", licenseErr)
	}

	return &Extractor{logger: cfg.Logger}, nil
}

// SupportedTypes returns the file types this extractor handles
func (e *Extractor) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypePDF}
}

// Priority returns the selection priority
func (e *Extractor) Priority() int {
	return 50
}

// Extract reads every page and splits the text into heading-delimited sections
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) ([]domain.Segment, error) {
	pages, err := e.readPages(ctx, io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, err
	}

	segments := Sectionize(pages)
	e.logger.Debug("extracted pdf", "pages", len(pages), "segments", len(segments))
	return segments, nil
}

// readPages returns the text of each page, indexed from page 1 at position 0
func (e *Extractor) readPages(ctx context.Context, rs io.ReadSeeker) ([]string, error) {
	reader, err := model.NewPdfReader(rs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil || !ok {
			return nil, fmt.Errorf("%w: encrypted pdf", domain.ErrCorruptDocument)
		}
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrCorruptDocument, i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrCorruptDocument, i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrCorruptDocument, i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
