package extractors

import (
	"log/slog"

	"github.com/custodia-labs/tender-rag/internal/extractors/docx"
	"github.com/custodia-labs/tender-rag/internal/extractors/excel"
	"github.com/custodia-labs/tender-rag/internal/extractors/pdf"
)

// DefaultRegistry creates a registry with the PDF, Word and Excel extractors.
func DefaultRegistry(pdfLicenseKey string, logger *slog.Logger) (*Registry, error) {
	pdfExtractor, err := pdf.New(pdf.Config{LicenseKey: pdfLicenseKey, Logger: logger})
	if err != nil {
		return nil, err
	}

	r := NewRegistry()
	r.Register(pdfExtractor)
	r.Register(docx.New())
	r.Register(excel.New())
	return r, nil
}
