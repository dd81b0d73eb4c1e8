// Package excel renders spreadsheet sheets as text segments.
package excel

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Extractor = (*Extractor)(nil)

// cellSeparator joins column names and row values
const cellSeparator = " | "

// separatorRule divides the sheet header from its rows
var separatorRule = strings.Repeat("-", 50)

// Extractor reads XLSX workbooks with excelize
type Extractor struct{}

// New creates a new Excel extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes returns the file types this extractor handles
func (e *Extractor) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeExcel}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns one segment per sheet. The first row names the columns.
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) ([]domain.Segment, error) {
	f, err := excelize.OpenReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	defer f.Close()

	var segments []domain.Segment
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", domain.ErrCorruptDocument, sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		segments = append(segments, domain.Segment{
			Text:       RenderSheet(sheet, rows),
			SourceType: domain.FileTypeExcel,
			SheetName:  sheet,
		})
	}
	return segments, nil
}

// RenderSheet formats a sheet as a header line, the column names, a rule and
// one line per non-empty data row.
func RenderSheet(name string, rows [][]string) string {
	lines := []string{"Sheet: " + name}

	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	columns := make([]string, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			col = "Unnamed: " + strconv.Itoa(i)
		}
		columns[i] = col
	}
	lines = append(lines, "Columns: "+strings.Join(columns, cellSeparator), separatorRule)

	for _, row := range rows[min(1, len(rows)):] {
		var values []string
		for _, cell := range row {
			if v := strings.TrimSpace(cell); v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		lines = append(lines, strings.Join(values, cellSeparator))
	}
	return strings.Join(lines, "\n")
}
