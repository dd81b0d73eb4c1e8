// Package docx extracts heading-delimited sections from Word documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor reads the main document part of a DOCX package
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes returns the file types this extractor handles
func (e *Extractor) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeDOCX}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns one segment per heading-delimited section in document order.
// Paragraphs inside a section are separated by blank lines.
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) ([]domain.Segment, error) {
	reader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}

	paragraphs, err := readParagraphs(reader)
	if err != nil {
		return nil, err
	}
	return sectionize(paragraphs), nil
}

// paragraph is one w:p element
type paragraph struct {
	style string
	text  string
}

// isHeading reports whether the paragraph uses a heading or title style
func (p paragraph) isHeading() bool {
	style := strings.ToLower(strings.ReplaceAll(p.style, " ", ""))
	return strings.HasPrefix(style, "heading") || style == "title"
}

// readParagraphs extracts the paragraphs of word/document.xml
func readParagraphs(reader *zip.Reader) ([]paragraph, error) {
	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
		}
		defer rc.Close()

		return parseDocumentXML(rc)
	}
	return nil, fmt.Errorf("%w: missing %s", domain.ErrCorruptDocument, documentPart)
}

// parseDocumentXML walks the XML token stream so paragraphs nested in tables
// are read in document order too.
func parseDocumentXML(r io.Reader) ([]paragraph, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []paragraph
		current    *paragraph
		text       strings.Builder
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				current = &paragraph{}
				text.Reset()
			case "pStyle":
				if current != nil {
					current.style = attr(t, "val")
				}
			case "t":
				inText = true
			case "tab":
				if current != nil {
					text.WriteString("\t")
				}
			case "br", "cr":
				if current != nil {
					text.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if current != nil {
					current.text = strings.TrimSpace(text.String())
					paragraphs = append(paragraphs, *current)
					current = nil
				}
			}
		case xml.CharData:
			if inText && current != nil {
				text.Write(t)
			}
		}
	}
	return paragraphs, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// sectionize groups paragraphs under the nearest preceding heading.
// Text before the first heading forms an untitled section.
func sectionize(paragraphs []paragraph) []domain.Segment {
	var (
		segments []domain.Segment
		title    string
		body     []string
	)

	flush := func() {
		if len(body) == 0 {
			return
		}
		segments = append(segments, domain.Segment{
			Text:         strings.Join(body, "\n\n"),
			SourceType:   domain.FileTypeDOCX,
			SectionTitle: title,
		})
		body = nil
	}

	for _, p := range paragraphs {
		if p.text == "" {
			continue
		}
		if p.isHeading() {
			flush()
			title = p.text
			continue
		}
		body = append(body, p.text)
	}
	flush()
	return segments
}
