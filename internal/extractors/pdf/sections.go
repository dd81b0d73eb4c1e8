package pdf

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// IntroductionTitle names text that precedes the first heading
const IntroductionTitle = "Introduction"

// maxHeadingLength rejects long lines that happen to match a heading shape
const maxHeadingLength = 100

// headingPatterns are tried in order; the first match wins.
var headingPatterns = []*regexp.Regexp{
	// Numbered: "1 Scope", "2.3 Evaluation Criteria", "4. Pricing"
	regexp.MustCompile(`^\d{1,2}(?:\.\d{1,2})*\.?\s+[A-Z][^\n]*[^.;,]$`),
	// ALL CAPS ending in a colon: "SUBMISSION REQUIREMENTS:"
	regexp.MustCompile(`^[A-Z][A-Z0-9 &/,()'-]+:$`),
	// Title Case ending in a colon: "Terms and Conditions:"
	regexp.MustCompile(`^[A-Z][A-Za-z0-9'-]*(?:\s+(?:[A-Z][A-Za-z0-9'-]*|of|and|the|for|to|in|on|a|an|or))*:$`),
	// Standalone short capitalised line: "Delivery Schedule"
	regexp.MustCompile(`^[A-Z][A-Za-z0-9&/'-]*(?:\s+[A-Z][A-Za-z0-9&/'-]*){0,7}$`),
}

// MatchHeading reports whether line is a section heading and returns its title
func MatchHeading(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 3 || len(line) > maxHeadingLength {
		return "", false
	}
	for _, p := range headingPatterns {
		if p.MatchString(line) {
			return strings.TrimSpace(strings.TrimSuffix(line, ":")), true
		}
	}
	return "", false
}

// Sectionize groups page texts into heading-delimited segments.
// A section stays open across page breaks; each emitted segment carries the
// page its text was read from. Text before the first heading belongs to
// IntroductionTitle. With no heading anywhere, one untitled segment per page
// is returned.
func Sectionize(pages []string) []domain.Segment {
	var (
		segments    []domain.Segment
		title       string
		body        []string
		headingSeen bool
	)

	flush := func(page int) {
		text := strings.TrimSpace(collapseBlankLines(body))
		body = body[:0]
		if text == "" {
			return
		}
		segments = append(segments, domain.Segment{
			Text:         text,
			SourceType:   domain.FileTypePDF,
			PageNumber:   page,
			SectionTitle: title,
		})
	}

	for i, pageText := range pages {
		page := i + 1
		for _, line := range strings.Split(normalizeNewlines(pageText), "\n") {
			if heading, ok := MatchHeading(line); ok {
				flush(page)
				title = heading
				headingSeen = true
				continue
			}
			if title == "" {
				title = IntroductionTitle
			}
			body = append(body, strings.TrimRight(line, " \t"))
		}
		flush(page)
	}

	if !headingSeen {
		return pageSegments(pages)
	}
	return segments
}

// pageSegments returns one segment per non-empty page without section titles
func pageSegments(pages []string) []domain.Segment {
	var segments []domain.Segment
	for i, pageText := range pages {
		lines := strings.Split(normalizeNewlines(pageText), "\n")
		for j := range lines {
			lines[j] = strings.TrimRight(lines[j], " \t")
		}
		text := strings.TrimSpace(collapseBlankLines(lines))
		if text == "" {
			continue
		}
		segments = append(segments, domain.Segment{
			Text:       text,
			SourceType: domain.FileTypePDF,
			PageNumber: i + 1,
		})
	}
	return segments
}

// collapseBlankLines joins lines, keeping at most one blank line between paragraphs
func collapseBlankLines(lines []string) string {
	var sb strings.Builder
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank = true
			continue
		}
		if sb.Len() > 0 {
			if blank {
				sb.WriteString("\n\n")
			} else {
				sb.WriteString("\n")
			}
		}
		sb.WriteString(line)
		blank = false
	}
	return sb.String()
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
