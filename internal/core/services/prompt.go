package services

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

const promptPreamble = "You are a helpful assistant analyzing tender documents. " +
	"Answer the user's question based on the provided context from the documents."

const promptInstructions = `Instructions:
- Answer only from the context above; do not use outside knowledge
- Cite the source of each fact using its document name, page, sheet or section
- If the context does not contain enough information to answer, say so explicitly
- For questions about requirements, quote the exact text from the documents`

// BuildPrompt renders the generation prompt for a preprocessed query and its
// cited candidates. The output depends only on its inputs.
func BuildPrompt(query string, candidates []domain.Candidate) string {
	blocks := make([]string, len(candidates))
	for i, c := range candidates {
		blocks[i] = "[Context " + strconv.Itoa(i+1) + "] (" + sourceDescriptor(c.Chunk) + ")\n" + c.Chunk.Text
	}

	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nContext from documents:\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nUser question: ")
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(promptInstructions)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// sourceDescriptor names where a chunk came from: filename, then page, sheet,
// section and granularity when present.
func sourceDescriptor(c *domain.Chunk) string {
	parts := []string{"Document: " + c.Filename}
	if c.PageNumber > 0 {
		parts = append(parts, "Page "+strconv.Itoa(c.PageNumber))
	}
	if c.SheetName != "" {
		parts = append(parts, "Sheet: "+c.SheetName)
	}
	if c.SectionTitle != "" {
		parts = append(parts, "Section: "+c.SectionTitle)
	}
	if c.Granularity != domain.GranularityNone {
		parts = append(parts, "Level: "+string(c.Granularity))
	}
	return strings.Join(parts, ", ")
}
