package services

import (
	"strings"
	"testing"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

func TestBuildPrompt(t *testing.T) {
	candidates := []domain.Candidate{
		{Chunk: &domain.Chunk{
			Text:         "Bids close on 1 May.",
			Filename:     "rfp.pdf",
			PageNumber:   3,
			SectionTitle: "1.2 Timeline",
			Granularity:  domain.GranularityParagraph,
		}},
		{Chunk: &domain.Chunk{
			Text:      "Item | Price",
			Filename:  "prices.xlsx",
			SheetName: "Lot 1",
		}},
	}

	prompt := BuildPrompt("When do bids close?", candidates)

	for _, want := range []string{
		"[Context 1] (Document: rfp.pdf, Page 3, Section: 1.2 Timeline, Level: paragraph)\nBids close on 1 May.",
		"[Context 2] (Document: prices.xlsx, Sheet: Lot 1)\nItem | Price",
		"User question: When do bids close?",
		"Answer only from the context",
		"say so explicitly",
		"quote the exact text",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n%s", want, prompt)
		}
	}

	if !strings.HasSuffix(prompt, "Answer:") {
		t.Error("prompt should end with the answer cue")
	}
	if strings.Index(prompt, "[Context 1]") > strings.Index(prompt, "[Context 2]") {
		t.Error("context blocks out of order")
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	candidates := []domain.Candidate{{Chunk: &domain.Chunk{Text: "x", Filename: "a.docx"}}}
	if BuildPrompt("q", candidates) != BuildPrompt("q", candidates) {
		t.Error("BuildPrompt is not deterministic")
	}
}

func TestBuildPrompt_DoesNotTruncate(t *testing.T) {
	long := strings.Repeat("word ", 500)
	prompt := BuildPrompt("q", []domain.Candidate{{Chunk: &domain.Chunk{Text: long, Filename: "a.pdf"}}})
	if !strings.Contains(prompt, long) {
		t.Error("candidate text was truncated")
	}
}
