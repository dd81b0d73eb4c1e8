package services

import (
	"strings"
	"testing"
)

func TestPreprocessQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "expands RFP",
			query: "What is the RFP deadline?",
			want:  "What is the RFP (Request for Proposal) deadline?",
		},
		{
			name:  "strips punctuation and collapses whitespace",
			query: "  Budget:   total   (incl. VAT)!! ",
			want:  "Budget total incl VAT",
		},
		{
			name:  "expands every occurrence",
			query: "SOW vs SOW",
			want:  "SOW (Statement of Work) vs SOW (Statement of Work)",
		},
		{
			name:  "terms and conditions",
			query: "Summarise the T&C",
			want:  "Summarise the T&C (Terms and Conditions)",
		},
		{
			name:  "acronym inside a word is left alone",
			query: "RFPs and EOIs",
			want:  "RFPs and EOIs",
		},
		{
			name:  "keeps non-ASCII letters",
			query: "Qué plazo tiene la oferta?",
			want:  "Qué plazo tiene la oferta?",
		},
		{
			name:  "empty",
			query: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreprocessQuery(tt.query); got != tt.want {
				t.Errorf("PreprocessQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestPreprocessQuery_MultipleAcronyms(t *testing.T) {
	got := PreprocessQuery("Does the RFQ follow the EOI?")
	for _, want := range []string{"RFQ (Request for Quotation)", "EOI (Expression of Interest)"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestExtractKeywords(t *testing.T) {
	got := ExtractKeywords("What is the submission deadline for the bid? Deadline")
	want := []string{"submission", "deadline", "bid"}

	if len(got) != len(want) {
		t.Fatalf("ExtractKeywords() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractKeywords_DropsShortAndStopWords(t *testing.T) {
	if got := ExtractKeywords("is it to be or not"); len(got) != 0 {
		t.Errorf("expected no keywords, got %v", got)
	}
}
