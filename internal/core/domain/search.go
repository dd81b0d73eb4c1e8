package domain

import (
	"strings"
	"unicode/utf8"
)

// NoRelevantInformationAnswer is returned when retrieval finds no evidence
const NoRelevantInformationAnswer = "I couldn't find any relevant information in the documents to answer your question."

// apologyPrefix starts the answer returned when the query pipeline fails
const apologyPrefix = "I apologize, but I encountered an error while processing your question: "

// ApologyAnswer renders the user-facing answer for a failed query
func ApologyAnswer(err error) string {
	detail := "unknown error"
	if err != nil {
		detail = err.Error()
	}
	return apologyPrefix + detail
}

// SourceTextLimit bounds chunk text returned to clients
const SourceTextLimit = 300

// SearchFilter is a conjunction of optional predicates.
// List-valued predicates match when any element matches.
type SearchFilter struct {
	DocumentIDs   []string   `json:"document_ids,omitempty"`
	FileTypes     []FileType `json:"file_types,omitempty"`
	SectionTitles []string   `json:"section_titles,omitempty"` // Substring match
	Granularity   string     `json:"granularity,omitempty"`
	MinTokens     *int       `json:"min_tokens,omitempty"`
	MaxTokens     *int       `json:"max_tokens,omitempty"`
}

// IsEmpty reports whether the filter places no constraint on the corpus
func (f SearchFilter) IsEmpty() bool {
	return len(f.DocumentIDs) == 0 &&
		len(f.FileTypes) == 0 &&
		len(f.SectionTitles) == 0 &&
		f.Granularity == "" &&
		f.MinTokens == nil &&
		f.MaxTokens == nil
}

// Matches evaluates the filter against a chunk.
// Used by index backends that cannot push the filter down.
func (f SearchFilter) Matches(c *Chunk) bool {
	if len(f.DocumentIDs) > 0 && !containsString(f.DocumentIDs, c.DocumentID) {
		return false
	}
	if len(f.FileTypes) > 0 {
		found := false
		for _, ft := range f.FileTypes {
			if ft == c.FileType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.SectionTitles) > 0 {
		found := false
		for _, title := range f.SectionTitles {
			if strings.Contains(c.SectionTitle, title) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Granularity != "" && string(c.Granularity) != f.Granularity {
		return false
	}
	if f.MinTokens != nil && c.TokenCount < *f.MinTokens {
		return false
	}
	if f.MaxTokens != nil && c.TokenCount > *f.MaxTokens {
		return false
	}
	return true
}

// Candidate is a retrieved chunk with its similarity score
type Candidate struct {
	Chunk       *Chunk  `json:"chunk"`
	Score       float64 `json:"score"`
	HybridScore float64 `json:"hybrid_score,omitempty"`
}

// QueryRequest is a question posed to the RAG pipeline
type QueryRequest struct {
	Message     string       `json:"message"`
	DocumentIDs []string     `json:"document_ids,omitempty"`
	TopK        int          `json:"top_k"`
	Filter      SearchFilter `json:"filters"`
	Hybrid      bool         `json:"hybrid"`
}

// EffectiveFilter combines the request's document ids with its filter.
// When both restrict documents, only ids present in both are kept; ok is
// false if that intersection is empty and no chunk can match.
func (r QueryRequest) EffectiveFilter() (f SearchFilter, ok bool) {
	f = r.Filter
	switch {
	case len(r.DocumentIDs) == 0:
	case len(f.DocumentIDs) == 0:
		f.DocumentIDs = append([]string{}, r.DocumentIDs...)
	default:
		requested := make(map[string]bool, len(r.DocumentIDs))
		for _, id := range r.DocumentIDs {
			requested[id] = true
		}
		var both []string
		for _, id := range f.DocumentIDs {
			if requested[id] {
				both = append(both, id)
			}
		}
		if len(both) == 0 {
			return f, false
		}
		f.DocumentIDs = both
	}
	return f, true
}

// PipelineState is a step of the per-query state machine
type PipelineState string

const (
	StatePreprocessing PipelineState = "preprocessing"
	StateEmbedding     PipelineState = "embedding"
	StateRetrieving    PipelineState = "retrieving"
	StateReranking     PipelineState = "reranking"
	StateGenerating    PipelineState = "generating"
	StateDone          PipelineState = "done"
	StateErrored       PipelineState = "errored"
)

// Answer is the outcome of one query
type Answer struct {
	Text    string        `json:"response"`
	Sources []Source      `json:"sources"`
	State   PipelineState `json:"state"`
	Err     error         `json:"-"`
}

// Source is a cited chunk as shown to clients
type Source struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	ChunkText    string  `json:"chunk_text"`
	PageNumber   int     `json:"page_number,omitempty"`
	SheetName    string  `json:"sheet_name,omitempty"`
	SectionTitle string  `json:"section_title,omitempty"`
	Granularity  string  `json:"granularity,omitempty"`
	Score        float64 `json:"score"`
}

// NewSource builds the display form of a candidate
func NewSource(c Candidate) Source {
	score := c.Score
	if c.HybridScore != 0 {
		score = c.HybridScore
	}
	return Source{
		DocumentID:   c.Chunk.DocumentID,
		DocumentName: c.Chunk.Filename,
		ChunkText:    TruncateText(c.Chunk.Text, SourceTextLimit),
		PageNumber:   c.Chunk.PageNumber,
		SheetName:    c.Chunk.SheetName,
		SectionTitle: c.Chunk.SectionTitle,
		Granularity:  string(c.Chunk.Granularity),
		Score:        score,
	}
}

// TruncateText cuts text to limit runes, appending "..." when shortened
func TruncateText(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
