package driven

import "github.com/custodia-labs/tender-rag/internal/core/domain"

// Tokenizer is the subword tokenizer used for every chunk size calculation.
// Encode and Decode are exact inverses for text produced by Decode.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

// SentenceSplitter splits text into sentences in reading order
type SentenceSplitter interface {
	Split(text string) []string
}

// Chunker splits a document's segments into chunks in document order
type Chunker interface {
	Chunk(base domain.ChunkBase, segments []domain.Segment) []*domain.Chunk
}
