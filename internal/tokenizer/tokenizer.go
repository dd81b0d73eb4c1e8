// Package tokenizer provides the subword tokenizer used for chunk sizing.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// DefaultEncoding is the BPE encoding every chunk size is measured in
const DefaultEncoding = "cl100k_base"

// Verify interface compliance
var _ driven.Tokenizer = (*Tiktoken)(nil)

var loaderOnce sync.Once

// Tiktoken wraps a tiktoken encoding loaded from the embedded BPE files
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// New loads the named encoding without touching the network
func New(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// Encode returns the token ids of text. Special tokens are treated as text.
func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode returns the text for tokens
func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Count returns the number of tokens in text
func (t *Tiktoken) Count(text string) int {
	return len(t.Encode(text))
}
