// Package chunking turns extracted segments into retrievable chunks.
package chunking

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// paragraphBreak matches a blank line, tolerating trailing spaces and CRLF
var paragraphBreak = regexp.MustCompile(`\r?\n[ \t\r]*\n`)

// Config configures a Chunker
type Config struct {
	domain.ChunkingConfig

	Tokenizer driven.Tokenizer
	Splitter  driven.SentenceSplitter
	Pipeline  *Pipeline
	Logger    *slog.Logger
}

// Verify interface compliance
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits segments into chunks using the configured strategy.
// Safe for concurrent use if its tokenizer and splitter are.
type Chunker struct {
	cfg       domain.ChunkingConfig
	tokenizer driven.Tokenizer
	splitter  driven.SentenceSplitter
	pipeline  *Pipeline
	logger    *slog.Logger
}

// New creates a Chunker. Returns ErrChunkConfigInvalid for unusable sizes.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.ChunkingConfig.Validate(); err != nil {
		return nil, err
	}
	if cfg.Tokenizer == nil {
		return nil, fmt.Errorf("%w: tokenizer is required", domain.ErrChunkConfigInvalid)
	}
	if cfg.Splitter == nil && cfg.Strategy != domain.ChunkStrategyFixed {
		return nil, fmt.Errorf("%w: sentence splitter is required for %s chunking", domain.ErrChunkConfigInvalid, cfg.Strategy)
	}
	if cfg.Pipeline == nil {
		cfg.Pipeline = DefaultPipeline()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Chunker{
		cfg:       cfg.ChunkingConfig,
		tokenizer: cfg.Tokenizer,
		splitter:  cfg.Splitter,
		pipeline:  cfg.Pipeline,
		logger:    cfg.Logger,
	}, nil
}

// Strategy returns the configured strategy
func (c *Chunker) Strategy() domain.ChunkStrategy {
	return c.cfg.Strategy
}

// Chunk converts a document's segments into chunks in document order.
// Empty segments are dropped before chunking.
func (c *Chunker) Chunk(base domain.ChunkBase, segments []domain.Segment) []*domain.Chunk {
	var chunks []*domain.Chunk
	seq := 0
	for _, seg := range segments {
		if seg.IsEmpty() {
			continue
		}
		switch c.cfg.Strategy {
		case domain.ChunkStrategyFixed:
			chunks = append(chunks, c.FixedWindow(base, seg, &seq)...)
		case domain.ChunkStrategySemantic:
			chunks = append(chunks, c.Semantic(base, seg)...)
		default:
			chunks = append(chunks, c.Hierarchical(base, seg)...)
		}
	}

	chunks = c.pipeline.Process(chunks)
	c.logger.Debug("chunked document",
		"document_id", base.DocumentID,
		"strategy", c.cfg.Strategy,
		"segments", len(segments),
		"chunks", len(chunks),
	)
	return chunks
}

// FixedWindow slides a window of ChunkSize tokens over the segment text,
// advancing by ChunkSize-ChunkOverlap tokens. seq numbers chunks across a document.
func (c *Chunker) FixedWindow(base domain.ChunkBase, seg domain.Segment, seq *int) []*domain.Chunk {
	tokens := c.tokenizer.Encode(seg.Text)
	step := c.cfg.ChunkSize - c.cfg.ChunkOverlap

	var chunks []*domain.Chunk
	for start := 0; start < len(tokens); start += step {
		end := start + c.cfg.ChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		text := c.tokenizer.Decode(tokens[start:end])
		if strings.TrimSpace(text) != "" {
			chunk := domain.NewChunk(base, seg, text)
			chunk.ChunkID = "chunk_" + strconv.Itoa(*seq)
			chunk.TokenCount = end - start
			chunk.StartToken = domain.IntPtr(start)
			chunk.EndToken = domain.IntPtr(end)
			chunks = append(chunks, chunk)
			*seq++
		}

		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// Semantic packs the segment's paragraphs, or the sentences of oversized
// paragraphs, into chunks of at most ChunkSize tokens.
func (c *Chunker) Semantic(base domain.ChunkBase, seg domain.Segment) []*domain.Chunk {
	var units []string
	for _, para := range SplitParagraphs(seg.Text) {
		if c.tokenizer.Count(para) > c.cfg.ChunkSize {
			units = append(units, c.splitter.Split(para)...)
			continue
		}
		units = append(units, para)
	}

	label := seg.Label()
	var chunks []*domain.Chunk
	for i, packed := range c.pack(units) {
		chunk := domain.NewChunk(base, seg, packed.text)
		chunk.ChunkID = label + "_s" + strconv.Itoa(i)
		chunk.Granularity = domain.GranularitySemantic
		chunk.TokenCount = packed.tokens
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Hierarchical emits one section chunk for the whole segment followed by one
// chunk per paragraph. A paragraph over ChunkSize tokens is replaced by its
// semantic sub-chunks.
func (c *Chunker) Hierarchical(base domain.ChunkBase, seg domain.Segment) []*domain.Chunk {
	label := seg.Label()
	text := strings.TrimSpace(seg.Text)

	section := domain.NewChunk(base, seg, text)
	section.ChunkID = label + "_full"
	section.Granularity = domain.GranularitySection
	section.TokenCount = c.tokenizer.Count(text)
	chunks := []*domain.Chunk{section}

	for i, para := range SplitParagraphs(text) {
		paraID := label + "_p" + strconv.Itoa(i)
		tokens := c.tokenizer.Count(para)

		if tokens <= c.cfg.ChunkSize {
			chunk := domain.NewChunk(base, seg, para)
			chunk.ChunkID = paraID
			chunk.Granularity = domain.GranularityParagraph
			chunk.ParagraphIndex = domain.IntPtr(i)
			chunk.TokenCount = tokens
			chunks = append(chunks, chunk)
			continue
		}

		for j, packed := range c.pack(c.splitter.Split(para)) {
			chunk := domain.NewChunk(base, seg, packed.text)
			chunk.ChunkID = paraID + "_s" + strconv.Itoa(j)
			chunk.Granularity = domain.GranularitySemantic
			chunk.ParagraphIndex = domain.IntPtr(i)
			chunk.TokenCount = packed.tokens
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

type packedUnit struct {
	text   string
	tokens int
}

// pack greedily joins units with a single space while the running token total
// stays within ChunkSize. A pending chunk below MinChunkSize is not closed on
// overflow; it carries into the next chunk instead. The final partial chunk is
// always emitted.
func (c *Chunker) pack(units []string) []packedUnit {
	var out []packedUnit
	var current []string
	total := 0

	for _, unit := range units {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		n := c.tokenizer.Count(unit)
		if len(current) > 0 && total+n > c.cfg.ChunkSize && total >= c.cfg.MinChunkSize {
			out = append(out, packedUnit{text: strings.Join(current, " "), tokens: total})
			current = nil
			total = 0
		}
		current = append(current, unit)
		total += n
	}
	if len(current) > 0 {
		out = append(out, packedUnit{text: strings.Join(current, " "), tokens: total})
	}
	return out
}

// SplitParagraphs splits text on blank lines, dropping empty paragraphs
func SplitParagraphs(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
