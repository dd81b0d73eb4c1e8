package chunking

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// Processor transforms chunks after they are cut from segments
type Processor interface {
	// Process returns the transformed chunks
	Process(chunks []*domain.Chunk) []*domain.Chunk

	// Name returns the processor name
	Name() string

	// Order controls position in the pipeline (lower runs first)
	Order() int
}

// Pipeline chains processors in Order() order.
type Pipeline struct {
	mu         sync.RWMutex
	processors []Processor
	sorted     bool
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]Processor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor Processor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order.
func (p *Pipeline) Process(chunks []*domain.Chunk) []*domain.Chunk {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	processors := make([]Processor, len(p.processors))
	copy(processors, p.processors)
	p.mu.Unlock()

	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}
	return chunks
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// DefaultPipeline normalises text, drops empty chunks, makes chunk ids unique
// and numbers chunks in document order.
func DefaultPipeline() *Pipeline {
	p := NewPipeline()
	p.Add(NewWhitespaceNormalizer())
	p.Add(NewIDDeduplicator())
	p.Add(NewPositionAssigner())
	return p
}

// WhitespaceNormalizer normalises line endings and drops chunks left empty.
type WhitespaceNormalizer struct{}

// Verify interface compliance
var _ Processor = (*WhitespaceNormalizer)(nil)

// NewWhitespaceNormalizer creates a new whitespace normalizer.
func NewWhitespaceNormalizer() *WhitespaceNormalizer {
	return &WhitespaceNormalizer{}
}

// Process normalizes whitespace in chunks.
func (w *WhitespaceNormalizer) Process(chunks []*domain.Chunk) []*domain.Chunk {
	result := make([]*domain.Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		content := chunk.Text
		content = strings.ReplaceAll(content, "\r\n", "\n")
		content = strings.ReplaceAll(content, "\r", "\n")

		// Remove excessive blank lines
		for strings.Contains(content, "\n\n\n") {
			content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
		}

		if strings.TrimSpace(content) == "" {
			continue
		}
		chunk.Text = content
		result = append(result, chunk)
	}

	return result
}

// Name returns the processor name.
func (w *WhitespaceNormalizer) Name() string {
	return "whitespace-normalizer"
}

// Order returns 0 - runs first.
func (w *WhitespaceNormalizer) Order() int {
	return 0
}

// IDDeduplicator makes (chunkId, granularity) unique within one document by
// appending _<n> to the second and later occurrences.
type IDDeduplicator struct{}

// Verify interface compliance
var _ Processor = (*IDDeduplicator)(nil)

// NewIDDeduplicator creates a new id deduplicator.
func NewIDDeduplicator() *IDDeduplicator {
	return &IDDeduplicator{}
}

// Process renames duplicate chunk ids.
func (d *IDDeduplicator) Process(chunks []*domain.Chunk) []*domain.Chunk {
	seen := make(map[string]int, len(chunks))
	key := func(c *domain.Chunk) string {
		return string(c.Granularity) + "\x00" + c.ChunkID
	}

	for _, chunk := range chunks {
		k := key(chunk)
		seen[k]++
		if seen[k] == 1 {
			continue
		}

		base := chunk.ChunkID
		for n := seen[k]; ; n++ {
			chunk.ChunkID = base + "_" + strconv.Itoa(n)
			if _, taken := seen[key(chunk)]; !taken {
				break
			}
		}
		seen[key(chunk)] = 1
	}

	return chunks
}

// Name returns the processor name.
func (d *IDDeduplicator) Name() string {
	return "id-deduplicator"
}

// Order returns 10 - runs after normalisation.
func (d *IDDeduplicator) Order() int {
	return 10
}

// PositionAssigner numbers chunks in their final order.
type PositionAssigner struct{}

// Verify interface compliance
var _ Processor = (*PositionAssigner)(nil)

// NewPositionAssigner creates a new position assigner.
func NewPositionAssigner() *PositionAssigner {
	return &PositionAssigner{}
}

// Process sets Position on every chunk.
func (a *PositionAssigner) Process(chunks []*domain.Chunk) []*domain.Chunk {
	for i, chunk := range chunks {
		chunk.Position = i
	}
	return chunks
}

// Name returns the processor name.
func (a *PositionAssigner) Name() string {
	return "position-assigner"
}

// Order returns 100 - runs last.
func (a *PositionAssigner) Order() int {
	return 100
}
