package domain

import "fmt"

// ChunkStrategy selects how segments are split into chunks
type ChunkStrategy string

const (
	ChunkStrategyFixed        ChunkStrategy = "fixed"
	ChunkStrategySemantic     ChunkStrategy = "semantic"
	ChunkStrategyHierarchical ChunkStrategy = "hierarchical"
)

// ChunkingConfig holds chunk sizing in tokens
type ChunkingConfig struct {
	Strategy     ChunkStrategy `yaml:"strategy" json:"strategy"`
	ChunkSize    int           `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap int           `yaml:"chunk_overlap" json:"chunk_overlap"`
	MinChunkSize int           `yaml:"min_chunk_size" json:"min_chunk_size"`
}

// DefaultChunkingConfig returns the production defaults
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		Strategy:     ChunkStrategyHierarchical,
		ChunkSize:    1000,
		ChunkOverlap: 100,
		MinChunkSize: 50,
	}
}

// Validate rejects configurations that cannot make progress
func (c ChunkingConfig) Validate() error {
	switch c.Strategy {
	case ChunkStrategyFixed, ChunkStrategySemantic, ChunkStrategyHierarchical:
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrChunkConfigInvalid, c.Strategy)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrChunkConfigInvalid, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrChunkConfigInvalid, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrChunkConfigInvalid, c.ChunkOverlap, c.ChunkSize)
	}
	if c.MinChunkSize < 0 {
		return fmt.Errorf("%w: min chunk size must not be negative, got %d", ErrChunkConfigInvalid, c.MinChunkSize)
	}
	return nil
}
