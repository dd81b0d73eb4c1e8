package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration
type Factory struct{}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateEmbeddingService creates an embedding service from settings.
// Returns nil, nil when settings are missing so callers can run degraded.
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL, settings.Dimensions)
	case domain.AIProviderOllama:
		return NewOllamaEmbedding(settings.BaseURL, settings.Model, settings.Dimensions)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateGenerator creates an answer generator from settings.
// Returns nil, nil when settings are missing so callers can run degraded.
func (f *Factory) CreateGenerator(settings *domain.GeneratorSettings) (driven.Generator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		gen driven.Generator
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		gen, err = NewOllamaGenerator(settings)
	case domain.AIProviderOpenAI:
		gen, err = NewOpenAIGenerator(settings)
	case domain.AIProviderGemini:
		gen, err = NewGeminiGenerator(context.Background(), settings)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return gen, nil
}
