package driven

import (
	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// AIServiceFactory creates AI services based on configuration
type AIServiceFactory interface {
	// CreateEmbeddingService creates an embedding service from settings
	// Returns nil, nil if settings are not configured
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)

	// CreateGenerator creates an answer generator from settings
	// Returns nil, nil if settings are not configured
	CreateGenerator(settings *domain.GeneratorSettings) (Generator, error)
}
