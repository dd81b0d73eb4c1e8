package runtime

import (
	"context"
	"sync"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Services holds the process-wide embedder, generator and vector index.
// They are constructed once at startup and shared by every query and ingestion.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	embeddingService driven.EmbeddingService
	generator        driven.Generator
	vectorIndex      driven.VectorIndex
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// Generator returns the current generator (may be nil)
func (s *Services) Generator() driven.Generator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generator
}

// VectorIndex returns the current vector index (may be nil)
func (s *Services) VectorIndex() driven.VectorIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vectorIndex
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil && s.embeddingService != svc {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// SetGenerator updates the generator.
// Closes the old generator if present. Updates config flags.
func (s *Services) SetGenerator(gen driven.Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generator != nil && s.generator != gen {
		_ = s.generator.Close()
	}

	s.generator = gen
	s.config.SetGeneratorAvailable(gen != nil)
}

// SetVectorIndex updates the vector index.
// Closes the old index if present. Updates config flags.
func (s *Services) SetVectorIndex(idx driven.VectorIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vectorIndex != nil && s.vectorIndex != idx {
		_ = s.vectorIndex.Close()
	}

	s.vectorIndex = idx
	s.config.SetIndexAvailable(idx != nil)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	if s.generator != nil {
		_ = s.generator.Close()
		s.generator = nil
	}
	if s.vectorIndex != nil {
		_ = s.vectorIndex.Close()
		s.vectorIndex = nil
	}

	s.config.SetEmbeddingAvailable(false)
	s.config.SetGeneratorAvailable(false)
	s.config.SetIndexAvailable(false)

	return nil
}

// ValidateAndSetEmbedding validates connectivity before setting embedding service
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		s.SetEmbeddingService(nil)
		return nil
	}

	if err := svc.HealthCheck(ctx); err != nil {
		_ = svc.Close()
		return err
	}

	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetGenerator validates connectivity before setting the generator
func (s *Services) ValidateAndSetGenerator(ctx context.Context, gen driven.Generator) error {
	if gen == nil {
		s.SetGenerator(nil)
		return nil
	}

	if err := gen.HealthCheck(ctx); err != nil {
		_ = gen.Close()
		return err
	}

	s.SetGenerator(gen)
	return nil
}

// Refresh health-checks every service and updates the availability flags.
// Services stay registered when a check fails.
func (s *Services) Refresh(ctx context.Context) *domain.HealthStatus {
	s.mu.RLock()
	embedder, gen, idx := s.embeddingService, s.generator, s.vectorIndex
	s.mu.RUnlock()

	s.config.SetEmbeddingAvailable(embedder != nil && embedder.HealthCheck(ctx) == nil)
	s.config.SetGeneratorAvailable(gen != nil && gen.HealthCheck(ctx) == nil)
	s.config.SetIndexAvailable(idx != nil && idx.HealthCheck(ctx) == nil)

	status := &domain.HealthStatus{
		GeneratorConnected:   s.config.GeneratorAvailable(),
		IndexConnected:       s.config.IndexAvailable(),
		EmbeddingModelLoaded: s.config.EmbeddingAvailable(),
	}
	status.Status = "degraded"
	if status.Healthy() {
		status.Status = "healthy"
	}
	return status
}
