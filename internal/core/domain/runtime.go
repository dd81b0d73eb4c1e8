package domain

import "sync"

// RuntimeConfig tracks which backing services are available at runtime.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	IndexBackend string // "qdrant", "chroma" or "memory"
	QueueBackend string // "redis", "postgres" or "memory"

	embeddingAvailable bool
	generatorAvailable bool
	indexAvailable     bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(indexBackend, queueBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		IndexBackend: indexBackend,
		QueueBackend: queueBackend,
	}
}

// EmbeddingAvailable returns whether the embedding model is loaded
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// GeneratorAvailable returns whether the generator answered its last health check
func (c *RuntimeConfig) GeneratorAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generatorAvailable
}

// IndexAvailable returns whether the vector index is reachable
func (c *RuntimeConfig) IndexAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexAvailable
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetGeneratorAvailable updates the generator availability flag
func (c *RuntimeConfig) SetGeneratorAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generatorAvailable = available
}

// SetIndexAvailable updates the index availability flag
func (c *RuntimeConfig) SetIndexAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexAvailable = available
}

// CanAnswer returns true if every service the chat pipeline needs is up
func (c *RuntimeConfig) CanAnswer() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable && c.generatorAvailable && c.indexAvailable
}

// CanIngest returns true if documents can be embedded and indexed
func (c *RuntimeConfig) CanIngest() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable && c.indexAvailable
}

// HealthStatus is the overall service health reported by the health endpoint
type HealthStatus struct {
	Status               string `json:"status"`
	GeneratorConnected   bool   `json:"generator_connected"`
	IndexConnected       bool   `json:"index_connected"`
	EmbeddingModelLoaded bool   `json:"embedding_model_loaded"`
}

// Healthy reports whether every dependency is up
func (h HealthStatus) Healthy() bool {
	return h.GeneratorConnected && h.IndexConnected && h.EmbeddingModelLoaded
}
