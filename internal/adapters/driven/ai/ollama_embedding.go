package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Ensure OllamaEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*OllamaEmbedding)(nil)

// DefaultOllamaEmbeddingModel produces 1024-dimensional vectors
const DefaultOllamaEmbeddingModel = "bge-m3"

// OllamaEmbedding implements EmbeddingService with Ollama's /api/embed endpoint
type OllamaEmbedding struct {
	ollamaClient
	model      string
	dimensions int
}

// NewOllamaEmbedding creates an embedding service backed by a local Ollama server
func NewOllamaEmbedding(baseURL, model string, dimensions int) (*OllamaEmbedding, error) {
	if model == "" {
		model = DefaultOllamaEmbeddingModel
	}
	if dimensions <= 0 {
		dimensions = domain.EmbeddingDimensions
	}
	return &OllamaEmbedding{
		ollamaClient: newOllamaClient(baseURL, &http.Client{Timeout: 120 * time.Second}),
		model:        model,
		dimensions:   dimensions,
	}, nil
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed generates normalized embeddings for multiple texts, in input order
func (e *OllamaEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.post(ctx, "/api/embed", ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(out.Embeddings), len(texts))
	}
	for i, v := range out.Embeddings {
		if len(v) != e.dimensions {
			return nil, fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(v), e.dimensions)
		}
		normalize(v)
	}
	return out.Embeddings, nil
}

// EmbedQuery generates an embedding for a search query
func (e *OllamaEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the embedding dimension size
func (e *OllamaEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *OllamaEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies Ollama is up and the embedding model is installed
func (e *OllamaEmbedding) HealthCheck(ctx context.Context) error {
	return e.hasModel(ctx, e.model)
}

// Close releases idle connections
func (e *OllamaEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
