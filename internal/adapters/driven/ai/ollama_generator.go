package ai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Ensure OllamaGenerator implements Generator
var _ driven.Generator = (*OllamaGenerator)(nil)

// DefaultOllamaModel is the generation model used when none is configured
const DefaultOllamaModel = "llama3.1"

// OllamaGenerator implements Generator with Ollama's /api/generate endpoint
type OllamaGenerator struct {
	ollamaClient
	opts generationOptions
}

// NewOllamaGenerator creates a generator backed by a local Ollama server
func NewOllamaGenerator(settings *domain.GeneratorSettings) (*OllamaGenerator, error) {
	if settings == nil {
		settings = &domain.GeneratorSettings{}
	}
	return &OllamaGenerator{
		// The per-call context carries the timeout; streams may outlive a client timeout.
		ollamaClient: newOllamaClient(settings.BaseURL, &http.Client{}),
		opts:         newGenerationOptions(settings, DefaultOllamaModel),
	}, nil
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate returns the full completion for prompt
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.timeout)
	defer cancel()

	resp, err := g.post(ctx, "/api/generate", g.request(prompt, false))
	if err != nil {
		return "", generationError(ctx, err)
	}
	defer resp.Body.Close()

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", generationError(ctx, fmt.Errorf("failed to parse response: %w", err))
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", domain.ErrGenerationFailed, out.Error)
	}
	return strings.TrimSpace(out.Response), nil
}

// GenerateStream reads Ollama's newline-delimited JSON stream and forwards
// each response fragment to onToken.
func (g *OllamaGenerator) GenerateStream(ctx context.Context, prompt string, onToken driven.TokenHandler) error {
	ctx, cancel := context.WithTimeout(ctx, g.opts.timeout)
	defer cancel()

	resp, err := g.post(ctx, "/api/generate", g.request(prompt, true))
	if err != nil {
		return generationError(ctx, err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var part ollamaGenerateResponse
		if err := json.Unmarshal(line, &part); err != nil {
			return fmt.Errorf("%w: malformed stream line: %v", domain.ErrGenerationFailed, err)
		}
		if part.Error != "" {
			return fmt.Errorf("%w: %s", domain.ErrGenerationFailed, part.Error)
		}
		if part.Response != "" {
			if err := onToken(part.Response); err != nil {
				return err
			}
		}
		if part.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return generationError(ctx, err)
	}
	return generationError(ctx, errors.New("stream ended before completion"))
}

// Model returns the model name being used
func (g *OllamaGenerator) Model() string {
	return g.opts.model
}

// HealthCheck verifies Ollama is up and the generation model is installed
func (g *OllamaGenerator) HealthCheck(ctx context.Context) error {
	return g.hasModel(ctx, g.opts.model)
}

// Close releases idle connections
func (g *OllamaGenerator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

func (g *OllamaGenerator) request(prompt string, stream bool) ollamaGenerateRequest {
	return ollamaGenerateRequest{
		Model:  g.opts.model,
		Prompt: prompt,
		Stream: stream,
		Options: ollamaOptions{
			Temperature: g.opts.temperature,
			NumPredict:  g.opts.maxTokens,
		},
	}
}
