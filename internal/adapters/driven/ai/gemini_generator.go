package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Ensure GeminiGenerator implements Generator
var _ driven.Generator = (*GeminiGenerator)(nil)

// DefaultGeminiModel is the generation model used when none is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiGenerator implements Generator with the Gemini API
type GeminiGenerator struct {
	client *genai.Client
	opts   generationOptions
}

// NewGeminiGenerator creates a Gemini generator. BaseURL overrides the API
// endpoint, which is mostly useful against a proxy.
func NewGeminiGenerator(ctx context.Context, settings *domain.GeneratorSettings) (*GeminiGenerator, error) {
	if settings == nil || settings.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  settings.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if settings.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: settings.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		opts:   newGenerationOptions(settings, DefaultGeminiModel),
	}, nil
}

// Generate returns the full completion for prompt
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.opts.model, genai.Text(prompt), g.config())
	if err != nil {
		return "", generationError(ctx, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response from %s", domain.ErrGenerationFailed, g.opts.model)
	}
	return text, nil
}

// GenerateStream forwards each streamed text fragment to onToken
func (g *GeminiGenerator) GenerateStream(ctx context.Context, prompt string, onToken driven.TokenHandler) error {
	ctx, cancel := context.WithTimeout(ctx, g.opts.timeout)
	defer cancel()

	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.opts.model, genai.Text(prompt), g.config()) {
		if err != nil {
			return generationError(ctx, err)
		}
		if text := resp.Text(); text != "" {
			if err := onToken(text); err != nil {
				return err
			}
		}
	}
	return nil
}

// Model returns the model name being used
func (g *GeminiGenerator) Model() string {
	return g.opts.model
}

// HealthCheck looks up the configured model
func (g *GeminiGenerator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.opts.model, nil); err != nil {
		return fmt.Errorf("gemini model %s unavailable: %w", g.opts.model, err)
	}
	return nil
}

// Close is a no-op; the Gemini client holds no long-lived resources
func (g *GeminiGenerator) Close() error {
	return nil
}

func (g *GeminiGenerator) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.opts.temperature)),
		MaxOutputTokens: int32(g.opts.maxTokens),
	}
}
