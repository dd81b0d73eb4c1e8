package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Ensure OpenAIGenerator implements Generator
var _ driven.Generator = (*OpenAIGenerator)(nil)

// DefaultOpenAIModel is the chat model used when none is configured
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIGenerator implements Generator with an OpenAI-compatible chat API
type OpenAIGenerator struct {
	llm  llms.Model
	opts generationOptions
}

// NewOpenAIGenerator creates a generator for OpenAI or any compatible endpoint
func NewOpenAIGenerator(settings *domain.GeneratorSettings) (*OpenAIGenerator, error) {
	if settings == nil || settings.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	opts := newGenerationOptions(settings, DefaultOpenAIModel)

	clientOpts := []openai.Option{
		openai.WithToken(settings.APIKey),
		openai.WithModel(opts.model),
	}
	if settings.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(settings.BaseURL))
	}

	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &OpenAIGenerator{llm: llm, opts: opts}, nil
}

// Generate returns the full completion for prompt
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.timeout)
	defer cancel()

	text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, g.callOptions()...)
	if err != nil {
		return "", generationError(ctx, err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateStream forwards each streamed chunk to onToken
func (g *OpenAIGenerator) GenerateStream(ctx context.Context, prompt string, onToken driven.TokenHandler) error {
	ctx, cancel := context.WithTimeout(ctx, g.opts.timeout)
	defer cancel()

	var handlerErr error
	opts := append(g.callOptions(), llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		if err := onToken(string(chunk)); err != nil {
			handlerErr = err
			return err
		}
		return nil
	}))

	_, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, opts...)
	if handlerErr != nil {
		return handlerErr
	}
	return generationError(ctx, err)
}

// Model returns the model name being used
func (g *OpenAIGenerator) Model() string {
	return g.opts.model
}

// HealthCheck sends a one-token completion
func (g *OpenAIGenerator) HealthCheck(ctx context.Context) error {
	_, err := llms.GenerateFromSinglePrompt(ctx, g.llm, "ping", llms.WithMaxTokens(1))
	return err
}

// Close is a no-op
func (g *OpenAIGenerator) Close() error {
	return nil
}

func (g *OpenAIGenerator) callOptions() []llms.CallOption {
	return []llms.CallOption{
		llms.WithTemperature(g.opts.temperature),
		llms.WithMaxTokens(g.opts.maxTokens),
	}
}
