package ai

import (
	"errors"
	"testing"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

func TestFactory_CreateEmbeddingService_NilSettings(t *testing.T) {
	svc, err := NewFactory().CreateEmbeddingService(nil)
	if err != nil {
		t.Errorf("expected no error for nil settings, got %v", err)
	}
	if svc != nil {
		t.Error("expected nil service for nil settings")
	}
}

func TestFactory_CreateEmbeddingService_NotConfigured(t *testing.T) {
	// OpenAI without a key is not configured
	svc, err := NewFactory().CreateEmbeddingService(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "text-embedding-3-large",
	})
	if err != nil {
		t.Errorf("expected no error for unconfigured settings, got %v", err)
	}
	if svc != nil {
		t.Error("expected nil service for unconfigured settings")
	}
}

func TestFactory_CreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		wantType string
	}{
		{
			name:     "openai",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, Model: "text-embedding-3-large", APIKey: "sk-test"},
			wantType: "openai",
		},
		{
			name:     "ollama",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "bge-m3"},
			wantType: "ollama",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewFactory().CreateEmbeddingService(tt.settings)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch tt.wantType {
			case "openai":
				if _, ok := svc.(*OpenAIEmbedding); !ok {
					t.Errorf("expected *OpenAIEmbedding, got %T", svc)
				}
			case "ollama":
				if _, ok := svc.(*OllamaEmbedding); !ok {
					t.Errorf("expected *OllamaEmbedding, got %T", svc)
				}
			}
			if svc.Dimensions() != domain.EmbeddingDimensions {
				t.Errorf("expected %d dimensions, got %d", domain.EmbeddingDimensions, svc.Dimensions())
			}
		})
	}
}

func TestFactory_CreateEmbeddingService_InvalidProvider(t *testing.T) {
	_, err := NewFactory().CreateEmbeddingService(&domain.EmbeddingSettings{Provider: "gemini", Model: "x"})
	if !errors.Is(err, domain.ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestFactory_CreateGenerator_NilSettings(t *testing.T) {
	gen, err := NewFactory().CreateGenerator(nil)
	if err != nil || gen != nil {
		t.Errorf("expected nil, nil; got %v, %v", gen, err)
	}
}

func TestFactory_CreateGenerator(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.GeneratorSettings
		check    func(driven.Generator) bool
	}{
		{
			name:     "ollama",
			settings: &domain.GeneratorSettings{Provider: domain.AIProviderOllama, Model: "llama3.1"},
			check:    func(g driven.Generator) bool { _, ok := g.(*OllamaGenerator); return ok },
		},
		{
			name:     "openai",
			settings: &domain.GeneratorSettings{Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-test"},
			check:    func(g driven.Generator) bool { _, ok := g.(*OpenAIGenerator); return ok },
		},
		{
			name:     "gemini",
			settings: &domain.GeneratorSettings{Provider: domain.AIProviderGemini, Model: "gemini-2.5-flash", APIKey: "key"},
			check:    func(g driven.Generator) bool { _, ok := g.(*GeminiGenerator); return ok },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewFactory().CreateGenerator(tt.settings)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(gen) {
				t.Errorf("unexpected generator type %T", gen)
			}
			if gen.Model() != tt.settings.Model {
				t.Errorf("expected model %s, got %s", tt.settings.Model, gen.Model())
			}
		})
	}
}

func TestFactory_CreateGenerator_InvalidProvider(t *testing.T) {
	_, err := NewFactory().CreateGenerator(&domain.GeneratorSettings{Provider: "anthropic", Model: "x"})
	if !errors.Is(err, domain.ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}
}
