package domain

import "time"

// AIProvider identifies an embedding or generation backend
type AIProvider string

const (
	AIProviderOllama AIProvider = "ollama"
	AIProviderOpenAI AIProvider = "openai"
	AIProviderGemini AIProvider = "gemini"
)

// EmbeddingDimensions is the vector size every index collection is created with
const EmbeddingDimensions = 1024

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider   AIProvider `yaml:"provider" json:"provider"`
	Model      string     `yaml:"model" json:"model"`
	APIKey     string     `yaml:"api_key" json:"-"`
	BaseURL    string     `yaml:"base_url" json:"base_url,omitempty"`
	Dimensions int        `yaml:"dimensions" json:"dimensions"`
}

// IsConfigured reports whether enough settings are present to build a client
func (s *EmbeddingSettings) IsConfigured() bool {
	if s.Provider == "" || s.Model == "" {
		return false
	}
	if s.Provider == AIProviderOpenAI && s.APIKey == "" {
		return false
	}
	return true
}

// GeneratorSettings configures the answer generator
type GeneratorSettings struct {
	Provider    AIProvider    `yaml:"provider" json:"provider"`
	Model       string        `yaml:"model" json:"model"`
	APIKey      string        `yaml:"api_key" json:"-"`
	BaseURL     string        `yaml:"base_url" json:"base_url,omitempty"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// IsConfigured reports whether enough settings are present to build a client
func (s *GeneratorSettings) IsConfigured() bool {
	if s.Provider == "" || s.Model == "" {
		return false
	}
	switch s.Provider {
	case AIProviderOpenAI, AIProviderGemini:
		return s.APIKey != ""
	}
	return true
}
