package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// EnvConfigPath names the environment variable holding the YAML config path
const EnvConfigPath = "TENDER_RAG_CONFIG"

// defaultJWTSecret is only acceptable for local development
const defaultJWTSecret = "development-secret-change-in-production"

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	AuthEnabled bool          `yaml:"auth_enabled"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	CORSOrigins []string      `yaml:"cors_origins"`
	ChatRPS     float64       `yaml:"chat_rps"`
	ChatBurst   int           `yaml:"chat_burst"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// StorageConfig selects the registry, queue and upload backends
type StorageConfig struct {
	Backend       string `yaml:"backend"` // memory or postgres
	DatabaseURL   string `yaml:"database_url"`
	RedisURL      string `yaml:"redis_url"`
	UploadDir     string `yaml:"upload_dir"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
}

// IndexConfig selects and configures the vector index
type IndexConfig struct {
	Backend    string `yaml:"backend"` // qdrant, chroma or memory
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// RetrievalConfig tunes the query pipeline
type RetrievalConfig struct {
	TopK               int     `yaml:"top_k"`
	RerankingFactor    int     `yaml:"reranking_factor"`
	MaxRetrievalK      int     `yaml:"max_retrieval_k"`
	HybridKeywordBonus float64 `yaml:"hybrid_keyword_bonus"`
}

// WorkerConfig tunes background ingestion
type WorkerConfig struct {
	Concurrency    int `yaml:"concurrency"`
	DequeueTimeout int `yaml:"dequeue_timeout"` // seconds
	EmbedBatchSize int `yaml:"embed_batch_size"`
}

// Config is the complete process configuration
type Config struct {
	Server    ServerConfig             `yaml:"server"`
	Log       LogConfig                `yaml:"log"`
	Storage   StorageConfig            `yaml:"storage"`
	Index     IndexConfig              `yaml:"index"`
	Embedding domain.EmbeddingSettings `yaml:"embedding"`
	Generator domain.GeneratorSettings `yaml:"generator"`
	Chunking  domain.ChunkingConfig    `yaml:"chunking"`
	Retrieval RetrievalConfig          `yaml:"retrieval"`
	Worker    WorkerConfig             `yaml:"worker"`

	// PDFLicenseKey is the UniDoc metered license key
	PDFLicenseKey string `yaml:"pdf_license_key"`

	// WatchDir is ingested continuously when set
	WatchDir string `yaml:"watch_dir"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			AuthEnabled: true,
			JWTSecret:   defaultJWTSecret,
			TokenTTL:    24 * time.Hour,
			CORSOrigins: []string{"*"},
			ChatRPS:     2,
			ChatBurst:   5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Backend:       "memory",
			UploadDir:     "uploads",
			MaxFileSizeMB: 100,
		},
		Index: IndexConfig{
			Backend:    "qdrant",
			Collection: "tender_documents",
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   domain.AIProviderOllama,
			Model:      "bge-m3",
			BaseURL:    "http://localhost:11434",
			Dimensions: domain.EmbeddingDimensions,
		},
		Generator: domain.GeneratorSettings{
			Provider:    domain.AIProviderOllama,
			Model:       "llama3.1:8b-instruct-q4_0",
			BaseURL:     "http://localhost:11434",
			Temperature: 0.7,
			MaxTokens:   500,
			Timeout:     120 * time.Second,
		},
		Chunking: domain.DefaultChunkingConfig(),
		Retrieval: RetrievalConfig{
			TopK:               5,
			RerankingFactor:    3,
			MaxRetrievalK:      15,
			HybridKeywordBonus: 0.1,
		},
		Worker: WorkerConfig{
			Concurrency:    2,
			DequeueTimeout: 5,
			EmbedBatchSize: 32,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory is loaded first if present. An empty path falls back to
// $TENDER_RAG_CONFIG.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with any environment variables that are set
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.AuthEnabled = getEnvBool("AUTH_ENABLED", c.Server.AuthEnabled)
	c.Server.JWTSecret = getEnv("JWT_SECRET", c.Server.JWTSecret)
	c.Server.TokenTTL = getEnvDuration("TOKEN_TTL", c.Server.TokenTTL)
	c.Server.CORSOrigins = getEnvList("CORS_ORIGINS", c.Server.CORSOrigins)
	c.Server.ChatRPS = getEnvFloat("CHAT_RPS", c.Server.ChatRPS)
	c.Server.ChatBurst = getEnvInt("CHAT_BURST", c.Server.ChatBurst)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.DatabaseURL = getEnv("DATABASE_URL", c.Storage.DatabaseURL)
	c.Storage.RedisURL = getEnv("REDIS_URL", c.Storage.RedisURL)
	c.Storage.UploadDir = getEnv("UPLOAD_DIR", c.Storage.UploadDir)
	c.Storage.MaxFileSizeMB = getEnvInt("MAX_FILE_SIZE_MB", c.Storage.MaxFileSizeMB)

	c.Index.Backend = getEnv("INDEX_BACKEND", c.Index.Backend)
	c.Index.URL = getEnv("INDEX_URL", getEnv("QDRANT_URL", c.Index.URL))
	c.Index.APIKey = getEnv("INDEX_API_KEY", getEnv("QDRANT_API_KEY", c.Index.APIKey))
	c.Index.Collection = getEnv("COLLECTION_NAME", c.Index.Collection)

	ollamaURL := getEnv("OLLAMA_BASE_URL", "")

	c.Embedding.Provider = domain.AIProvider(getEnv("EMBEDDING_PROVIDER", string(c.Embedding.Provider)))
	c.Embedding.Model = getEnv("EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.APIKey = getEnv("EMBEDDING_API_KEY", c.Embedding.APIKey)
	c.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.Dimensions = getEnvInt("EMBEDDING_DIMENSIONS", c.Embedding.Dimensions)
	if ollamaURL != "" && c.Embedding.Provider == domain.AIProviderOllama && os.Getenv("EMBEDDING_BASE_URL") == "" {
		c.Embedding.BaseURL = ollamaURL
	}

	c.Generator.Provider = domain.AIProvider(getEnv("LLM_PROVIDER", string(c.Generator.Provider)))
	c.Generator.Model = getEnv("LLM_MODEL", c.Generator.Model)
	c.Generator.APIKey = getEnv("LLM_API_KEY", c.Generator.APIKey)
	c.Generator.BaseURL = getEnv("LLM_BASE_URL", c.Generator.BaseURL)
	c.Generator.Temperature = getEnvFloat("LLM_TEMPERATURE", c.Generator.Temperature)
	c.Generator.MaxTokens = getEnvInt("LLM_MAX_TOKENS", c.Generator.MaxTokens)
	c.Generator.Timeout = time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", int(c.Generator.Timeout/time.Second))) * time.Second
	if ollamaURL != "" && c.Generator.Provider == domain.AIProviderOllama && os.Getenv("LLM_BASE_URL") == "" {
		c.Generator.BaseURL = ollamaURL
	}

	c.Chunking.Strategy = domain.ChunkStrategy(getEnv("CHUNK_STRATEGY", string(c.Chunking.Strategy)))
	c.Chunking.ChunkSize = getEnvInt("CHUNK_SIZE", c.Chunking.ChunkSize)
	c.Chunking.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", c.Chunking.ChunkOverlap)
	c.Chunking.MinChunkSize = getEnvInt("MIN_CHUNK_SIZE", c.Chunking.MinChunkSize)

	c.Retrieval.TopK = getEnvInt("TOP_K", c.Retrieval.TopK)
	c.Retrieval.RerankingFactor = getEnvInt("RERANKING_FACTOR", c.Retrieval.RerankingFactor)
	c.Retrieval.MaxRetrievalK = getEnvInt("MAX_RETRIEVAL_K", c.Retrieval.MaxRetrievalK)
	c.Retrieval.HybridKeywordBonus = getEnvFloat("HYBRID_KEYWORD_BONUS", c.Retrieval.HybridKeywordBonus)

	c.Worker.Concurrency = getEnvInt("WORKER_CONCURRENCY", c.Worker.Concurrency)
	c.Worker.DequeueTimeout = getEnvInt("WORKER_DEQUEUE_TIMEOUT", c.Worker.DequeueTimeout)
	c.Worker.EmbedBatchSize = getEnvInt("EMBED_BATCH_SIZE", c.Worker.EmbedBatchSize)

	c.PDFLicenseKey = getEnv("UNIDOC_LICENSE_API_KEY", c.PDFLicenseKey)
	c.WatchDir = getEnv("WATCH_DIR", c.WatchDir)
}

// applyDefaults fills values that depend on other settings
func (c *Config) applyDefaults() {
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	c.Index.Backend = strings.ToLower(c.Index.Backend)

	if c.Index.URL == "" {
		switch c.Index.Backend {
		case "qdrant":
			c.Index.URL = "http://localhost:6333"
		case "chroma":
			c.Index.URL = "http://localhost:8000"
		}
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = domain.EmbeddingDimensions
	}
}

// MaxFileSize returns the upload limit in bytes
func (c *Config) MaxFileSize() int64 {
	return int64(c.Storage.MaxFileSizeMB) << 20
}

// Validate rejects configurations the process cannot start with
func (c *Config) Validate() error {
	if err := c.Chunking.Validate(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidInput, c.Server.Port)
	}
	if c.Server.AuthEnabled && c.Server.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET is required when auth is enabled", domain.ErrInvalidInput)
	}
	if c.Storage.MaxFileSizeMB <= 0 {
		return fmt.Errorf("%w: max file size must be positive", domain.ErrInvalidInput)
	}
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres backend", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, c.Storage.Backend)
	}
	switch c.Index.Backend {
	case "qdrant", "chroma", "memory":
	default:
		return fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, c.Index.Backend)
	}
	if c.Embedding.Dimensions != domain.EmbeddingDimensions {
		return fmt.Errorf("%w: embedding dimensions must be %d, got %d", domain.ErrInvalidInput, domain.EmbeddingDimensions, c.Embedding.Dimensions)
	}
	if c.Retrieval.TopK < 1 || c.Retrieval.TopK > 50 {
		return fmt.Errorf("%w: top_k must be between 1 and 50, got %d", domain.ErrInvalidInput, c.Retrieval.TopK)
	}
	if c.Retrieval.HybridKeywordBonus < 0 {
		return fmt.Errorf("%w: hybrid keyword bonus must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// UsesDefaultSecret reports whether the JWT secret was never changed
func (c *Config) UsesDefaultSecret() bool {
	return c.Server.JWTSecret == defaultJWTSecret
}
