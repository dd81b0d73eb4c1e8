package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/tender-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/tender-rag/internal/adapters/driven/auth"
	"github.com/custodia-labs/tender-rag/internal/adapters/driven/filestore"
	"github.com/custodia-labs/tender-rag/internal/adapters/driven/memory"
	"github.com/custodia-labs/tender-rag/internal/adapters/driven/postgres"
	postgresqueue "github.com/custodia-labs/tender-rag/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/custodia-labs/tender-rag/internal/adapters/driven/queue/redis"
	redisadapter "github.com/custodia-labs/tender-rag/internal/adapters/driven/redis"
	"github.com/custodia-labs/tender-rag/internal/adapters/driven/vectorindex/chroma"
	memoryindex "github.com/custodia-labs/tender-rag/internal/adapters/driven/vectorindex/memory"
	"github.com/custodia-labs/tender-rag/internal/adapters/driven/vectorindex/qdrant"
	"github.com/custodia-labs/tender-rag/internal/chunking"
	"github.com/custodia-labs/tender-rag/internal/config"
	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driving"
	"github.com/custodia-labs/tender-rag/internal/core/services"
	"github.com/custodia-labs/tender-rag/internal/extractors"
	"github.com/custodia-labs/tender-rag/internal/runtime"
	"github.com/custodia-labs/tender-rag/internal/tokenizer"
)

// App holds the wired services for one process
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Runtime   *runtime.Services
	Auth      driving.AuthService
	Users     driving.UserService
	Documents driving.DocumentService
	Chat      driving.ChatService
	Health    driving.HealthService
	Ingestion driving.IngestionService
	Queue     driven.TaskQueue // Nil for synchronous ingestion

	closers []func() error
}

// Close releases every backend connection, newest first
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type appOptions struct {
	// Synchronous skips the task queue; callers run ingestion themselves
	Synchronous bool
}

// newApp is replaced in tests
var newApp = buildApp

// stores groups the registry backends
type stores struct {
	documents driven.DocumentStore
	chunks    driven.ChunkStore
	users     driven.UserStore
	lock      driven.DistributedLock
	queue     driven.TaskQueue
}

// buildApp wires adapters and services from configuration. The vector index
// must bootstrap; AI backends that fail their first health check are kept and
// reported as degraded.
func buildApp(ctx context.Context, cfg *config.Config, opts appOptions) (*App, error) {
	app := &App{Config: cfg, Logger: slog.Default()}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	st, err := app.openStores(ctx, opts)
	if err != nil {
		return nil, err
	}
	app.Queue = st.queue

	files, err := filestore.NewLocal(cfg.Storage.UploadDir)
	if err != nil {
		return nil, err
	}

	// ===== Vector index =====
	index, err := newVectorIndex(cfg)
	if err != nil {
		return nil, err
	}
	if err := index.Bootstrap(ctx); err != nil {
		_ = index.Close()
		return nil, err
	}

	runtimeConfig := domain.NewRuntimeConfig(cfg.Index.Backend, queueBackend(cfg, opts))
	app.Runtime = runtime.NewServices(runtimeConfig)
	app.closers = append(app.closers, app.Runtime.Close)
	app.Runtime.SetVectorIndex(index)

	// ===== AI services =====
	factory := ai.NewFactory()
	embedder, err := factory.CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	app.Runtime.SetEmbeddingService(embedder)

	generator, err := factory.CreateGenerator(&cfg.Generator)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	app.Runtime.SetGenerator(generator)

	status := app.Runtime.Refresh(ctx)
	log.Printf("Runtime: index=%s queue=%s embedding=%t generator=%t index_connected=%t",
		runtimeConfig.IndexBackend, runtimeConfig.QueueBackend,
		status.EmbeddingModelLoaded, status.GeneratorConnected, status.IndexConnected)

	// ===== Document processing =====
	registry, err := extractors.DefaultRegistry(cfg.PDFLicenseKey, app.Logger)
	if err != nil {
		return nil, err
	}
	tok, err := tokenizer.New(tokenizer.DefaultEncoding)
	if err != nil {
		return nil, err
	}
	splitter, err := chunking.NewSentenceSplitter()
	if err != nil {
		return nil, err
	}
	chunker, err := chunking.New(chunking.Config{
		ChunkingConfig: cfg.Chunking,
		Tokenizer:      tok,
		Splitter:       splitter,
		Logger:         app.Logger,
	})
	if err != nil {
		return nil, err
	}

	// ===== Services =====
	app.Ingestion = services.NewIngestionOrchestrator(services.IngestionOrchestratorConfig{
		DocumentStore:  st.documents,
		ChunkStore:     st.chunks,
		FileStore:      files,
		Extractors:     registry,
		Chunker:        chunker,
		Embedder:       embedder,
		Index:          index,
		Lock:           st.lock,
		EmbedBatchSize: cfg.Worker.EmbedBatchSize,
		Logger:         app.Logger,
	})

	app.Documents = services.NewDocumentService(services.DocumentServiceConfig{
		DocumentStore: st.documents,
		ChunkStore:    st.chunks,
		FileStore:     files,
		Index:         index,
		TaskQueue:     st.queue,
		Lock:          st.lock,
		MaxFileSize:   cfg.MaxFileSize(),
		Logger:        app.Logger,
	})

	retriever := services.NewRetriever(services.RetrieverConfig{
		Embedder:        embedder,
		Index:           index,
		RerankingFactor: cfg.Retrieval.RerankingFactor,
		MaxRetrievalK:   cfg.Retrieval.MaxRetrievalK,
		Logger:          app.Logger,
	})
	app.Chat = services.NewRAGService(services.RAGServiceConfig{
		Retriever:   retriever,
		Reranker:    services.NewReranker(embedder, cfg.Retrieval.HybridKeywordBonus),
		Generator:   generator,
		DefaultTopK: cfg.Retrieval.TopK,
		Logger:      app.Logger,
	})

	authAdapter := auth.NewAdapter(cfg.Server.JWTSecret)
	app.Auth = services.NewAuthService(st.users, authAdapter, cfg.Server.TokenTTL)
	app.Users = services.NewUserService(st.users, authAdapter)
	app.Health = services.NewHealthService(app.Runtime)

	ok = true
	return app, nil
}

// openStores connects the registry, queue and lock backends. Redis, when
// configured, carries the queue and lock for either registry backend.
func (a *App) openStores(ctx context.Context, opts appOptions) (*stores, error) {
	cfg := a.Config
	st := &stores{}

	var redisClient *goredis.Client
	if cfg.Storage.RedisURL != "" {
		log.Println("Connecting to Redis...")
		client, err := redisadapter.NewClient(ctx, cfg.Storage.RedisURL)
		if err != nil {
			return nil, err
		}
		redisClient = client
		a.closers = append(a.closers, client.Close)
	}

	switch cfg.Storage.Backend {
	case "postgres":
		log.Println("Connecting to PostgreSQL...")
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.Storage.DatabaseURL))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.InitSchema(ctx); err != nil {
			return nil, err
		}

		st.documents = postgres.NewDocumentStore(db)
		st.chunks = postgres.NewChunkStore(db)
		st.users = postgres.NewUserStore(db)
		if redisClient != nil {
			st.lock = redisadapter.NewLock(redisClient)
		} else {
			st.lock = postgres.NewAdvisoryLock(db)
		}
		if !opts.Synchronous && redisClient == nil {
			st.queue = postgresqueue.NewQueue(db.DB)
		}

	default:
		st.documents = memory.NewDocumentStore()
		st.chunks = memory.NewChunkStore()
		st.users = memory.NewUserStore()
		if redisClient != nil {
			st.lock = redisadapter.NewLock(redisClient)
		} else {
			st.lock = memory.NewLock()
		}
		if !opts.Synchronous && redisClient == nil {
			st.queue = memory.NewQueue()
		}
	}

	if !opts.Synchronous && redisClient != nil {
		host, _ := os.Hostname()
		q, err := redisqueue.NewQueue(redisClient, fmt.Sprintf("%s-%d", host, os.Getpid()))
		if err != nil {
			return nil, err
		}
		st.queue = q
	}

	return st, nil
}

func newVectorIndex(cfg *config.Config) (driven.VectorIndex, error) {
	switch cfg.Index.Backend {
	case "chroma":
		return chroma.New(chroma.Config{
			URL:        cfg.Index.URL,
			Collection: cfg.Index.Collection,
			Logger:     slog.Default(),
		})
	case "memory":
		return memoryindex.New(cfg.Embedding.Dimensions), nil
	default:
		return qdrant.New(qdrant.Config{
			URL:        cfg.Index.URL,
			APIKey:     cfg.Index.APIKey,
			Collection: cfg.Index.Collection,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     slog.Default(),
		}), nil
	}
}

func queueBackend(cfg *config.Config, opts appOptions) string {
	switch {
	case opts.Synchronous:
		return "none"
	case cfg.Storage.RedisURL != "":
		return "redis"
	default:
		return cfg.Storage.Backend
	}
}
