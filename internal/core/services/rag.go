package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driving"
)

// Ensure ragService implements ChatService
var _ driving.ChatService = (*ragService)(nil)

// RAGServiceConfig holds dependencies for the chat pipeline.
type RAGServiceConfig struct {
	Retriever   *Retriever
	Reranker    *Reranker
	Generator   driven.Generator
	DefaultTopK int
	Logger      *slog.Logger
}

// ragService runs one query through
// preprocessing → embedding → retrieving → reranking → generating.
// Every failure except a rerank failure ends the query with an apology answer.
type ragService struct {
	retriever   *Retriever
	reranker    *Reranker
	generator   driven.Generator
	defaultTopK int
	logger      *slog.Logger
}

// NewRAGService creates the chat pipeline.
func NewRAGService(cfg RAGServiceConfig) driving.ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topK := cfg.DefaultTopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &ragService{
		retriever:   cfg.Retriever,
		reranker:    cfg.Reranker,
		generator:   cfg.Generator,
		defaultTopK: topK,
		logger:      logger,
	}
}

// Ask answers a question with the non-streaming generator path.
func (s *ragService) Ask(ctx context.Context, req domain.QueryRequest) *domain.Answer {
	return s.run(ctx, req, nil)
}

// AskStream answers a question, forwarding generated text as it arrives.
func (s *ragService) AskStream(ctx context.Context, req domain.QueryRequest, onToken func(token string) error) *domain.Answer {
	return s.run(ctx, req, onToken)
}

func (s *ragService) run(ctx context.Context, req domain.QueryRequest, onToken func(string) error) (answer *domain.Answer) {
	start := time.Now()
	state := domain.StatePreprocessing

	defer func() {
		if r := recover(); r != nil {
			answer = s.fail(state, fmt.Errorf("internal error: %v", r))
		}
		s.logger.Info("query finished",
			"state", answer.State,
			"sources", len(answer.Sources),
			"duration", time.Since(start),
		)
	}()

	if strings.TrimSpace(req.Message) == "" {
		return s.fail(state, fmt.Errorf("%w: empty message", domain.ErrInvalidInput))
	}

	query := PreprocessQuery(req.Message)
	topK := req.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}

	filter, ok := req.EffectiveFilter()
	if !ok {
		return noRelevantInformation()
	}

	state = domain.StateEmbedding
	vector, err := s.retriever.EmbedQuery(ctx, query)
	if err != nil {
		return s.fail(state, err)
	}

	state = domain.StateRetrieving
	candidates, err := s.retriever.Search(ctx, vector, filter, topK)
	if err != nil {
		return s.fail(state, err)
	}
	if len(candidates) == 0 {
		return noRelevantInformation()
	}

	state = domain.StateReranking
	var ranked []domain.Candidate
	if req.Hybrid {
		ranked = s.reranker.Hybrid(query, candidates, topK)
	} else {
		ranked, err = s.reranker.Rerank(ctx, vector, candidates, topK)
		if err != nil {
			s.logger.Warn("rerank failed, using retrieval order", "error", err)
			ranked = Fallback(candidates, topK)
		}
	}

	state = domain.StateGenerating
	prompt := BuildPrompt(query, ranked)
	text, err := s.generate(ctx, prompt, onToken)
	if err != nil {
		return s.fail(state, err)
	}

	sources := make([]domain.Source, len(ranked))
	for i, c := range ranked {
		sources[i] = domain.NewSource(c)
	}
	return &domain.Answer{
		Text:    text,
		Sources: sources,
		State:   domain.StateDone,
	}
}

func (s *ragService) generate(ctx context.Context, prompt string, onToken func(string) error) (string, error) {
	if s.generator == nil {
		return "", fmt.Errorf("%w: no generator configured", domain.ErrGenerationFailed)
	}

	var text string
	var err error
	if onToken == nil {
		text, err = s.generator.Generate(ctx, prompt)
	} else {
		var b strings.Builder
		err = s.generator.GenerateStream(ctx, prompt, func(token string) error {
			b.WriteString(token)
			return onToken(token)
		})
		text = b.String()
	}
	if err == nil {
		return text, nil
	}
	if errors.Is(err, domain.ErrGenerationFailed) || errors.Is(err, domain.ErrGenerationTimeout) {
		return "", err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationTimeout, err)
	}
	return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
}

func (s *ragService) fail(state domain.PipelineState, err error) *domain.Answer {
	s.logger.Error("query failed", "state", state, "error", err)
	return &domain.Answer{
		Text:    domain.ApologyAnswer(err),
		Sources: []domain.Source{},
		State:   domain.StateErrored,
		Err:     err,
	}
}

func noRelevantInformation() *domain.Answer {
	return &domain.Answer{
		Text:    domain.NoRelevantInformationAnswer,
		Sources: []domain.Source{},
		State:   domain.StateDone,
	}
}
