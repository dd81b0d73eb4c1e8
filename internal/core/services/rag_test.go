package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven/mocks"
)

type ragFixture struct {
	embedder  *mocks.MockEmbeddingService
	index     *mocks.MockVectorIndex
	generator *mocks.MockGenerator
	svc       *ragService
}

func newRAGFixture() *ragFixture {
	embedder := mocks.NewMockEmbeddingService()
	index := mocks.NewMockVectorIndex()
	generator := mocks.NewMockGenerator()

	svc := NewRAGService(RAGServiceConfig{
		Retriever: NewRetriever(RetrieverConfig{Embedder: embedder, Index: index}),
		Reranker:  NewReranker(embedder, DefaultKeywordBonus),
		Generator: generator,
	}).(*ragService)

	return &ragFixture{embedder: embedder, index: index, generator: generator, svc: svc}
}

func indexedCandidates(n int) []domain.Candidate {
	out := make([]domain.Candidate, n)
	for i := range out {
		out[i] = domain.Candidate{
			Chunk: &domain.Chunk{
				Text:       strings.Repeat("clause ", i+1),
				DocumentID: "doc-1",
				Filename:   "tender.pdf",
				FileType:   domain.FileTypePDF,
				PageNumber: i + 1,
			},
			Score: 1 - float64(i)/10,
		}
	}
	return out
}

func TestRAGService_Ask(t *testing.T) {
	f := newRAGFixture()
	f.index.SetResults(indexedCandidates(8))
	f.generator.SetResponse("Bids close on 1 May [Context 1].")

	answer := f.svc.Ask(context.Background(), domain.QueryRequest{Message: "What is the RFP deadline?", TopK: 3})

	assert.Equal(t, domain.StateDone, answer.State)
	assert.Equal(t, "Bids close on 1 May [Context 1].", answer.Text)
	assert.Len(t, answer.Sources, 3)
	assert.NoError(t, answer.Err)

	_, limit := f.index.LastSearch()
	assert.Equal(t, 9, limit)
	assert.Contains(t, f.generator.LastPrompt(), "RFP (Request for Proposal)")
	assert.Equal(t, 1, f.embedder.QueryCalls(), "query is embedded once")
}

func TestRAGService_EmptyRetrieval(t *testing.T) {
	f := newRAGFixture()

	answer := f.svc.Ask(context.Background(), domain.QueryRequest{Message: "anything"})

	assert.Equal(t, domain.StateDone, answer.State)
	assert.Equal(t, domain.NoRelevantInformationAnswer, answer.Text)
	assert.NotNil(t, answer.Sources)
	assert.Empty(t, answer.Sources)
	assert.Empty(t, f.generator.Prompts(), "generator must not run without evidence")
}

func TestRAGService_DisjointDocumentFilters(t *testing.T) {
	f := newRAGFixture()
	f.index.SetResults(indexedCandidates(3))

	answer := f.svc.Ask(context.Background(), domain.QueryRequest{
		Message:     "anything",
		DocumentIDs: []string{"doc-2"},
		Filter:      domain.SearchFilter{DocumentIDs: []string{"doc-1"}},
	})

	assert.Equal(t, domain.StateDone, answer.State)
	assert.Equal(t, domain.NoRelevantInformationAnswer, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 0, f.index.SearchCalls())
	assert.Empty(t, f.generator.Prompts())
}

func TestRAGService_IntersectsDocumentFilters(t *testing.T) {
	f := newRAGFixture()
	f.index.SetResults(indexedCandidates(3))

	f.svc.Ask(context.Background(), domain.QueryRequest{
		Message:     "anything",
		DocumentIDs: []string{"doc-1", "doc-3"},
		Filter:      domain.SearchFilter{DocumentIDs: []string{"doc-1", "doc-2"}},
	})

	filter, _ := f.index.LastSearch()
	assert.Equal(t, []string{"doc-1"}, filter.DocumentIDs)
}

func TestRAGService_EmbeddingFailure(t *testing.T) {
	f := newRAGFixture()
	f.index.SetResults(indexedCandidates(2))
	f.embedder.SetFailAlways(true)

	answer := f.svc.Ask(context.Background(), domain.QueryRequest{Message: "anything"})

	assert.Equal(t, domain.StateErrored, answer.State)
	assert.ErrorIs(t, answer.Err, domain.ErrEmbeddingUnavailable)
	assert.True(t, strings.HasPrefix(answer.Text, "I apologize, but I encountered an error"))
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 0, f.index.SearchCalls())
}

func TestRAGService_RerankFailureFallsBack(t *testing.T) {
	f := newRAGFixture()
	candidates := indexedCandidates(6)
	f.index.SetResults(candidates)

	// The query embedding succeeds; the candidate batch embedding fails.
	f.embedder.SetFailAlways(true)

	svc := NewRAGService(RAGServiceConfig{
		Retriever: NewRetriever(RetrieverConfig{Embedder: queryOnlyEmbedder{f.embedder}, Index: f.index}),
		Reranker:  NewReranker(f.embedder, 0),
		Generator: f.generator,
	})

	answer := svc.Ask(context.Background(), domain.QueryRequest{Message: "anything", TopK: 2})

	require.Equal(t, domain.StateDone, answer.State)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, candidates[0].Score, answer.Sources[0].Score)
	assert.Equal(t, candidates[1].Score, answer.Sources[1].Score)
	assert.Equal(t, 1, answer.Sources[0].PageNumber)
	assert.Equal(t, 2, answer.Sources[1].PageNumber)
}

func TestRAGService_GenerationFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "timeout", err: domain.ErrGenerationTimeout, wantErr: domain.ErrGenerationTimeout},
		{name: "deadline", err: context.DeadlineExceeded, wantErr: domain.ErrGenerationTimeout},
		{name: "other", err: errors.New("model not found"), wantErr: domain.ErrGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRAGFixture()
			f.index.SetResults(indexedCandidates(3))
			f.generator.SetError(tt.err)

			answer := f.svc.Ask(context.Background(), domain.QueryRequest{Message: "q"})

			assert.Equal(t, domain.StateErrored, answer.State)
			assert.ErrorIs(t, answer.Err, tt.wantErr)
			assert.Contains(t, answer.Text, tt.err.Error())
			assert.Empty(t, answer.Sources)
		})
	}
}

func TestRAGService_EmptyMessage(t *testing.T) {
	f := newRAGFixture()
	answer := f.svc.Ask(context.Background(), domain.QueryRequest{Message: "  "})

	assert.Equal(t, domain.StateErrored, answer.State)
	assert.ErrorIs(t, answer.Err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.embedder.QueryCalls())
}

func TestRAGService_Hybrid(t *testing.T) {
	f := newRAGFixture()
	f.index.SetResults([]domain.Candidate{
		{Chunk: &domain.Chunk{Text: "unrelated", Filename: "a.pdf"}, Score: 0.5},
		{Chunk: &domain.Chunk{Text: "the warranty period and penalty", Filename: "b.pdf"}, Score: 0.45},
	})

	answer := f.svc.Ask(context.Background(), domain.QueryRequest{
		Message: "warranty period penalty",
		TopK:    2,
		Hybrid:  true,
	})

	require.Equal(t, domain.StateDone, answer.State)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "b.pdf", answer.Sources[0].DocumentName)
	assert.InDelta(t, 0.75, answer.Sources[0].Score, 1e-9)
}

func TestRAGService_AskStream(t *testing.T) {
	f := newRAGFixture()
	f.index.SetResults(indexedCandidates(2))
	f.generator.SetResponse("one two three")

	var tokens []string
	answer := f.svc.AskStream(context.Background(), domain.QueryRequest{Message: "q"}, func(token string) error {
		tokens = append(tokens, token)
		return nil
	})

	assert.Equal(t, domain.StateDone, answer.State)
	assert.Equal(t, "one two three", answer.Text)
	assert.Equal(t, "one two three", strings.Join(tokens, ""))
	assert.Len(t, answer.Sources, 2)
}

func TestRAGService_PanicIsAbsorbed(t *testing.T) {
	f := newRAGFixture()
	f.index.SetResults([]domain.Candidate{{Chunk: nil, Score: 1}})

	answer := f.svc.Ask(context.Background(), domain.QueryRequest{Message: "q"})

	assert.Equal(t, domain.StateErrored, answer.State)
	assert.Contains(t, answer.Text, "internal error")
	assert.Empty(t, answer.Sources)
}

// queryOnlyEmbedder answers queries even when the wrapped service is failing
type queryOnlyEmbedder struct {
	*mocks.MockEmbeddingService
}

func (q queryOnlyEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}
