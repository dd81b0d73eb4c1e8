package driving

import (
	"context"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// ChatService answers questions over the indexed documents
type ChatService interface {
	// Ask runs the full query pipeline. It never returns an error: failures
	// are reported as an apology answer with no sources.
	Ask(ctx context.Context, req domain.QueryRequest) *domain.Answer

	// AskStream runs the pipeline and streams generated text to onToken.
	// The returned answer carries the full text and the cited sources.
	AskStream(ctx context.Context, req domain.QueryRequest, onToken func(token string) error) *domain.Answer
}

// HealthService reports the availability of backing services
type HealthService interface {
	// Check health-checks the embedder, generator and vector index
	Check(ctx context.Context) *domain.HealthStatus
}
