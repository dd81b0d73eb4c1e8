// Package chroma implements the vector index on a Chroma server.
package chroma

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Ensure Index implements VectorIndex
var _ driven.VectorIndex = (*Index)(nil)

const (
	// DefaultURL is where a local Chroma listens
	DefaultURL = "http://localhost:8000"

	// overfetch widens the query when some predicates are applied after retrieval
	overfetch = 4
)

// Config holds Chroma connection settings.
type Config struct {
	URL               string
	Collection        string
	BootstrapAttempts int
	RetryDelay        time.Duration
	Logger            *slog.Logger
}

// Index stores points in one Chroma collection. Chroma's default squared-L2
// space is used; vectors are unit length so scores are recovered as cosine.
type Index struct {
	client     chromago.Client
	name       string
	attempts   int
	retryDelay time.Duration
	logger     *slog.Logger

	mu         sync.RWMutex
	collection chromago.Collection
}

// New creates a Chroma index client. Call Bootstrap before use.
func New(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = "tender_documents"
	}
	if cfg.BootstrapAttempts <= 0 {
		cfg.BootstrapAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	return &Index{
		client:     client,
		name:       cfg.Collection,
		attempts:   cfg.BootstrapAttempts,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger.With("component", "chroma", "collection", cfg.Collection),
	}, nil
}

// Bootstrap gets or creates the collection, retrying a fixed number of times.
func (s *Index) Bootstrap(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		collection, err := s.client.GetOrCreateCollection(ctx, s.name,
			chromago.WithCollectionMetadataCreate(
				chromago.NewMetadata(
					chromago.NewStringAttribute("description", "tender document chunks"),
				),
			),
		)
		if err == nil {
			s.mu.Lock()
			s.collection = collection
			s.mu.Unlock()
			return nil
		}
		lastErr = err
		s.logger.Warn("chroma bootstrap failed", "attempt", attempt, "error", err)
		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, ctx.Err())
		case <-time.After(s.retryDelay):
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, lastErr)
}

func (s *Index) coll() (chromago.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return nil, fmt.Errorf("%w: collection not bootstrapped", domain.ErrIndexUnavailable)
	}
	return s.collection, nil
}

// Upsert writes points in batches of at most MaxUpsertBatch
func (s *Index) Upsert(ctx context.Context, points []domain.Point) error {
	collection, err := s.coll()
	if err != nil {
		return err
	}

	for start := 0; start < len(points); start += driven.MaxUpsertBatch {
		end := min(start+driven.MaxUpsertBatch, len(points))
		batch := points[start:end]

		ids := make([]chromago.DocumentID, len(batch))
		texts := make([]string, len(batch))
		vectors := make([]embeddings.Embedding, len(batch))
		metas := make([]chromago.DocumentMetadata, len(batch))
		for i, p := range batch {
			ids[i] = chromago.DocumentID(strconv.FormatUint(p.ID, 10))
			texts[i] = p.Chunk.Text
			vectors[i] = embeddings.NewEmbeddingFromFloat32(p.Vector)
			metas[i] = metadataFor(p.Chunk)
		}

		if err := collection.Upsert(ctx,
			chromago.WithIDs(ids...),
			chromago.WithTexts(texts...),
			chromago.WithEmbeddings(vectors...),
			chromago.WithMetadatas(metas...),
		); err != nil {
			return fmt.Errorf("%w: upsert: %v", domain.ErrIndexUnavailable, err)
		}
	}
	return nil
}

// Search queries the collection. Document, file type and granularity
// predicates run in Chroma; section titles and token ranges are applied here.
func (s *Index) Search(ctx context.Context, vector []float32, filter domain.SearchFilter, limit int) ([]domain.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	collection, err := s.coll()
	if err != nil {
		return nil, err
	}

	n := limit
	if needsPostFilter(filter) {
		n = limit * overfetch
	}
	opts := []chromago.CollectionQueryOption{
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(n),
		chromago.WithIncludeQuery(chromago.IncludeDocuments, chromago.IncludeMetadatas, chromago.Include("distances")),
	}
	if where := whereFor(filter); where != nil {
		opts = append(opts, chromago.WithWhereQuery(where))
	}

	results, err := collection.Query(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrIndexUnavailable, err)
	}

	docGroups := results.GetDocumentsGroups()
	metaGroups := results.GetMetadatasGroups()
	distGroups := results.GetDistancesGroups()
	if len(docGroups) == 0 {
		return nil, nil
	}

	candidates := make([]domain.Candidate, 0, limit)
	for i, doc := range docGroups[0] {
		var meta chromago.DocumentMetadata
		if len(metaGroups) > 0 && i < len(metaGroups[0]) {
			meta = metaGroups[0][i]
		}
		chunk := chunkFromMetadata(doc.ContentString(), meta)
		if !filter.Matches(chunk) {
			continue
		}
		var score float64
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			score = scoreFromDistance(float64(distGroups[0][i]))
		}
		candidates = append(candidates, domain.Candidate{Chunk: chunk, Score: score})
		if len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

// DeleteByDocument removes every point of one document
func (s *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	collection, err := s.coll()
	if err != nil {
		return err
	}
	if err := collection.Delete(ctx, chromago.WithWhereDelete(chromago.EqString(domain.PayloadDocumentID, documentID))); err != nil {
		return fmt.Errorf("%w: delete: %v", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// HealthCheck pings the server
func (s *Index) HealthCheck(ctx context.Context) error {
	return s.client.Heartbeat(ctx)
}

// Close releases the client
func (s *Index) Close() error {
	return s.client.Close()
}

// scoreFromDistance converts a squared-L2 distance between unit vectors to cosine similarity
func scoreFromDistance(d float64) float64 {
	return 1 - d/2
}

// needsPostFilter reports whether some predicates cannot be expressed as a where clause
func needsPostFilter(f domain.SearchFilter) bool {
	return len(f.SectionTitles) > 0 || f.MinTokens != nil || f.MaxTokens != nil
}

func whereFor(f domain.SearchFilter) chromago.WhereClause {
	var clauses []chromago.WhereClause
	if len(f.DocumentIDs) > 0 {
		clauses = append(clauses, chromago.InString(domain.PayloadDocumentID, f.DocumentIDs...))
	}
	if len(f.FileTypes) > 0 {
		types := make([]string, len(f.FileTypes))
		for i, ft := range f.FileTypes {
			types[i] = string(ft)
		}
		clauses = append(clauses, chromago.InString(domain.PayloadFileType, types...))
	}
	if f.Granularity != "" {
		clauses = append(clauses, chromago.EqString(domain.PayloadGranularity, f.Granularity))
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return chromago.And(clauses...)
	}
}

// metadataFor renders the chunk payload, minus the text, as Chroma metadata
func metadataFor(c *domain.Chunk) chromago.DocumentMetadata {
	payload := c.Payload()
	attrs := make([]*chromago.MetaAttribute, 0, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case string:
			if key == domain.PayloadText {
				continue
			}
			attrs = append(attrs, chromago.NewStringAttribute(key, v))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(key, int64(v)))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// chunkFromMetadata rebuilds a chunk from a stored document and its metadata.
// Metadata has no exported accessor for all keys, so it goes through JSON.
func chunkFromMetadata(text string, meta chromago.DocumentMetadata) *domain.Chunk {
	payload := map[string]any{}
	if meta != nil {
		if data, err := json.Marshal(meta); err == nil {
			_ = json.Unmarshal(data, &payload)
		}
	}
	payload[domain.PayloadText] = text
	return domain.ChunkFromPayload(payload)
}
