// Package qdrant implements the vector index over Qdrant's REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driven"
)

// Ensure Index implements VectorIndex
var _ driven.VectorIndex = (*Index)(nil)

const (
	// DefaultURL is where a local Qdrant listens
	DefaultURL = "http://localhost:6333"

	// DefaultCollection holds every document's points
	DefaultCollection = "tender_documents"

	// DefaultBootstrapAttempts and DefaultRetryDelay bound Bootstrap
	DefaultBootstrapAttempts = 3
	DefaultRetryDelay        = 2 * time.Second
)

// Config holds Qdrant connection settings.
type Config struct {
	URL               string
	APIKey            string
	Collection        string
	Dimensions        int
	Timeout           time.Duration
	BootstrapAttempts int
	RetryDelay        time.Duration
	Logger            *slog.Logger
}

// Index is a minimal REST client for one Qdrant collection using cosine distance.
type Index struct {
	url        string
	apiKey     string
	collection string
	dimensions int
	attempts   int
	retryDelay time.Duration
	client     *http.Client
	logger     *slog.Logger
}

// New creates a Qdrant index client. Call Bootstrap before use.
func New(cfg Config) *Index {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = domain.EmbeddingDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BootstrapAttempts <= 0 {
		cfg.BootstrapAttempts = DefaultBootstrapAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	} else if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Index{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		attempts:   cfg.BootstrapAttempts,
		retryDelay: cfg.RetryDelay,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger.With("component", "qdrant", "collection", cfg.Collection),
	}
}

// Bootstrap ensures the collection exists, retrying a fixed number of times.
func (s *Index) Bootstrap(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		lastErr = s.ensureCollection(ctx)
		if lastErr == nil {
			return nil
		}
		s.logger.Warn("qdrant bootstrap failed", "attempt", attempt, "error", lastErr)
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

func (s *Index) ensureCollection(ctx context.Context) error {
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, &info)
	if err == nil {
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != s.dimensions {
			return fmt.Errorf("collection has vector size %d, want %d", size, s.dimensions)
		}
		return nil
	}
	if !errors.Is(err, errNotFound) {
		return err
	}

	s.logger.Info("creating qdrant collection", "dimensions", s.dimensions)
	create := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimensions,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, s.collectionPath(""), create, nil); err != nil {
		return err
	}

	// Keyword index so deletes and document filters stay cheap
	for _, field := range []string{domain.PayloadDocumentID, domain.PayloadFileType, domain.PayloadGranularity} {
		index := map[string]any{"field_name": field, "field_schema": "keyword"}
		if err := s.do(ctx, http.MethodPut, s.collectionPath("/index?wait=true"), index, nil); err != nil {
			return fmt.Errorf("create payload index %s: %w", field, err)
		}
	}
	return nil
}

type point struct {
	ID      uint64         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert writes points in batches of at most MaxUpsertBatch
func (s *Index) Upsert(ctx context.Context, points []domain.Point) error {
	for start := 0; start < len(points); start += driven.MaxUpsertBatch {
		end := min(start+driven.MaxUpsertBatch, len(points))
		batch := make([]point, 0, end-start)
		for _, p := range points[start:end] {
			if len(p.Vector) != s.dimensions {
				return fmt.Errorf("point %d has %d dimensions, want %d", p.ID, len(p.Vector), s.dimensions)
			}
			batch = append(batch, point{ID: p.ID, Vector: p.Vector, Payload: p.Chunk.Payload()})
		}
		body := map[string]any{"points": batch}
		if err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil); err != nil {
			return fmt.Errorf("%w: upsert: %v", domain.ErrIndexUnavailable, err)
		}
	}
	return nil
}

// Search runs a filtered nearest-neighbour query
func (s *Index) Search(ctx context.Context, vector []float32, filter domain.SearchFilter, limit int) ([]domain.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := buildFilter(filter); f != nil {
		req["filter"] = f
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &resp); err != nil {
		return nil, fmt.Errorf("%w: search: %v", domain.ErrIndexUnavailable, err)
	}

	candidates := make([]domain.Candidate, 0, len(resp.Result))
	for _, r := range resp.Result {
		candidates = append(candidates, domain.Candidate{
			Chunk: domain.ChunkFromPayload(r.Payload),
			Score: r.Score,
		})
	}
	return candidates, nil
}

// DeleteByDocument removes all points of one document
func (s *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []any{matchValue(domain.PayloadDocumentID, documentID)},
		},
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/delete?wait=true"), body, nil); err != nil {
		return fmt.Errorf("%w: delete: %v", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// HealthCheck verifies the collection is reachable
func (s *Index) HealthCheck(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, s.collectionPath(""), nil, nil)
}

// Close releases idle connections
func (s *Index) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// buildFilter translates a SearchFilter into Qdrant's filter language.
// Predicates are ANDed under "must"; list values are ORed.
func buildFilter(f domain.SearchFilter) map[string]any {
	if f.IsEmpty() {
		return nil
	}

	var must []any
	if len(f.DocumentIDs) > 0 {
		must = append(must, matchAny(domain.PayloadDocumentID, f.DocumentIDs))
	}
	if len(f.FileTypes) > 0 {
		types := make([]string, len(f.FileTypes))
		for i, ft := range f.FileTypes {
			types[i] = string(ft)
		}
		must = append(must, matchAny(domain.PayloadFileType, types))
	}
	if len(f.SectionTitles) > 0 {
		// Without a full-text index, "text" is an exact substring match
		should := make([]any, len(f.SectionTitles))
		for i, title := range f.SectionTitles {
			should[i] = map[string]any{
				"key":   domain.PayloadSectionTitle,
				"match": map[string]any{"text": title},
			}
		}
		must = append(must, map[string]any{"should": should})
	}
	if f.Granularity != "" {
		must = append(must, matchValue(domain.PayloadGranularity, f.Granularity))
	}
	if f.MinTokens != nil || f.MaxTokens != nil {
		r := map[string]any{}
		if f.MinTokens != nil {
			r["gte"] = *f.MinTokens
		}
		if f.MaxTokens != nil {
			r["lte"] = *f.MaxTokens
		}
		must = append(must, map[string]any{"key": domain.PayloadTokenCount, "range": r})
	}
	return map[string]any{"must": must}
}

func matchValue(key, value string) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"value": value}}
}

func matchAny(key string, values []string) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"any": values}}
}

var errNotFound = errors.New("not found")

func (s *Index) collectionPath(suffix string) string {
	return s.url + "/collections/" + url.PathEscape(s.collection) + suffix
}

func (s *Index) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Status struct {
				Error string `json:"error"`
			} `json:"status"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Status.Error != "" {
			return fmt.Errorf("qdrant %s %s: %s: %s", method, req.URL.Path, resp.Status, apiErr.Status.Error)
		}
		return fmt.Errorf("qdrant %s %s: %s", method, req.URL.Path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
