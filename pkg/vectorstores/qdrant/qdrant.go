// Package qdrant provides the Qdrant vector store adapter over its REST API.
package qdrant

import (
	"context"
	"fmt"
	"net/url"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

var distances = map[string]string{
	config.DistanceCosine:    "Cosine",
	config.DistanceEuclidean: "Euclid",
	config.DistanceDot:       "Dot",
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

type condition struct {
	Key   string         `json:"key"`
	Match map[string]any `json:"match"`
}

type filter struct {
	Must []condition `json:"must"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
	Filter      *filter   `json:"filter,omitempty"`
}

type searchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Store keeps records as points of a single Qdrant collection. The collection
// is created on first write.
type Store struct {
	client     *httputil.Client
	collection string
	config     config.VectorStoreConfig
	ready      common.Initializer
}

// New creates a new Qdrant store. It performs no I/O.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	return &Store{
		client: httputil.NewClient(httputil.ClientConfig{
			Provider:          types.VectorStoreQdrant,
			BaseURL:           cfg.Endpoint("http", "localhost", 6333),
			Headers:           httputil.AuthHeaders("api-key", cfg.APIKey),
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		collection: url.PathEscape(cfg.CollectionName),
		config:     cfg,
	}, nil
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return types.VectorStoreQdrant
}

func (s *Store) collectionPath(suffix string) string {
	return "/collections/" + s.collection + suffix
}

func (s *Store) ensureCollection(ctx context.Context) error {
	return s.ready.Do(ctx, s.createCollection)
}

func (s *Store) createCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.config.EmbeddingModelDims,
			"distance": distances[s.config.Distance],
		},
	}
	err := s.client.Put(ctx, s.collectionPath(""), body, nil)
	if err != nil && !types.IsConflict(err) {
		return httputil.WithOperation(err, "create_collection")
	}
	return nil
}

// Upsert writes records, creating the collection on first use
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]point, len(records))
	for i, r := range records {
		points[i] = point{
			ID:      common.PointID(r.ID),
			Vector:  r.Vector,
			Payload: common.WithID(r.Payload, r.ID),
		}
	}
	err := s.client.Put(ctx, s.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil)
	return httputil.WithOperation(err, "upsert")
}

// Query returns the nearest records. A missing collection yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	req := searchRequest{
		Vector:      q.Vector,
		Limit:       q.Limit(),
		WithPayload: true,
	}
	if len(q.Filters) > 0 {
		req.Filter = &filter{}
		for _, k := range common.SortedKeys(q.Filters) {
			req.Filter.Must = append(req.Filter.Must, condition{Key: k, Match: map[string]any{"value": q.Filters[k]}})
		}
	}

	var resp searchResponse
	if err := s.client.Post(ctx, s.collectionPath("/points/search"), req, &resp); err != nil {
		if types.IsNotFound(err) {
			return []types.Match{}, nil
		}
		return nil, httputil.WithOperation(err, "query")
	}

	matches := make([]types.Match, 0, len(resp.Result))
	for _, hit := range resp.Result {
		id, payload := common.SplitID(hit.Payload, fmt.Sprint(hit.ID))
		matches = append(matches, types.Match{ID: id, Score: hit.Score, Payload: payload})
	}
	return matches, nil
}

// Reset deletes the collection, tolerating its absence, and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	s.ready.Invalidate()
	if err := s.client.Delete(ctx, s.collectionPath(""), nil); err != nil && !types.IsNotFound(err) {
		return httputil.WithOperation(err, "delete_collection")
	}
	return s.ensureCollection(ctx)
}
