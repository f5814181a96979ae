// Package upstash provides the Upstash Vector store adapter. With
// enable_embeddings set, Upstash embeds record text and query text itself.
package upstash

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

type vector struct {
	ID       string         `json:"id"`
	Vector   []float32      `json:"vector,omitempty"`
	Data     string         `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector,omitempty"`
	Data            string    `json:"data,omitempty"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Filter          string    `json:"filter,omitempty"`
}

type queryResponse struct {
	Result []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"result"`
}

// Store keeps records in one Upstash Vector namespace. The collection name is
// used as the namespace; the default namespace is used when it is empty.
type Store struct {
	client    *httputil.Client
	namespace string
	embed     bool
}

// New creates a new Upstash store. The endpoint and token fall back to
// UPSTASH_VECTOR_REST_URL and UPSTASH_VECTOR_REST_TOKEN.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = os.Getenv("UPSTASH_VECTOR_REST_URL")
	}
	if endpoint == "" {
		return nil, types.NewInvalidConfigError("url", "is required (or set UPSTASH_VECTOR_REST_URL)")
	}
	token := cfg.Token
	if token == "" {
		token = os.Getenv("UPSTASH_VECTOR_REST_TOKEN")
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = cfg.CollectionName
	}
	return &Store{
		client: httputil.NewClient(httputil.ClientConfig{
			Provider:          types.VectorStoreUpstashVector,
			BaseURL:           endpoint,
			Headers:           httputil.AuthHeaders("bearer", token),
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		namespace: namespace,
		embed:     cfg.EnableEmbeddings,
	}, nil
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return types.VectorStoreUpstashVector
}

func (s *Store) path(action string) string {
	if s.namespace == "" {
		return "/" + action
	}
	return "/" + action + "/" + url.PathEscape(s.namespace)
}

// Upsert writes records to the configured namespace
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	vectors := make([]vector, len(records))
	for i, r := range records {
		vectors[i] = vector{ID: r.ID, Metadata: r.Payload}
		if s.embed {
			vectors[i].Data = r.Text()
		} else {
			vectors[i].Vector = r.Vector
		}
	}

	action := "upsert"
	if s.embed {
		action = "upsert-data"
	}
	err := s.client.Post(ctx, s.path(action), vectors, nil)
	return httputil.WithOperation(err, "upsert")
}

// Query returns the nearest records. A missing namespace yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	req := queryRequest{
		TopK:            q.Limit(),
		IncludeMetadata: true,
		Filter:          Filter(q.Filters),
	}
	action := "query"
	if s.embed {
		action = "query-data"
		req.Data = q.Text
	} else {
		req.Vector = q.Vector
	}

	var resp queryResponse
	if err := s.client.Post(ctx, s.path(action), req, &resp); err != nil {
		return nil, httputil.WithOperation(err, "query")
	}
	matches := make([]types.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, types.Match{ID: r.ID, Score: r.Score, Payload: r.Metadata})
	}
	return matches, nil
}

// Reset removes every vector in the namespace. Resetting an empty namespace
// succeeds.
func (s *Store) Reset(ctx context.Context) error {
	err := s.client.Delete(ctx, s.path("reset"), nil)
	return httputil.WithOperation(err, "reset")
}

// Filter renders equality filters in Upstash's SQL-like filter syntax, e.g.
// user_id = 'alice' AND run_id = 7.
func Filter(filters map[string]any) string {
	clauses := make([]string, 0, len(filters))
	for _, k := range common.SortedKeys(filters) {
		clauses = append(clauses, fmt.Sprintf("%s = %s", k, literal(filters[k])))
	}
	return strings.Join(clauses, " AND ")
}

func literal(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "\\'") + "'"
	case bool:
		return strconv.FormatBool(val)
	case int, int32, int64, float32, float64:
		return fmt.Sprint(val)
	default:
		return "'" + fmt.Sprint(val) + "'"
	}
}
