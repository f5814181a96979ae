// Package azuresearch provides the Azure AI Search vector store adapter.
package azuresearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

const apiVersion = "2024-07-01"

var metrics = map[string]string{
	config.DistanceCosine:    "cosine",
	config.DistanceEuclidean: "euclidean",
	config.DistanceDot:       "dotProduct",
}

type searchResponse struct {
	Value []map[string]any `json:"value"`
}

// Store keeps records as documents of one search index. Document keys are
// UUIDs; the payload is stored as a JSON string, with the common identity
// fields indexed for filtering.
type Store struct {
	client *httputil.Client
	index  string
	config config.VectorStoreConfig
	ready  common.Initializer
}

// New creates a new Azure AI Search store. The endpoint is url, or the
// service_name's search.windows.net address.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	endpoint := cfg.URL
	if endpoint == "" {
		if cfg.ServiceName == "" {
			return nil, types.NewInvalidConfigError("service_name", "is required when url is not set")
		}
		endpoint = fmt.Sprintf("https://%s.search.windows.net", cfg.ServiceName)
	}
	return &Store{
		client: httputil.NewClient(httputil.ClientConfig{
			Provider:          types.VectorStoreAzureAISearch,
			BaseURL:           endpoint,
			Headers:           httputil.AuthHeaders("api-key", cfg.APIKey),
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		index:  url.PathEscape(strings.ToLower(cfg.CollectionName)),
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return types.VectorStoreAzureAISearch
}

func (s *Store) path(suffix string) string {
	return "/indexes/" + s.index + suffix + "?api-version=" + apiVersion
}

func (s *Store) ensureIndex(ctx context.Context) error {
	return s.ready.Do(ctx, func(ctx context.Context) error {
		fields := []map[string]any{
			{"name": "id", "type": "Edm.String", "key": true, "filterable": true},
			{"name": "vector", "type": "Collection(Edm.Single)", "searchable": true,
				"dimensions": s.config.EmbeddingModelDims, "vectorSearchProfile": "default"},
			{"name": "payload", "type": "Edm.String"},
		}
		for _, f := range common.IndexedFields {
			fields = append(fields, map[string]any{"name": f, "type": "Edm.String", "filterable": true})
		}
		body := map[string]any{
			"name":   strings.ToLower(s.config.CollectionName),
			"fields": fields,
			"vectorSearch": map[string]any{
				"algorithms": []map[string]any{{
					"name": "hnsw", "kind": "hnsw",
					"hnswParameters": map[string]any{"metric": metrics[s.config.Distance]},
				}},
				"profiles": []map[string]any{{"name": "default", "algorithm": "hnsw"}},
			},
		}
		err := s.client.Put(ctx, s.path(""), body, nil)
		return httputil.WithOperation(err, "create_collection")
	})
}

// Upsert writes records, creating the index on first use
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureIndex(ctx); err != nil {
		return err
	}

	docs := make([]map[string]any, len(records))
	for i, r := range records {
		payload, err := json.Marshal(common.WithID(r.Payload, r.ID))
		if err != nil {
			return types.NewProviderError(types.VectorStoreAzureAISearch, types.ErrCodeInvalidRequest, err.Error()).
				WithOperation("upsert").WithOriginalErr(err)
		}
		doc := map[string]any{
			"@search.action": "mergeOrUpload",
			"id":             common.PointID(r.ID),
			"vector":         r.Vector,
			"payload":        string(payload),
		}
		for k, v := range common.IndexedValues(r.Payload) {
			doc[k] = v
		}
		docs[i] = doc
	}
	err := s.client.Post(ctx, s.path("/docs/index"), map[string]any{"value": docs}, nil)
	return httputil.WithOperation(err, "upsert")
}

// Query returns the nearest records. A missing index yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	indexed, rest := common.SplitFilters(q.Filters)
	k := q.Limit()
	if len(rest) > 0 {
		k *= common.Overfetch
	}
	body := map[string]any{
		"vectorQueries": []map[string]any{{"kind": "vector", "vector": q.Vector, "fields": "vector", "k": k}},
		"top":           k,
		"select":        "id,payload",
	}
	if expr := Filter(indexed); expr != "" {
		body["filter"] = expr
	}

	var resp searchResponse
	if err := s.client.Post(ctx, s.path("/docs/search"), body, &resp); err != nil {
		if types.IsNotFound(err) {
			return []types.Match{}, nil
		}
		return nil, httputil.WithOperation(err, "query")
	}

	matches := []types.Match{}
	for _, doc := range resp.Value {
		var payload map[string]any
		if raw, ok := doc["payload"].(string); ok && raw != "" {
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return nil, types.NewProviderError(types.VectorStoreAzureAISearch, types.ErrCodeServerError, err.Error()).
					WithOperation("query").WithOriginalErr(err)
			}
		}
		id, payload := common.SplitID(payload, fmt.Sprint(doc["id"]))
		if !common.MatchesFilters(payload, rest) {
			continue
		}
		score, _ := doc["@search.score"].(float64)
		matches = append(matches, types.Match{ID: id, Score: score, Payload: payload})
	}
	return common.SortMatches(matches, q.Limit()), nil
}

// Reset deletes the index, tolerating its absence, and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	s.ready.Invalidate()
	if err := s.client.Delete(ctx, s.path(""), nil); err != nil && !types.IsNotFound(err) {
		return httputil.WithOperation(err, "delete_collection")
	}
	return s.ensureIndex(ctx)
}

// Filter renders equality filters as an OData expression, e.g.
// user_id eq 'alice' and run_id eq '7'. Values are compared as strings.
func Filter(filters map[string]any) string {
	clauses := make([]string, 0, len(filters))
	for _, k := range common.SortedKeys(filters) {
		value := strings.ReplaceAll(fmt.Sprint(filters[k]), "'", "''")
		clauses = append(clauses, fmt.Sprintf("%s eq '%s'", k, value))
	}
	return strings.Join(clauses, " and ")
}
