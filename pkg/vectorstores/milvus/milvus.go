// Package milvus provides the Milvus vector store adapter over the v2 RESTful API.
package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

const (
	codeOK                 = 0
	codeCollectionNotFound = 100
)

var metricTypes = map[string]string{
	config.DistanceCosine:    "COSINE",
	config.DistanceEuclidean: "L2",
	config.DistanceDot:       "IP",
}

// envelope is the body of every Milvus response. Failures are reported with
// HTTP 200 and a non-zero code.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type hit struct {
	ID       string         `json:"id"`
	Distance float64        `json:"distance"`
	Metadata map[string]any `json:"metadata"`
}

// Store keeps records in a Milvus collection with a VarChar primary key, a
// float vector field and a JSON metadata field.
type Store struct {
	client *httputil.Client
	config config.VectorStoreConfig
	ready  common.Initializer
}

// New creates a new Milvus store. It performs no I/O.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	token := cfg.Token
	if token == "" && cfg.User != "" {
		token = cfg.User + ":" + cfg.Password
	}
	return &Store{
		client: httputil.NewClient(httputil.ClientConfig{
			Provider:          types.VectorStoreMilvus,
			BaseURL:           cfg.Endpoint("http", "localhost", 19530),
			Headers:           httputil.AuthHeaders("bearer", token),
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return types.VectorStoreMilvus
}

func (s *Store) call(ctx context.Context, path, operation string, body map[string]any, out any) error {
	body["collectionName"] = s.config.CollectionName
	if s.config.DBName != "" {
		body["dbName"] = s.config.DBName
	}

	var env envelope
	if err := s.client.Post(ctx, "/v2/vectordb"+path, body, &env); err != nil {
		return httputil.WithOperation(err, operation)
	}
	if env.Code != codeOK {
		code := types.ErrCodeServerError
		if env.Code == codeCollectionNotFound || strings.Contains(env.Message, "collection not found") {
			code = types.ErrCodeNotFound
		}
		return types.NewProviderError(types.VectorStoreMilvus, code, fmt.Sprintf("%s (code %d)", env.Message, env.Code)).
			WithOperation(operation)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return types.NewProviderError(types.VectorStoreMilvus, types.ErrCodeServerError, err.Error()).
				WithOperation(operation).WithOriginalErr(err)
		}
	}
	return nil
}

func (s *Store) hasCollection(ctx context.Context) (bool, error) {
	var data struct {
		Has bool `json:"has"`
	}
	err := s.call(ctx, "/collections/has", "create_collection", map[string]any{}, &data)
	return data.Has, err
}

func (s *Store) ensureCollection(ctx context.Context) error {
	return s.ready.Do(ctx, func(ctx context.Context) error {
		has, err := s.hasCollection(ctx)
		if err != nil || has {
			return err
		}
		return s.call(ctx, "/collections/create", "create_collection", map[string]any{
			"schema": map[string]any{
				"fields": []map[string]any{
					{"fieldName": "id", "dataType": "VarChar", "isPrimary": true,
						"elementTypeParams": map[string]any{"max_length": 512}},
					{"fieldName": "vector", "dataType": "FloatVector",
						"elementTypeParams": map[string]any{"dim": s.config.EmbeddingModelDims}},
					{"fieldName": "metadata", "dataType": "JSON"},
				},
			},
			"indexParams": []map[string]any{
				{"fieldName": "vector", "indexName": "vector_index", "metricType": metricTypes[s.config.Distance]},
			},
		}, nil)
	})
}

// Upsert writes records, creating the collection on first use
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	data := make([]map[string]any, len(records))
	for i, r := range records {
		metadata := r.Payload
		if metadata == nil {
			metadata = map[string]any{}
		}
		data[i] = map[string]any{"id": r.ID, "vector": r.Vector, "metadata": metadata}
	}
	return s.call(ctx, "/entities/upsert", "upsert", map[string]any{"data": data}, nil)
}

// Query returns the nearest records. A missing collection yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	body := map[string]any{
		"data":         [][]float32{q.Vector},
		"annsField":    "vector",
		"limit":        q.Limit(),
		"outputFields": []string{"metadata"},
	}
	if expr := Filter(q.Filters); expr != "" {
		body["filter"] = expr
	}

	var hits []hit
	if err := s.call(ctx, "/entities/search", "query", body, &hits); err != nil {
		if types.IsNotFound(err) {
			return []types.Match{}, nil
		}
		return nil, err
	}

	matches := make([]types.Match, 0, len(hits))
	for _, h := range hits {
		score := h.Distance
		if s.config.Distance == config.DistanceEuclidean {
			score = -score
		}
		matches = append(matches, types.Match{ID: h.ID, Score: score, Payload: h.Metadata})
	}
	return matches, nil
}

// Reset drops the collection when it exists and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	s.ready.Invalidate()
	has, err := s.hasCollection(ctx)
	if err != nil {
		return httputil.WithOperation(err, "delete_collection")
	}
	if has {
		if err := s.call(ctx, "/collections/drop", "delete_collection", map[string]any{}, nil); err != nil {
			return err
		}
	}
	return s.ensureCollection(ctx)
}

// Filter renders equality filters on the metadata field as a Milvus boolean
// expression, e.g. metadata["user_id"] == "alice".
func Filter(filters map[string]any) string {
	clauses := make([]string, 0, len(filters))
	for _, k := range common.SortedKeys(filters) {
		key, _ := json.Marshal(k)
		value, err := json.Marshal(filters[k])
		if err != nil {
			value = []byte(fmt.Sprintf("%q", fmt.Sprint(filters[k])))
		}
		clauses = append(clauses, fmt.Sprintf("metadata[%s] == %s", key, value))
	}
	return strings.Join(clauses, " and ")
}
