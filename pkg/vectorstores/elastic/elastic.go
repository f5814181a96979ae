// Package elastic provides vector stores on Elasticsearch (dense_vector with
// kNN search) and OpenSearch (knn_vector with the k-NN plugin), both over REST.
package elastic

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

// flavor captures the differences between the two engines.
type flavor struct {
	provider   string
	similarity map[string]string
	settings   map[string]any
	field      func(dims int, similarity string) map[string]any
	search     func(vector []float32, k int, filter map[string]any) map[string]any
}

var elasticsearch = flavor{
	provider: types.VectorStoreElasticsearch,
	similarity: map[string]string{
		config.DistanceCosine:    "cosine",
		config.DistanceEuclidean: "l2_norm",
		config.DistanceDot:       "dot_product",
	},
	field: func(dims int, similarity string) map[string]any {
		return map[string]any{"type": "dense_vector", "dims": dims, "index": true, "similarity": similarity}
	},
	search: func(vector []float32, k int, filter map[string]any) map[string]any {
		knn := map[string]any{
			"field":          "vector",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": max(k*10, 100),
		}
		if filter != nil {
			knn["filter"] = filter
		}
		return map[string]any{"knn": knn, "size": k, "_source": []string{"payload"}}
	},
}

var opensearch = flavor{
	provider: types.VectorStoreOpenSearch,
	similarity: map[string]string{
		config.DistanceCosine:    "cosinesimil",
		config.DistanceEuclidean: "l2",
		config.DistanceDot:       "innerproduct",
	},
	settings: map[string]any{"index": map[string]any{"knn": true}},
	field: func(dims int, similarity string) map[string]any {
		return map[string]any{"type": "knn_vector", "dimension": dims,
			"method": map[string]any{"name": "hnsw", "engine": "lucene", "space_type": similarity}}
	},
	search: func(vector []float32, k int, filter map[string]any) map[string]any {
		knn := map[string]any{"vector": vector, "k": k}
		if filter != nil {
			knn["filter"] = filter
		}
		return map[string]any{
			"size":    k,
			"query":   map[string]any{"knn": map[string]any{"vector": knn}},
			"_source": []string{"payload"},
		}
	},
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				Payload map[string]any `json:"payload"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Store keeps records as documents of one index, with the payload mapped as
// an object whose string fields are keywords.
type Store struct {
	flavor flavor
	client *httputil.Client
	index  string
	config config.VectorStoreConfig
	ready  common.Initializer
}

// New creates an Elasticsearch store. It performs no I/O.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	return newStore(elasticsearch, cfg), nil
}

// NewOpenSearch creates an OpenSearch store. It performs no I/O.
func NewOpenSearch(cfg config.VectorStoreConfig) (*Store, error) {
	return newStore(opensearch, cfg), nil
}

func newStore(f flavor, cfg config.VectorStoreConfig) *Store {
	return &Store{
		flavor: f,
		client: httputil.NewClient(httputil.ClientConfig{
			Provider:          f.provider,
			BaseURL:           cfg.Endpoint("http", "localhost", 9200),
			Headers:           authHeaders(cfg),
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		index:  url.PathEscape(strings.ToLower(cfg.CollectionName)),
		config: cfg,
	}
}

// authHeaders prefers an API key and falls back to basic auth.
func authHeaders(cfg config.VectorStoreConfig) map[string]string {
	switch {
	case cfg.APIKey != "":
		return map[string]string{"Authorization": "ApiKey " + cfg.APIKey}
	case cfg.User != "":
		creds := base64.StdEncoding.EncodeToString([]byte(cfg.User + ":" + cfg.Password))
		return map[string]string{"Authorization": "Basic " + creds}
	}
	return map[string]string{}
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return s.flavor.provider
}

func (s *Store) mapping() map[string]any {
	vector := s.flavor.field(s.config.EmbeddingModelDims, s.flavor.similarity[s.config.Distance])
	body := map[string]any{
		"mappings": map[string]any{
			"dynamic_templates": []map[string]any{{
				"payload_strings": map[string]any{
					"path_match":         "payload.*",
					"match_mapping_type": "string",
					"mapping":            map[string]any{"type": "keyword"},
				},
			}},
			"properties": map[string]any{
				"vector":  vector,
				"payload": map[string]any{"type": "object", "dynamic": true},
			},
		},
	}
	if s.flavor.settings != nil {
		body["settings"] = s.flavor.settings
	}
	return body
}

func (s *Store) ensureIndex(ctx context.Context) error {
	return s.ready.Do(ctx, func(ctx context.Context) error {
		err := s.client.Get(ctx, "/"+s.index, nil)
		if err == nil {
			return nil
		}
		if !types.IsNotFound(err) {
			return httputil.WithOperation(err, "create_collection")
		}
		err = s.client.Put(ctx, "/"+s.index, s.mapping(), nil)
		if err != nil && !alreadyExists(err) {
			return httputil.WithOperation(err, "create_collection")
		}
		return nil
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
	for _, r := range records {
		doc := map[string]any{"vector": r.Vector, "payload": r.Payload}
		path := "/" + s.index + "/_doc/" + url.PathEscape(r.ID) + "?refresh=wait_for"
		if err := s.client.Put(ctx, path, doc, nil); err != nil {
			return httputil.WithOperation(err, "upsert")
		}
	}
	return nil
}

// Query returns the nearest records. A missing index yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	body := s.flavor.search(q.Vector, q.Limit(), Filter(q.Filters))

	var resp searchResponse
	if err := s.client.Post(ctx, "/"+s.index+"/_search", body, &resp); err != nil {
		if types.IsNotFound(err) {
			return []types.Match{}, nil
		}
		return nil, httputil.WithOperation(err, "query")
	}
	matches := make([]types.Match, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		matches = append(matches, types.Match{ID: h.ID, Score: h.Score, Payload: h.Source.Payload})
	}
	return matches, nil
}

// Reset deletes the index, tolerating its absence, and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	s.ready.Invalidate()
	if err := s.client.Delete(ctx, "/"+s.index, nil); err != nil && !types.IsNotFound(err) {
		return httputil.WithOperation(err, "delete_collection")
	}
	return s.ensureIndex(ctx)
}

// Filter renders equality filters as a bool query of term clauses on payload
// fields.
func Filter(filters map[string]any) map[string]any {
	if len(filters) == 0 {
		return nil
	}
	terms := make([]map[string]any, 0, len(filters))
	for _, k := range common.SortedKeys(filters) {
		terms = append(terms, map[string]any{"term": map[string]any{"payload." + k: filters[k]}})
	}
	return map[string]any{"bool": map[string]any{"filter": terms}}
}

func alreadyExists(err error) bool {
	return strings.Contains(err.Error(), "resource_already_exists_exception")
}
