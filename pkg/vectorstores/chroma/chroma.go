// Package chroma provides the Chroma vector store adapter over its v1 REST API.
package chroma

import (
	"context"
	"net/url"
	"sync/atomic"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

var spaces = map[string]string{
	config.DistanceCosine:    "cosine",
	config.DistanceEuclidean: "l2",
	config.DistanceDot:       "ip",
}

type collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type upsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

// Store keeps records in a single Chroma collection, created on first write.
type Store struct {
	client *httputil.Client
	config config.VectorStoreConfig

	ready common.Initializer
	id    atomic.Pointer[string]
}

// New creates a new Chroma store. It performs no I/O.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	return &Store{
		client: httputil.NewClient(httputil.ClientConfig{
			Provider:          types.VectorStoreChroma,
			BaseURL:           cfg.Endpoint("http", "localhost", 8000),
			Headers:           httputil.AuthHeaders("bearer", cfg.APIKey),
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return types.VectorStoreChroma
}

// collectionID resolves the collection's ID. With create set the collection
// is created when missing; otherwise a missing collection is reported as
// not found.
func (s *Store) collectionID(ctx context.Context, create bool) (string, error) {
	err := s.ready.Do(ctx, func(ctx context.Context) error {
		var c collection
		if create {
			body := map[string]any{
				"name":          s.config.CollectionName,
				"get_or_create": true,
				"metadata":      map[string]any{"hnsw:space": spaces[s.config.Distance]},
			}
			if err := s.client.Post(ctx, "/api/v1/collections", body, &c); err != nil {
				return httputil.WithOperation(err, "create_collection")
			}
		} else {
			if err := s.client.Get(ctx, "/api/v1/collections/"+url.PathEscape(s.config.CollectionName), &c); err != nil {
				return err
			}
		}
		s.id.Store(&c.ID)
		return nil
	})
	if err != nil {
		return "", err
	}
	return *s.id.Load(), nil
}

// Upsert writes records, creating the collection on first use
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	id, err := s.collectionID(ctx, true)
	if err != nil {
		return err
	}

	body := upsertRequest{
		IDs:        make([]string, len(records)),
		Embeddings: make([][]float32, len(records)),
		Metadatas:  make([]map[string]any, len(records)),
	}
	for i, r := range records {
		body.IDs[i] = r.ID
		body.Embeddings[i] = r.Vector
		body.Metadatas[i] = r.Payload
	}
	err = s.client.Post(ctx, "/api/v1/collections/"+id+"/upsert", body, nil)
	return httputil.WithOperation(err, "upsert")
}

// Query returns the nearest records. A missing collection yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	id, err := s.collectionID(ctx, false)
	if err != nil {
		if types.IsNotFound(err) {
			return []types.Match{}, nil
		}
		return nil, httputil.WithOperation(err, "query")
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{q.Vector},
		NResults:        q.Limit(),
		Where:           where(q.Filters),
		Include:         []string{"metadatas", "distances"},
	}
	var resp queryResponse
	if err := s.client.Post(ctx, "/api/v1/collections/"+id+"/query", req, &resp); err != nil {
		return nil, httputil.WithOperation(err, "query")
	}

	matches := []types.Match{}
	if len(resp.IDs) == 0 {
		return matches, nil
	}
	for i, hitID := range resp.IDs[0] {
		m := types.Match{ID: hitID}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			m.Score = s.score(resp.Distances[0][i])
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			m.Payload = resp.Metadatas[0][i]
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Reset deletes the collection, tolerating its absence, and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	s.ready.Invalidate()

	err := s.client.Delete(ctx, "/api/v1/collections/"+url.PathEscape(s.config.CollectionName), nil)
	if err != nil && !types.IsNotFound(err) {
		return httputil.WithOperation(err, "delete_collection")
	}
	_, err = s.collectionID(ctx, true)
	return err
}

// score turns a Chroma distance into a similarity where higher is closer.
func (s *Store) score(distance float64) float64 {
	if s.config.Distance == config.DistanceEuclidean {
		return -distance
	}
	return 1 - distance
}

// where builds a Chroma metadata filter. Several conditions are joined with $and.
func where(filters map[string]any) map[string]any {
	switch len(filters) {
	case 0:
		return nil
	case 1:
		for k, v := range filters {
			return map[string]any{k: map[string]any{"$eq": v}}
		}
	}
	var clauses []map[string]any
	for _, k := range common.SortedKeys(filters) {
		clauses = append(clauses, map[string]any{k: map[string]any{"$eq": filters[k]}})
	}
	return map[string]any{"$and": clauses}
}
