// Package pinecone provides the Pinecone vector store adapter. Index
// management goes to the control plane; records go to the index host it
// reports.
package pinecone

import (
	"context"
	"net/url"
	"os"
	"strings"
	"sync/atomic"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

const (
	controlPlaneURL = "https://api.pinecone.io"
	apiVersion      = "2024-07"
	defaultCloud    = "aws"
	defaultRegion   = "us-east-1"
)

var metrics = map[string]string{
	config.DistanceCosine:    "cosine",
	config.DistanceEuclidean: "euclidean",
	config.DistanceDot:       "dotproduct",
}

type index struct {
	Name string `json:"name"`
	Host string `json:"host"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// Store keeps records in a serverless Pinecone index.
type Store struct {
	control *httputil.Client
	headers map[string]string
	name    string
	config  config.VectorStoreConfig

	ready common.Initializer
	data  atomic.Pointer[httputil.Client]
}

// New creates a new Pinecone store. The API key falls back to PINECONE_API_KEY.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("PINECONE_API_KEY")
	}
	if apiKey == "" {
		return nil, types.NewInvalidConfigError("api_key", "is required (or set PINECONE_API_KEY)")
	}
	base := cfg.URL
	if base == "" {
		base = controlPlaneURL
	}

	headers := httputil.AuthHeaders("Api-Key", apiKey)
	headers["X-Pinecone-API-Version"] = apiVersion
	return &Store{
		control: httputil.NewClient(httputil.ClientConfig{
			Provider:          types.VectorStorePinecone,
			BaseURL:           base,
			Headers:           headers,
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		headers: headers,
		name:    strings.ToLower(cfg.CollectionName),
		config:  cfg,
	}, nil
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return types.VectorStorePinecone
}

// dataClient returns a client for the index host. With create set a missing
// index is created first.
func (s *Store) dataClient(ctx context.Context, create bool) (*httputil.Client, error) {
	err := s.ready.Do(ctx, func(ctx context.Context) error {
		var idx index
		err := s.control.Get(ctx, "/indexes/"+url.PathEscape(s.name), &idx)
		if types.IsNotFound(err) && create {
			err = s.createIndex(ctx, &idx)
		}
		if err != nil {
			return err
		}

		host := idx.Host
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = "https://" + host
		}
		s.data.Store(httputil.NewClient(httputil.ClientConfig{
			Provider:          types.VectorStorePinecone,
			BaseURL:           host,
			Headers:           s.headers,
			Timeout:           s.config.Timeout,
			RequestsPerMinute: s.config.RequestsPerMinute,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.data.Load(), nil
}

func (s *Store) createIndex(ctx context.Context, out *index) error {
	region := s.config.Region
	if region == "" {
		region = defaultRegion
	}
	body := map[string]any{
		"name":      s.name,
		"dimension": s.config.EmbeddingModelDims,
		"metric":    metrics[s.config.Distance],
		"spec": map[string]any{
			"serverless": map[string]any{"cloud": defaultCloud, "region": region},
		},
	}
	err := s.control.Post(ctx, "/indexes", body, out)
	if types.IsConflict(err) {
		err = s.control.Get(ctx, "/indexes/"+url.PathEscape(s.name), out)
	}
	return httputil.WithOperation(err, "create_collection")
}

// Upsert writes records to the index, creating it on first use
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	client, err := s.dataClient(ctx, true)
	if err != nil {
		return err
	}

	vectors := make([]map[string]any, len(records))
	for i, r := range records {
		v := map[string]any{"id": r.ID, "values": r.Vector}
		if len(r.Payload) > 0 {
			v["metadata"] = r.Payload
		}
		vectors[i] = v
	}
	body := map[string]any{"vectors": vectors}
	if s.config.Namespace != "" {
		body["namespace"] = s.config.Namespace
	}
	err = client.Post(ctx, "/vectors/upsert", body, nil)
	return httputil.WithOperation(err, "upsert")
}

// Query returns the nearest records. A missing index yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	client, err := s.dataClient(ctx, false)
	if err != nil {
		if types.IsNotFound(err) {
			return []types.Match{}, nil
		}
		return nil, httputil.WithOperation(err, "query")
	}

	body := map[string]any{
		"vector":          q.Vector,
		"topK":            q.Limit(),
		"includeMetadata": true,
	}
	if f := Filter(q.Filters); f != nil {
		body["filter"] = f
	}
	if s.config.Namespace != "" {
		body["namespace"] = s.config.Namespace
	}

	var resp queryResponse
	if err := client.Post(ctx, "/query", body, &resp); err != nil {
		return nil, httputil.WithOperation(err, "query")
	}
	matches := make([]types.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, types.Match{ID: m.ID, Score: m.Score, Payload: m.Metadata})
	}
	return matches, nil
}

// Reset deletes the index, tolerating its absence, and recreates it.
func (s *Store) Reset(ctx context.Context) error {
	s.ready.Invalidate()

	if err := s.control.Delete(ctx, "/indexes/"+url.PathEscape(s.name), nil); err != nil && !types.IsNotFound(err) {
		return httputil.WithOperation(err, "delete_collection")
	}
	_, err := s.dataClient(ctx, true)
	return err
}

// Filter renders equality filters in Pinecone's metadata filter language.
func Filter(filters map[string]any) map[string]any {
	if len(filters) == 0 {
		return nil
	}
	out := make(map[string]any, len(filters))
	for k, v := range filters {
		out[k] = map[string]any{"$eq": v}
	}
	return out
}
