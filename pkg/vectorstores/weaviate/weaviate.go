// Package weaviate provides the Weaviate vector store adapter over its REST
// and GraphQL APIs.
package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

var distances = map[string]string{
	config.DistanceCosine:    "cosine",
	config.DistanceEuclidean: "l2-squared",
	config.DistanceDot:       "dot",
}

type graphQLResponse struct {
	Data struct {
		Get map[string][]map[string]any `json:"Get"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Store keeps records as objects of one Weaviate class with caller-supplied
// vectors. Object IDs are UUIDs derived from record IDs.
type Store struct {
	client *httputil.Client
	class  string
	config config.VectorStoreConfig
	ready  common.Initializer
}

// New creates a new Weaviate store. It performs no I/O.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	return &Store{
		client: httputil.NewClient(httputil.ClientConfig{
			Provider:          types.VectorStoreWeaviate,
			BaseURL:           cfg.Endpoint("http", "localhost", 8080),
			Headers:           httputil.AuthHeaders("bearer", cfg.APIKey),
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		class:  ClassName(cfg.CollectionName),
		config: cfg,
	}, nil
}

// ClassName converts a collection name into a valid Weaviate class name,
// which must start with an upper-case letter and contain only letters, digits
// and underscores.
func ClassName(collection string) string {
	var b strings.Builder
	for _, r := range collection {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := []rune(b.String())
	if len(name) == 0 || !unicode.IsLetter(name[0]) {
		name = append([]rune("C"), name...)
	}
	name[0] = unicode.ToUpper(name[0])
	return string(name)
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return types.VectorStoreWeaviate
}

func (s *Store) ensureClass(ctx context.Context) error {
	return s.ready.Do(ctx, func(ctx context.Context) error {
		err := s.client.Get(ctx, "/v1/schema/"+url.PathEscape(s.class), nil)
		if err == nil {
			return nil
		}
		if !types.IsNotFound(err) {
			return httputil.WithOperation(err, "create_collection")
		}

		properties := []map[string]any{
			{"name": "payload", "dataType": []string{"text"}},
			{"name": common.IDPayloadKey, "dataType": []string{"text"}},
		}
		for _, f := range common.IndexedFields {
			properties = append(properties, map[string]any{"name": f, "dataType": []string{"text"}, "tokenization": "field"})
		}
		body := map[string]any{
			"class":             s.class,
			"vectorizer":        "none",
			"vectorIndexConfig": map[string]any{"distance": distances[s.config.Distance]},
			"properties":        properties,
		}
		err = s.client.Post(ctx, "/v1/schema", body, nil)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return httputil.WithOperation(err, "create_collection")
		}
		return nil
	})
}

// Upsert writes records, creating the class on first use
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureClass(ctx); err != nil {
		return err
	}

	objects := make([]map[string]any, len(records))
	for i, r := range records {
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return types.NewProviderError(types.VectorStoreWeaviate, types.ErrCodeInvalidRequest, err.Error()).
				WithOperation("upsert").WithOriginalErr(err)
		}
		properties := map[string]any{"payload": string(payload), common.IDPayloadKey: r.ID}
		for k, v := range common.IndexedValues(r.Payload) {
			properties[k] = v
		}
		objects[i] = map[string]any{
			"class":      s.class,
			"id":         common.PointID(r.ID),
			"vector":     r.Vector,
			"properties": properties,
		}
	}

	var results []struct {
		Result struct {
			Errors *struct {
				Error []struct {
					Message string `json:"message"`
				} `json:"error"`
			} `json:"errors"`
		} `json:"result"`
	}
	if err := s.client.Post(ctx, "/v1/batch/objects", map[string]any{"objects": objects}, &results); err != nil {
		return httputil.WithOperation(err, "upsert")
	}
	for _, r := range results {
		if r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return types.NewProviderError(types.VectorStoreWeaviate, types.ErrCodeInvalidRequest, r.Result.Errors.Error[0].Message).
				WithOperation("upsert")
		}
	}
	return nil
}

// Query returns the nearest records. A missing class yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	indexed, rest := common.SplitFilters(q.Filters)
	k := q.Limit()
	if len(rest) > 0 {
		k *= common.Overfetch
	}

	var resp graphQLResponse
	if err := s.client.Post(ctx, "/v1/graphql", map[string]any{"query": s.graphQL(q.Vector, k, indexed)}, &resp); err != nil {
		if types.IsNotFound(err) {
			return []types.Match{}, nil
		}
		return nil, httputil.WithOperation(err, "query")
	}
	if len(resp.Errors) > 0 {
		// A class that does not exist yet is reported as an unknown field.
		if strings.Contains(resp.Errors[0].Message, "Cannot query field") {
			return []types.Match{}, nil
		}
		return nil, types.NewProviderError(types.VectorStoreWeaviate, types.ErrCodeInvalidRequest, resp.Errors[0].Message).
			WithOperation("query")
	}

	matches := []types.Match{}
	for _, obj := range resp.Data.Get[s.class] {
		var payload map[string]any
		if raw, ok := obj["payload"].(string); ok && raw != "" {
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return nil, types.NewProviderError(types.VectorStoreWeaviate, types.ErrCodeServerError, err.Error()).
					WithOperation("query").WithOriginalErr(err)
			}
		}
		if !common.MatchesFilters(payload, rest) {
			continue
		}
		additional, _ := obj["_additional"].(map[string]any)
		id, _ := obj[common.IDPayloadKey].(string)
		if id == "" {
			id, _ = additional["id"].(string)
		}
		distance, _ := additional["distance"].(float64)
		matches = append(matches, types.Match{ID: id, Score: s.score(distance), Payload: payload})
	}
	return common.SortMatches(matches, q.Limit()), nil
}

// Reset deletes the class with all its objects, tolerating its absence, and
// recreates it.
func (s *Store) Reset(ctx context.Context) error {
	s.ready.Invalidate()
	if err := s.client.Delete(ctx, "/v1/schema/"+url.PathEscape(s.class), nil); err != nil && !types.IsNotFound(err) {
		return httputil.WithOperation(err, "delete_collection")
	}
	return s.ensureClass(ctx)
}

// score turns a Weaviate distance into a similarity where higher is closer.
// Dot distances are already negated products.
func (s *Store) score(distance float64) float64 {
	if s.config.Distance == config.DistanceCosine {
		return 1 - distance
	}
	return -distance
}

func (s *Store) graphQL(vector []float32, k int, filters map[string]any) string {
	vec, _ := json.Marshal(vector)
	args := fmt.Sprintf("nearVector: {vector: %s}, limit: %d", vec, k)
	if where := Where(filters); where != "" {
		args += ", where: " + where
	}
	return fmt.Sprintf("{ Get { %s(%s) { payload %s _additional { id distance } } } }", s.class, args, common.IDPayloadKey)
}

// Where renders equality filters as a GraphQL where argument.
func Where(filters map[string]any) string {
	if len(filters) == 0 {
		return ""
	}
	operands := make([]string, 0, len(filters))
	for _, k := range common.SortedKeys(filters) {
		value, _ := json.Marshal(fmt.Sprint(filters[k]))
		operands = append(operands, fmt.Sprintf("{path: [%q], operator: Equal, valueText: %s}", k, value))
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return "{operator: And, operands: [" + strings.Join(operands, ", ") + "]}"
}
