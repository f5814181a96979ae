// Package vertexsearch provides the Vertex AI Vector Search store adapter.
// The index and its endpoint deployment are provisioned outside the store.
package vertexsearch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"
	"sync"

	"github.com/zentry-ai/zentry/internal/gcpauth"
	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
	"github.com/zentry-ai/zentry/pkg/vectorstores/common"
)

type restrict struct {
	Namespace string   `json:"namespace"`
	AllowList []string `json:"allowList"`
}

type numericRestrict struct {
	Namespace   string  `json:"namespace"`
	ValueDouble float64 `json:"valueDouble"`
	Op          string  `json:"op,omitempty"`
}

type datapoint struct {
	DatapointID       string            `json:"datapointId"`
	FeatureVector     []float32         `json:"featureVector,omitempty"`
	Restricts         []restrict        `json:"restricts,omitempty"`
	NumericRestricts  []numericRestrict `json:"numericRestricts,omitempty"`
	EmbeddingMetadata map[string]any    `json:"embeddingMetadata,omitempty"`
}

type findNeighborsResponse struct {
	NearestNeighbors []struct {
		Neighbors []struct {
			Datapoint datapoint `json:"datapoint"`
			Distance  float64   `json:"distance"`
		} `json:"neighbors"`
	} `json:"nearestNeighbors"`
}

// Store writes datapoints to a Vertex AI index and queries them through the
// deployed index. The full payload is kept as embedding metadata; scalar
// payload fields are also written as restricts so they can be filtered on.
type Store struct {
	api       *httputil.Client
	direct    *httputil.Client
	indexPath string
	endpoint  string
	config    config.VectorStoreConfig

	mu        sync.Mutex
	queryBase string
	written   map[string]struct{}
}

// New creates a new Vertex AI Vector Search store. Credentials are resolved on
// the first request: api_key as a static access token, then credentials_json
// (inline JSON or a file path), then Application Default Credentials.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	project := cfg.ProjectID
	if project == "" {
		project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	required := map[string]string{
		"project_id":        project,
		"index_id":          cfg.IndexID,
		"index_endpoint_id": cfg.IndexEndpointID,
		"deployed_index_id": cfg.DeployedIndexID,
	}
	for _, field := range []string{"project_id", "index_id", "index_endpoint_id", "deployed_index_id"} {
		if required[field] == "" {
			return nil, types.NewInvalidConfigError(field, "is required for vertex_ai_vector_search")
		}
	}
	region := cfg.Region
	if region == "" {
		region = "us-central1"
	}
	base := cfg.URL
	if base == "" {
		base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", region)
	}

	httpClient := gcpauth.HTTPClient(gcpauth.NewTokenSource(cfg.APIKey, cfg.CredentialsJSON), cfg.Timeout)
	newClient := func(baseURL string) *httputil.Client {
		return httputil.NewClient(httputil.ClientConfig{
			Provider:          types.VectorStoreVertexAIVectorSearch,
			BaseURL:           baseURL,
			HTTPClient:        httpClient,
			RequestsPerMinute: cfg.RequestsPerMinute,
		})
	}

	parent := fmt.Sprintf("/v1/projects/%s/locations/%s", url.PathEscape(project), region)
	s := &Store{
		api:       newClient(base),
		direct:    newClient(""),
		indexPath: parent + "/indexes/" + url.PathEscape(cfg.IndexID),
		endpoint:  parent + "/indexEndpoints/" + url.PathEscape(cfg.IndexEndpointID),
		config:    cfg,
		written:   make(map[string]struct{}),
	}
	if cfg.URL != "" {
		s.queryBase = cfg.URL
	}
	return s, nil
}

// Name returns the registered provider name
func (s *Store) Name() string {
	return types.VectorStoreVertexAIVectorSearch
}

// queryURL resolves the public endpoint domain of the index endpoint.
func (s *Store) queryURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryBase == "" {
		var ep struct {
			PublicEndpointDomainName string `json:"publicEndpointDomainName"`
		}
		if err := s.api.Get(ctx, s.endpoint, &ep); err != nil {
			return "", err
		}
		if ep.PublicEndpointDomainName == "" {
			s.queryBase = s.api.BaseURL()
		} else {
			s.queryBase = "https://" + ep.PublicEndpointDomainName
		}
	}
	return s.queryBase + s.endpoint + ":findNeighbors", nil
}

// Upsert streams records to the index as datapoints
func (s *Store) Upsert(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]datapoint, len(records))
	for i, r := range records {
		points[i] = datapoint{DatapointID: r.ID, FeatureVector: r.Vector, EmbeddingMetadata: r.Payload}
		points[i].Restricts, points[i].NumericRestricts = restrictsOf(r.Payload, "")
	}
	if err := s.api.Post(ctx, s.indexPath+":upsertDatapoints", map[string]any{"datapoints": points}, nil); err != nil {
		return httputil.WithOperation(err, "upsert")
	}

	s.mu.Lock()
	for _, r := range records {
		s.written[r.ID] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// Query returns the nearest records. A missing index yields no matches.
func (s *Store) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	target, err := s.queryURL(ctx)
	if err != nil {
		if types.IsNotFound(err) {
			return []types.Match{}, nil
		}
		return nil, httputil.WithOperation(err, "query")
	}

	query := datapoint{DatapointID: "query", FeatureVector: q.Vector}
	query.Restricts, query.NumericRestricts = restrictsOf(q.Filters, "EQUAL")
	body := map[string]any{
		"deployedIndexId":     s.config.DeployedIndexID,
		"queries":             []map[string]any{{"datapoint": query, "neighborCount": q.Limit()}},
		"returnFullDatapoint": true,
	}

	var resp findNeighborsResponse
	if err := s.direct.Post(ctx, target, body, &resp); err != nil {
		if types.IsNotFound(err) {
			return []types.Match{}, nil
		}
		return nil, httputil.WithOperation(err, "query")
	}

	matches := []types.Match{}
	if len(resp.NearestNeighbors) == 0 {
		return matches, nil
	}
	for _, n := range resp.NearestNeighbors[0].Neighbors {
		score := n.Distance
		if s.config.Distance == config.DistanceEuclidean {
			score = -score
		}
		matches = append(matches, types.Match{ID: n.Datapoint.DatapointID, Score: score, Payload: payloadOf(n.Datapoint)})
	}
	return matches, nil
}

// Reset removes every datapoint this store has written. Datapoints written by
// other processes are not tracked and remain in the index.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.written))
	for id := range s.written {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	if err := s.api.Post(ctx, s.indexPath+":removeDatapoints", map[string]any{"datapointIds": ids}, nil); err != nil {
		return httputil.WithOperation(err, "reset")
	}
	s.mu.Lock()
	for _, id := range ids {
		delete(s.written, id)
	}
	s.mu.Unlock()
	return nil
}

// restrictsOf converts scalar fields into token and numeric restricts. Numeric
// restricts carry op when it is set.
func restrictsOf(fields map[string]any, op string) ([]restrict, []numericRestrict) {
	var tokens []restrict
	var numeric []numericRestrict
	for _, k := range common.SortedKeys(fields) {
		switch v := fields[k].(type) {
		case string:
			tokens = append(tokens, restrict{Namespace: k, AllowList: []string{v}})
		case bool:
			tokens = append(tokens, restrict{Namespace: k, AllowList: []string{fmt.Sprint(v)}})
		case int:
			numeric = append(numeric, numericRestrict{Namespace: k, ValueDouble: float64(v), Op: op})
		case int64:
			numeric = append(numeric, numericRestrict{Namespace: k, ValueDouble: float64(v), Op: op})
		case float64:
			numeric = append(numeric, numericRestrict{Namespace: k, ValueDouble: v, Op: op})
		}
	}
	return tokens, numeric
}

// payloadOf returns the datapoint's embedding metadata, or a payload rebuilt
// from its restricts when the metadata is absent.
func payloadOf(dp datapoint) map[string]any {
	if len(dp.EmbeddingMetadata) > 0 {
		return dp.EmbeddingMetadata
	}
	if len(dp.Restricts) == 0 && len(dp.NumericRestricts) == 0 {
		return nil
	}
	out := make(map[string]any)
	for _, r := range dp.Restricts {
		if len(r.AllowList) > 0 {
			out[r.Namespace] = r.AllowList[0]
		}
	}
	for _, r := range dp.NumericRestricts {
		out[r.Namespace] = r.ValueDouble
	}
	return out
}
