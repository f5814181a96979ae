// Package vertexai provides the Vertex AI text-embedding adapter.
package vertexai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/zentry-ai/zentry/internal/gcpauth"
	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

const (
	defaultModel = "text-embedding-004"
	defaultDims  = 256

	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

var errNoProject = errors.New("project_id is required (or set GOOGLE_CLOUD_PROJECT)")

type instance struct {
	Content  string `json:"content"`
	TaskType string `json:"task_type,omitempty"`
}

type predictRequest struct {
	Instances  []instance     `json:"instances"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		Embeddings struct {
			Values []float32 `json:"values"`
		} `json:"embeddings"`
	} `json:"predictions"`
}

// Embedder computes embeddings through the Vertex AI predict endpoint.
// Credentials are resolved on the first request: api_key as a static access
// token, then vertex_credentials_json (inline JSON or a file path), then
// Application Default Credentials.
type Embedder struct {
	client *httputil.Client
	path   string
	dims   int
	config config.EmbedderConfig
}

// NewEmbedder creates a new Vertex AI embedder
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	project := cfg.ProjectID
	if project == "" {
		project = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if project == "" {
		return nil, errNoProject
	}
	location := cfg.Location
	if location == "" {
		location = "us-central1"
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	dims := cfg.EmbeddingDims
	if dims == 0 {
		dims = defaultDims
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", location)
	}

	source := gcpauth.NewTokenSource(cfg.APIKey, cfg.VertexCredentialsJSON)
	return &Embedder{
		client: httputil.NewClient(httputil.ClientConfig{
			Provider:          types.EmbedderVertexAI,
			BaseURL:           baseURL,
			HTTPClient:        gcpauth.HTTPClient(source, cfg.Timeout),
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		path:   fmt.Sprintf("/projects/%s/locations/%s/publishers/google/models/%s:predict", project, location, model),
		dims:   dims,
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (e *Embedder) Name() string {
	return types.EmbedderVertexAI
}

// Dimensions returns the size of the vectors Embed returns
func (e *Embedder) Dimensions() int {
	return e.dims
}

// Embed uses RETRIEVAL_QUERY for searches and RETRIEVAL_DOCUMENT otherwise,
// unless memory_*_embedding_type overrides it.
func (e *Embedder) Embed(ctx context.Context, text string, action types.EmbeddingAction) ([]float32, error) {
	fallback := taskRetrievalDocument
	if action == types.EmbeddingActionSearch {
		fallback = taskRetrievalQuery
	}

	req := predictRequest{
		Instances:  []instance{{Content: text, TaskType: e.config.TaskType(action, fallback)}},
		Parameters: map[string]any{"outputDimensionality": e.dims},
	}

	var resp predictResponse
	if err := e.client.Post(ctx, e.path, req, &resp); err != nil {
		return nil, httputil.WithOperation(err, "embed")
	}
	if len(resp.Predictions) == 0 || len(resp.Predictions[0].Embeddings.Values) == 0 {
		return nil, types.NewProviderError(types.EmbedderVertexAI, types.ErrCodeServerError, "empty embedding returned").
			WithOperation("embed")
	}
	return resp.Predictions[0].Embeddings.Values, nil
}
