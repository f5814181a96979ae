package gemini

import (
	"context"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

const (
	defaultEmbeddingModel = "models/text-embedding-004"
	defaultEmbeddingDims  = 768

	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

type embedRequest struct {
	Content              content `json:"content"`
	TaskType             string  `json:"taskType,omitempty"`
	OutputDimensionality int     `json:"outputDimensionality,omitempty"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embedder computes embeddings through the Gemini embedContent endpoint.
type Embedder struct {
	client *httputil.Client
	model  string
	dims   int
	config config.EmbedderConfig
}

// NewEmbedder creates a new Gemini embedder
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	model := cfg.Model
	if model == "" {
		model = defaultEmbeddingModel
	}
	dims := cfg.EmbeddingDims
	if dims == 0 {
		dims = defaultEmbeddingDims
	}
	return &Embedder{
		client: newClient(types.EmbedderGemini, cfg.BaseURL, cfg.APIKey, cfg.Timeout, cfg.RequestsPerMinute),
		model:  model,
		dims:   dims,
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (e *Embedder) Name() string {
	return types.EmbedderGemini
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

	req := embedRequest{
		Content:              content{Parts: []part{{Text: text}}},
		TaskType:             e.config.TaskType(action, fallback),
		OutputDimensionality: e.dims,
	}

	var resp embedResponse
	path := "/" + modelResource(e.model) + ":embedContent"
	if err := e.client.Post(ctx, path, req, &resp); err != nil {
		return nil, httputil.WithOperation(err, "embed")
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, types.NewProviderError(types.EmbedderGemini, types.ErrCodeServerError, "empty embedding returned").
			WithOperation("embed")
	}
	return resp.Embedding.Values, nil
}
