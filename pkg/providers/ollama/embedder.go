package ollama

import (
	"context"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embedder computes embeddings through the Ollama /api/embed endpoint.
type Embedder struct {
	client *httputil.Client
	puller *modelPuller
	model  string
	dims   int
}

// NewEmbedder creates a new Ollama embedder
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	model := cfg.Model
	if model == "" {
		model = defaultEmbeddingModel
	}
	dims := cfg.EmbeddingDims
	if dims == 0 {
		dims = defaultEmbeddingDims
	}
	client := newClient(types.EmbedderOllama, cfg.BaseURL, cfg.APIKey, cfg.Timeout, cfg.RequestsPerMinute)
	return &Embedder{
		client: client,
		puller: &modelPuller{client: client, model: model},
		model:  model,
		dims:   dims,
	}, nil
}

// Name returns the registered provider name
func (e *Embedder) Name() string {
	return types.EmbedderOllama
}

// Dimensions returns the size of the vectors Embed returns
func (e *Embedder) Dimensions() int {
	return e.dims
}

// Embed returns the embedding of text
func (e *Embedder) Embed(ctx context.Context, text string, _ types.EmbeddingAction) ([]float32, error) {
	if err := e.puller.ensure(ctx); err != nil {
		return nil, err
	}

	var resp ollamaEmbedResponse
	if err := e.client.Post(ctx, "/api/embed", ollamaEmbedRequest{Model: e.model, Input: text}, &resp); err != nil {
		return nil, httputil.WithOperation(err, "embed")
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, types.NewProviderError(types.EmbedderOllama, types.ErrCodeServerError, "empty embedding returned").
			WithOperation("embed")
	}
	return resp.Embeddings[0], nil
}
