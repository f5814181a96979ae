package openaicompat

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

// Embedder computes embeddings through the OpenAI embeddings API.
type Embedder struct {
	preset Preset
	client *openai.Client
	model  string
	dims   int
}

// NewEmbedder creates an Embedder for the backend described by p
func NewEmbedder(p Preset, cfg config.EmbedderConfig) (*Embedder, error) {
	client, err := newClient(p, cfg.APIKey, cfg.BaseURL, cfg.Azure, cfg.Timeout, cfg.RequestsPerMinute)
	if err != nil {
		return nil, err
	}
	dims := cfg.EmbeddingDims
	if dims == 0 {
		dims = p.DefaultDims
	}
	return &Embedder{
		preset: p,
		client: client,
		model:  p.model(cfg.Model),
		dims:   dims,
	}, nil
}

// EmbedderConstructor returns a registry constructor bound to p
func EmbedderConstructor(p Preset) func(config.EmbedderConfig) (types.Embedder, error) {
	return func(cfg config.EmbedderConfig) (types.Embedder, error) {
		return NewEmbedder(p, cfg)
	}
}

// Name returns the registered provider name
func (e *Embedder) Name() string {
	return e.preset.Provider
}

// Dimensions returns the size of the vectors Embed returns
func (e *Embedder) Dimensions() int {
	return e.dims
}

// Embed returns the embedding of text
func (e *Embedder) Embed(ctx context.Context, text string, _ types.EmbeddingAction) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{strings.ReplaceAll(text, "\n", " ")},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.preset.SendDimensions {
		req.Dimensions = e.dims
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, wrapError(e.preset.Provider, "embed", err)
	}
	if len(resp.Data) == 0 {
		return nil, types.NewProviderError(e.preset.Provider, types.ErrCodeServerError, "no embedding returned").
			WithOperation("embed")
	}
	return resp.Data[0].Embedding, nil
}
