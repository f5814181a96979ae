// Package huggingface provides the Hugging Face embedding adapter. With a
// base_url it talks to a Text Embeddings Inference server through its
// OpenAI-compatible API; otherwise it calls the hosted Inference API.
package huggingface

import (
	"context"
	"os"
	"strings"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/providers/openaicompat"
	"github.com/zentry-ai/zentry/pkg/types"
)

const (
	inferenceBaseURL = "https://router.huggingface.co/hf-inference/models"
	defaultModel     = "sentence-transformers/multi-qa-MiniLM-L6-cos-v1"
	defaultDims      = 384
)

// NewEmbedder returns the TEI-backed embedder when base_url is set and the
// Inference API embedder otherwise.
func NewEmbedder(cfg config.EmbedderConfig) (types.Embedder, error) {
	if cfg.BaseURL != "" {
		return openaicompat.NewEmbedder(openaicompat.Preset{
			Provider:     types.EmbedderHuggingFace,
			DefaultModel: "tei",
			DefaultDims:  defaultDims,
		}, cfg)
	}
	return NewInferenceEmbedder(cfg), nil
}

// InferenceEmbedder calls the feature-extraction pipeline of the hosted
// Inference API.
type InferenceEmbedder struct {
	client *httputil.Client
	path   string
	dims   int
}

// NewInferenceEmbedder creates a new InferenceEmbedder. The token falls back
// to HUGGINGFACE_API_KEY, then HF_TOKEN.
func NewInferenceEmbedder(cfg config.EmbedderConfig) *InferenceEmbedder {
	token := cfg.APIKey
	for _, env := range []string{"HUGGINGFACE_API_KEY", "HF_TOKEN"} {
		if token == "" {
			token = os.Getenv(env)
		}
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if !strings.Contains(model, "/") {
		model = "sentence-transformers/" + model
	}
	dims := cfg.EmbeddingDims
	if dims == 0 {
		dims = defaultDims
	}

	return &InferenceEmbedder{
		client: httputil.NewClient(httputil.ClientConfig{
			Provider:          types.EmbedderHuggingFace,
			BaseURL:           inferenceBaseURL,
			Headers:           httputil.AuthHeaders("bearer", token),
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		path: "/" + model + "/pipeline/feature-extraction",
		dims: dims,
	}
}

// Name returns the registered provider name
func (e *InferenceEmbedder) Name() string {
	return types.EmbedderHuggingFace
}

// Dimensions returns the size of the vectors Embed returns
func (e *InferenceEmbedder) Dimensions() int {
	return e.dims
}

// Embed returns the embedding of text
func (e *InferenceEmbedder) Embed(ctx context.Context, text string, _ types.EmbeddingAction) ([]float32, error) {
	var vec []float32
	body := map[string]any{"inputs": text}
	if err := e.client.Post(ctx, e.path, body, &vec); err != nil {
		return nil, httputil.WithOperation(err, "embed")
	}
	if len(vec) == 0 {
		return nil, types.NewProviderError(types.EmbedderHuggingFace, types.ErrCodeServerError, "empty embedding returned").
			WithOperation("embed")
	}
	return vec, nil
}
