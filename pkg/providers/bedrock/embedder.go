package bedrock

import (
	"context"
	"strings"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

const (
	defaultEmbeddingModel = "amazon.titan-embed-text-v1"
	defaultEmbeddingDims  = 1536
)

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type titanResponse struct {
	Embedding []float32 `json:"embedding"`
}

type cohereRequest struct {
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type cohereResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embedder computes embeddings through Bedrock InvokeModel. Amazon Titan and
// Cohere request shapes are supported, chosen by the model ID prefix.
type Embedder struct {
	client *httputil.Client
	model  string
	dims   int
	config config.EmbedderConfig
}

// NewEmbedder creates a new Bedrock embedder
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	model := cfg.Model
	if model == "" {
		model = defaultEmbeddingModel
	}
	dims := cfg.EmbeddingDims
	if dims == 0 {
		dims = defaultEmbeddingDims
	}
	region := resolveRegion(cfg.AWSRegion)
	return &Embedder{
		client: newClient(types.EmbedderAWSBedrock, cfg.BaseURL, resolveAPIKey(cfg.APIKey), region, cfg.Timeout, cfg.RequestsPerMinute),
		model:  model,
		dims:   dims,
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (e *Embedder) Name() string {
	return types.EmbedderAWSBedrock
}

// Dimensions returns the size of the vectors Embed returns
func (e *Embedder) Dimensions() int {
	return e.dims
}

// Embed returns the embedding of text
func (e *Embedder) Embed(ctx context.Context, text string, action types.EmbeddingAction) ([]float32, error) {
	text = strings.ReplaceAll(text, "\n", " ")
	path := modelPath(e.model, "invoke")

	var vec []float32
	if strings.HasPrefix(e.model, "cohere.") {
		inputType := "search_document"
		if action == types.EmbeddingActionSearch {
			inputType = "search_query"
		}
		var resp cohereResponse
		req := cohereRequest{Texts: []string{text}, InputType: e.config.TaskType(action, inputType)}
		if err := e.client.Post(ctx, path, req, &resp); err != nil {
			return nil, httputil.WithOperation(err, "embed")
		}
		if len(resp.Embeddings) > 0 {
			vec = resp.Embeddings[0]
		}
	} else {
		req := titanRequest{InputText: text}
		if strings.Contains(e.model, "titan-embed-text-v2") && e.config.EmbeddingDims > 0 {
			req.Dimensions = e.config.EmbeddingDims
		}
		var resp titanResponse
		if err := e.client.Post(ctx, path, req, &resp); err != nil {
			return nil, httputil.WithOperation(err, "embed")
		}
		vec = resp.Embedding
	}

	if len(vec) == 0 {
		return nil, types.NewProviderError(types.EmbedderAWSBedrock, types.ErrCodeServerError, "empty embedding returned").
			WithOperation("embed")
	}
	return vec, nil
}
