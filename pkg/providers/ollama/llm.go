package ollama

import (
	"context"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

// ollamaChatRequest represents a request to Ollama /api/chat endpoint
type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
	Options  map[string]any      `json:"options,omitempty"`
}

// ollamaChatMessage represents a message in the Ollama chat API
type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaChatResponse represents a non-streaming response from Ollama
type ollamaChatResponse struct {
	Model   string            `json:"model"`
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

// LLM generates completions through the Ollama /api/chat endpoint.
type LLM struct {
	client *httputil.Client
	puller *modelPuller
	model  string
	config config.LlmConfig
}

// NewLLM creates a new Ollama LLM
func NewLLM(cfg config.LlmConfig) (*LLM, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	client := newClient(types.LLMOllama, cfg.BaseURL, cfg.APIKey, cfg.Timeout, cfg.RequestsPerMinute)
	return &LLM{
		client: client,
		puller: &modelPuller{client: client, model: model},
		model:  model,
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (l *LLM) Name() string {
	return types.LLMOllama
}

// Generate returns the model's reply to messages
func (l *LLM) Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (string, error) {
	if err := l.puller.ensure(ctx); err != nil {
		return "", err
	}

	var resp ollamaChatResponse
	if err := l.client.Post(ctx, "/api/chat", l.request(messages, opts), &resp); err != nil {
		return "", httputil.WithOperation(err, "generate")
	}
	return resp.Message.Content, nil
}

func (l *LLM) request(messages []types.Message, opts types.GenerateOptions) ollamaChatRequest {
	req := ollamaChatRequest{
		Model:    l.model,
		Messages: make([]ollamaChatMessage, len(messages)),
		Options: map[string]any{
			"temperature": l.config.Temperature,
			"num_predict": l.config.MaxTokens,
			"top_p":       l.config.TopP,
		},
	}
	for i, m := range messages {
		req.Messages[i] = ollamaChatMessage{Role: m.Role, Content: m.Content}
	}

	if opts.Temperature != nil {
		req.Options["temperature"] = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.Options["num_predict"] = opts.MaxTokens
	}
	if len(opts.Stop) > 0 {
		req.Options["stop"] = opts.Stop
	}
	if opts.ResponseFormat == types.ResponseFormatJSON {
		req.Format = "json"
	}
	return req
}
