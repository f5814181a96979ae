package openaicompat

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

// LLM generates completions through the OpenAI chat completions API.
type LLM struct {
	preset Preset
	client *openai.Client
	model  string
	config config.LlmConfig
}

// NewLLM creates an LLM for the backend described by p
func NewLLM(p Preset, cfg config.LlmConfig) (*LLM, error) {
	client, err := newClient(p, cfg.APIKey, cfg.BaseURL, cfg.Azure, cfg.Timeout, cfg.RequestsPerMinute)
	if err != nil {
		return nil, err
	}
	return &LLM{
		preset: p,
		client: client,
		model:  p.model(cfg.Model),
		config: cfg,
	}, nil
}

// LLMConstructor returns a registry constructor bound to p
func LLMConstructor(p Preset) func(config.LlmConfig) (types.LLM, error) {
	return func(cfg config.LlmConfig) (types.LLM, error) {
		return NewLLM(p, cfg)
	}
}

// Name returns the registered provider name
func (l *LLM) Name() string {
	return l.preset.Provider
}

// Model returns the model requests are sent with
func (l *LLM) Model() string {
	return l.model
}

// Generate returns the model's reply to messages
func (l *LLM) Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, l.request(messages, opts))
	if err != nil {
		return "", wrapError(l.preset.Provider, "generate", err)
	}
	if len(resp.Choices) == 0 {
		return "", types.NewProviderError(l.preset.Provider, types.ErrCodeServerError, "response contained no choices").
			WithOperation("generate")
	}
	return resp.Choices[0].Message.Content, nil
}

func (l *LLM) request(messages []types.Message, opts types.GenerateOptions) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       l.model,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
		MaxTokens:   l.config.MaxTokens,
		Temperature: float32(l.config.Temperature),
		TopP:        float32(l.config.TopP),
		Stop:        opts.Stop,
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	format := opts.ResponseFormat
	if format == "" && l.preset.JSON {
		format = types.ResponseFormatJSON
	}
	if format == types.ResponseFormatJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}
