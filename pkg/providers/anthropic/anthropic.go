// Package anthropic provides the Anthropic Messages API adapter.
package anthropic

import (
	"context"
	"os"
	"strings"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-3-5-sonnet-20240620"
)

// AnthropicRequest represents the request payload for Anthropic API
type AnthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	System        string             `json:"system,omitempty"`
	Messages      []AnthropicMessage `json:"messages"`
	Temperature   float64            `json:"temperature"`
	TopP          *float64           `json:"top_p,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

// AnthropicMessage represents a message in the conversation
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicResponse represents the response from Anthropic API
type AnthropicResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// LLM generates completions through the Anthropic Messages API.
type LLM struct {
	client *httputil.Client
	model  string
	config config.LlmConfig
}

// NewLLM creates a new Anthropic LLM. The API key falls back to ANTHROPIC_API_KEY.
func NewLLM(cfg config.LlmConfig) (*LLM, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &LLM{
		client: httputil.NewClient(httputil.ClientConfig{
			Provider:          types.LLMAnthropic,
			BaseURL:           baseURL,
			Headers:           httputil.AuthHeaders("anthropic", apiKey),
			Timeout:           cfg.Timeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
		model:  model,
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (l *LLM) Name() string {
	return types.LLMAnthropic
}

// Generate returns the model's reply to messages
func (l *LLM) Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (string, error) {
	var resp AnthropicResponse
	if err := l.client.Post(ctx, "/v1/messages", l.request(messages, opts), &resp); err != nil {
		return "", httputil.WithOperation(err, "generate")
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// request lifts system messages into the top-level system prompt.
func (l *LLM) request(messages []types.Message, opts types.GenerateOptions) AnthropicRequest {
	req := AnthropicRequest{
		Model:         l.model,
		MaxTokens:     l.config.MaxTokens,
		Temperature:   l.config.Temperature,
		StopSequences: opts.Stop,
	}
	if l.config.TopP > 0 {
		topP := l.config.TopP
		req.TopP = &topP
	}

	var system []string
	for _, m := range messages {
		if m.Role == types.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, AnthropicMessage{Role: m.Role, Content: m.Content})
	}
	req.System = strings.Join(system, "\n")

	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	return req
}
