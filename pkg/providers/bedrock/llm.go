package bedrock

import (
	"context"
	"strings"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

const defaultModel = "anthropic.claude-3-5-sonnet-20240620-v1:0"

type contentBlock struct {
	Text string `json:"text"`
}

type converseMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type inferenceConfig struct {
	MaxTokens     int      `json:"maxTokens,omitempty"`
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"topP,omitempty"`
	StopSequences []string `json:"stopSequences,omitempty"`
}

type converseRequest struct {
	Messages        []converseMessage `json:"messages"`
	System          []contentBlock    `json:"system,omitempty"`
	InferenceConfig inferenceConfig   `json:"inferenceConfig"`
}

type converseResponse struct {
	Output struct {
		Message converseMessage `json:"message"`
	} `json:"output"`
	StopReason string `json:"stopReason"`
}

// LLM generates completions through the Bedrock Converse API.
type LLM struct {
	client *httputil.Client
	model  string
	config config.LlmConfig
}

// NewLLM creates a new Bedrock LLM
func NewLLM(cfg config.LlmConfig) (*LLM, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	region := resolveRegion(cfg.AWSRegion)
	return &LLM{
		client: newClient(types.LLMAWSBedrock, cfg.BaseURL, resolveAPIKey(cfg.APIKey), region, cfg.Timeout, cfg.RequestsPerMinute),
		model:  model,
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (l *LLM) Name() string {
	return types.LLMAWSBedrock
}

// Generate returns the model's reply to messages
func (l *LLM) Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (string, error) {
	var resp converseResponse
	if err := l.client.Post(ctx, modelPath(l.model, "converse"), l.request(messages, opts), &resp); err != nil {
		return "", httputil.WithOperation(err, "generate")
	}

	var sb strings.Builder
	for _, block := range resp.Output.Message.Content {
		sb.WriteString(block.Text)
	}
	return sb.String(), nil
}

// request maps system messages to the system field; Converse accepts only
// user and assistant turns in messages.
func (l *LLM) request(messages []types.Message, opts types.GenerateOptions) converseRequest {
	req := converseRequest{
		InferenceConfig: inferenceConfig{
			MaxTokens:     l.config.MaxTokens,
			Temperature:   l.config.Temperature,
			TopP:          l.config.TopP,
			StopSequences: opts.Stop,
		},
	}
	for _, m := range messages {
		if m.Role == types.RoleSystem {
			req.System = append(req.System, contentBlock{Text: m.Content})
			continue
		}
		req.Messages = append(req.Messages, converseMessage{Role: m.Role, Content: []contentBlock{{Text: m.Content}}})
	}

	if opts.Temperature != nil {
		req.InferenceConfig.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.InferenceConfig.MaxTokens = opts.MaxTokens
	}
	return req
}
