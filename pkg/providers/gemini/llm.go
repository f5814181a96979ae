package gemini

import (
	"context"
	"strings"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

const defaultModel = "gemini-2.0-flash"

type generationConfig struct {
	Temperature      float64  `json:"temperature"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	TopP             float64  `json:"topP,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// LLM generates completions through the Gemini generateContent endpoint.
type LLM struct {
	client *httputil.Client
	model  string
	config config.LlmConfig
}

// NewLLM creates a new Gemini LLM. The API key falls back to GOOGLE_API_KEY,
// then GEMINI_API_KEY.
func NewLLM(cfg config.LlmConfig) (*LLM, error) {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &LLM{
		client: newClient(types.LLMGemini, cfg.BaseURL, cfg.APIKey, cfg.Timeout, cfg.RequestsPerMinute),
		model:  model,
		config: cfg,
	}, nil
}

// Name returns the registered provider name
func (l *LLM) Name() string {
	return types.LLMGemini
}

// Generate returns the model's reply to messages
func (l *LLM) Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (string, error) {
	var resp generateResponse
	path := "/" + modelResource(l.model) + ":generateContent"
	if err := l.client.Post(ctx, path, l.request(messages, opts), &resp); err != nil {
		return "", httputil.WithOperation(err, "generate")
	}
	if len(resp.Candidates) == 0 {
		return "", types.NewProviderError(types.LLMGemini, types.ErrCodeServerError, "response contained no candidates").
			WithOperation("generate")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// request maps the assistant role to "model" and system messages to the
// system instruction.
func (l *LLM) request(messages []types.Message, opts types.GenerateOptions) generateRequest {
	req := generateRequest{
		GenerationConfig: generationConfig{
			Temperature:     l.config.Temperature,
			MaxOutputTokens: l.config.MaxTokens,
			TopP:            l.config.TopP,
			StopSequences:   opts.Stop,
		},
	}
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			if req.SystemInstruction == nil {
				req.SystemInstruction = &content{}
			}
			req.SystemInstruction.Parts = append(req.SystemInstruction.Parts, part{Text: m.Content})
		case types.RoleAssistant:
			req.Contents = append(req.Contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			req.Contents = append(req.Contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}

	if opts.Temperature != nil {
		req.GenerationConfig.Temperature = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		req.GenerationConfig.MaxOutputTokens = opts.MaxTokens
	}
	if opts.ResponseFormat == types.ResponseFormatJSON {
		req.GenerationConfig.ResponseMimeType = "application/json"
	}
	return req
}
