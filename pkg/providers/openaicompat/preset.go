// Package openaicompat adapts every backend that speaks the OpenAI chat and
// embeddings API (OpenAI, Azure OpenAI, Groq, Together, DeepSeek, xAI, Sarvam,
// LM Studio, LiteLLM) onto the zentry contracts.
package openaicompat

import (
	"os"

	"github.com/zentry-ai/zentry/pkg/types"
)

// Preset describes how one OpenAI-compatible backend is reached.
type Preset struct {
	// Provider is the registry name reported by instances.
	Provider string

	BaseURL      string
	BaseURLEnv   string
	APIKeyEnv    string
	DefaultModel string

	// Azure selects Azure OpenAI addressing (deployment routing, api-key header).
	Azure bool

	// JSON makes JSON-object the default response format.
	JSON bool

	// DefaultDims is the embedding size reported when embedding_dims is unset.
	DefaultDims int

	// SendDimensions forwards embedding_dims to backends that can shorten vectors.
	SendDimensions bool
}

// LLM presets
var (
	OpenAI = Preset{
		Provider:     types.LLMOpenAI,
		BaseURL:      "https://api.openai.com/v1",
		BaseURLEnv:   "OPENAI_BASE_URL",
		APIKeyEnv:    "OPENAI_API_KEY",
		DefaultModel: "gpt-4o-mini",
	}
	OpenAIStructured = Preset{
		Provider:     types.LLMOpenAIStructured,
		BaseURL:      "https://api.openai.com/v1",
		BaseURLEnv:   "OPENAI_BASE_URL",
		APIKeyEnv:    "OPENAI_API_KEY",
		DefaultModel: "gpt-4o-2024-08-06",
		JSON:         true,
	}
	AzureOpenAI = Preset{
		Provider:     types.LLMAzureOpenAI,
		BaseURLEnv:   "AZURE_OPENAI_ENDPOINT",
		APIKeyEnv:    "AZURE_OPENAI_API_KEY",
		DefaultModel: "gpt-4o",
		Azure:        true,
	}
	AzureOpenAIStructured = Preset{
		Provider:     types.LLMAzureOpenAIStructured,
		BaseURLEnv:   "AZURE_OPENAI_ENDPOINT",
		APIKeyEnv:    "AZURE_OPENAI_API_KEY",
		DefaultModel: "gpt-4o-2024-08-06",
		Azure:        true,
		JSON:         true,
	}
	Groq = Preset{
		Provider:     types.LLMGroq,
		BaseURL:      "https://api.groq.com/openai/v1",
		APIKeyEnv:    "GROQ_API_KEY",
		DefaultModel: "llama3-70b-8192",
	}
	Together = Preset{
		Provider:     types.LLMTogether,
		BaseURL:      "https://api.together.xyz/v1",
		APIKeyEnv:    "TOGETHER_API_KEY",
		DefaultModel: "mistralai/Mixtral-8x7B-Instruct-v0.1",
	}
	DeepSeek = Preset{
		Provider:     types.LLMDeepSeek,
		BaseURL:      "https://api.deepseek.com",
		BaseURLEnv:   "DEEPSEEK_API_BASE",
		APIKeyEnv:    "DEEPSEEK_API_KEY",
		DefaultModel: "deepseek-chat",
	}
	XAI = Preset{
		Provider:     types.LLMXAI,
		BaseURL:      "https://api.x.ai/v1",
		BaseURLEnv:   "XAI_API_BASE",
		APIKeyEnv:    "XAI_API_KEY",
		DefaultModel: "grok-2-latest",
	}
	Sarvam = Preset{
		Provider:     types.LLMSarvam,
		BaseURL:      "https://api.sarvam.ai/v1",
		APIKeyEnv:    "SARVAM_API_KEY",
		DefaultModel: "sarvam-m",
	}
	LMStudio = Preset{
		Provider:     types.LLMLMStudio,
		BaseURL:      "http://localhost:1234/v1",
		DefaultModel: "lmstudio-community/Meta-Llama-3.1-70B-Instruct-GGUF/Meta-Llama-3.1-70B-Instruct-IQ2_M.gguf",
	}
	LiteLLM = Preset{
		Provider:     types.LLMLiteLLM,
		BaseURL:      "http://localhost:4000/v1",
		BaseURLEnv:   "LITELLM_API_BASE",
		APIKeyEnv:    "LITELLM_API_KEY",
		DefaultModel: "gpt-4o-mini",
	}
)

// Embedder presets
var (
	OpenAIEmbedding = Preset{
		Provider:       types.EmbedderOpenAI,
		BaseURL:        "https://api.openai.com/v1",
		BaseURLEnv:     "OPENAI_BASE_URL",
		APIKeyEnv:      "OPENAI_API_KEY",
		DefaultModel:   "text-embedding-3-small",
		DefaultDims:    1536,
		SendDimensions: true,
	}
	AzureOpenAIEmbedding = Preset{
		Provider:       types.EmbedderAzureOpenAI,
		BaseURLEnv:     "AZURE_OPENAI_ENDPOINT",
		APIKeyEnv:      "AZURE_OPENAI_API_KEY",
		DefaultModel:   "text-embedding-3-small",
		Azure:          true,
		DefaultDims:    1536,
		SendDimensions: true,
	}
	TogetherEmbedding = Preset{
		Provider:     types.EmbedderTogether,
		BaseURL:      "https://api.together.xyz/v1",
		APIKeyEnv:    "TOGETHER_API_KEY",
		DefaultModel: "togethercomputer/m2-bert-80M-8k-retrieval",
		DefaultDims:  768,
	}
	LMStudioEmbedding = Preset{
		Provider:     types.EmbedderLMStudio,
		BaseURL:      "http://localhost:1234/v1",
		DefaultModel: "nomic-ai/nomic-embed-text-v1.5-GGUF/nomic-embed-text-v1.5.f16.gguf",
		DefaultDims:  1536,
	}
)

// defaultAzureAPIVersion is used when azure_kwargs.api_version is empty.
const defaultAzureAPIVersion = "2024-10-21"

// lmStudioAPIKey is sent to local servers that ignore authentication.
const lmStudioAPIKey = "lm-studio"

func (p Preset) apiKey(configured string) string {
	if configured != "" {
		return configured
	}
	if p.APIKeyEnv != "" {
		if key := os.Getenv(p.APIKeyEnv); key != "" {
			return key
		}
	}
	if p.Provider == types.LLMLMStudio {
		return lmStudioAPIKey
	}
	return ""
}

func (p Preset) baseURL(configured string) string {
	if configured != "" {
		return configured
	}
	if p.BaseURLEnv != "" {
		if u := os.Getenv(p.BaseURLEnv); u != "" {
			return u
		}
	}
	return p.BaseURL
}

func (p Preset) model(configured string) string {
	if configured != "" {
		return configured
	}
	return p.DefaultModel
}
