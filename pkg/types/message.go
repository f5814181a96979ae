package types

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn of a conversation sent to an LLM.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat selects the shape of an LLM response.
type ResponseFormat string

const (
	ResponseFormatText ResponseFormat = "text"
	ResponseFormatJSON ResponseFormat = "json_object"
)

// GenerateOptions overrides per-call generation settings. Zero values fall back
// to the instance configuration.
type GenerateOptions struct {
	ResponseFormat ResponseFormat `json:"response_format,omitempty"`
	Temperature    *float64       `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	Stop           []string       `json:"stop,omitempty"`
}

// NewMessages builds a conversation from an optional system prompt and a user prompt.
func NewMessages(system, user string) []Message {
	messages := make([]Message, 0, 2)
	if system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: system})
	}
	return append(messages, Message{Role: RoleUser, Content: user})
}

// EmbeddingAction describes why a text is being embedded.
type EmbeddingAction string

const (
	EmbeddingActionAdd    EmbeddingAction = "add"
	EmbeddingActionSearch EmbeddingAction = "search"
	EmbeddingActionUpdate EmbeddingAction = "update"
)
