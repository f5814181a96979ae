package types

// PayloadDataKey is the payload field holding the raw text of a record. Stores
// that embed server-side read the text from it.
const PayloadDataKey = "data"

// Record is a vector with its identifier and metadata.
type Record struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Text returns the raw text stored under PayloadDataKey, if any.
func (r Record) Text() string {
	if s, ok := r.Payload[PayloadDataKey].(string); ok {
		return s
	}
	return ""
}

// Query describes a similarity search.
type Query struct {
	Vector []float32 `json:"vector,omitempty"`

	// Text is used instead of Vector by stores that embed server-side.
	Text string `json:"text,omitempty"`

	// TopK defaults to DefaultTopK when zero.
	TopK int `json:"top_k,omitempty"`

	// Filters restricts matches to records whose payload equals every entry.
	Filters map[string]any `json:"filters,omitempty"`
}

// DefaultTopK is used when Query.TopK is not set.
const DefaultTopK = 5

// Limit returns the effective number of matches requested.
func (q Query) Limit() int {
	if q.TopK <= 0 {
		return DefaultTopK
	}
	return q.TopK
}

// Match is a single search hit.
type Match struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload,omitempty"`
}
