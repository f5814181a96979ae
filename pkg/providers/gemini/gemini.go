// Package gemini provides the Google Gemini (Generative Language API) chat
// and embedding adapters.
package gemini

import (
	"os"
	"strings"
	"time"

	httputil "github.com/zentry-ai/zentry/internal/http"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

func newClient(provider, baseURL, apiKey string, timeout time.Duration, rpm int) *httputil.Client {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return httputil.NewClient(httputil.ClientConfig{
		Provider:          provider,
		BaseURL:           baseURL,
		Headers:           httputil.AuthHeaders("goog", apiKey),
		Timeout:           timeout,
		RequestsPerMinute: rpm,
	})
}

// modelResource returns model prefixed with "models/" as the REST paths expect.
func modelResource(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}
