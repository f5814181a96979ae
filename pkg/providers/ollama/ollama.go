// Package ollama provides the native Ollama chat and embedding adapters.
package ollama

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	httputil "github.com/zentry-ai/zentry/internal/http"
)

const (
	defaultBaseURL        = "http://localhost:11434"
	defaultModel          = "llama3.1:70b"
	defaultEmbeddingModel = "nomic-embed-text"
	defaultEmbeddingDims  = 512
)

// baseURL returns configured, then OLLAMA_HOST, then the local default.
func baseURL(configured string) string {
	if configured != "" {
		return configured
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = "http://" + host
		}
		return host
	}
	return defaultBaseURL
}

func newClient(provider, base, apiKey string, timeout time.Duration, rpm int) *httputil.Client {
	return httputil.NewClient(httputil.ClientConfig{
		Provider:          provider,
		BaseURL:           baseURL(base),
		Headers:           httputil.AuthHeaders("bearer", apiKey),
		Timeout:           timeout,
		RequestsPerMinute: rpm,
	})
}

// ollamaTagsResponse represents the response from /api/tags endpoint
type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// modelPuller pulls a model into the local Ollama server on first use. A
// failed attempt is retried on the next call.
type modelPuller struct {
	client *httputil.Client
	model  string

	mu    sync.Mutex
	ready bool
}

func (p *modelPuller) ensure(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}

	var tags ollamaTagsResponse
	if err := p.client.Get(ctx, "/api/tags", &tags); err != nil {
		return httputil.WithOperation(err, "list_models")
	}
	for _, m := range tags.Models {
		if m.Name == p.model || m.Model == p.model || strings.TrimSuffix(m.Name, ":latest") == p.model {
			p.ready = true
			return nil
		}
	}

	body := map[string]any{"model": p.model, "stream": false}
	if err := p.client.Post(ctx, "/api/pull", body, nil); err != nil {
		return httputil.WithOperation(err, "pull_model")
	}
	p.ready = true
	return nil
}
