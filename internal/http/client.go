// Package http provides the JSON-over-HTTP client shared by the REST-based
// provider adapters.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zentry-ai/zentry/pkg/types"
)

const maxErrorBody = 1024

// ClientConfig configures a Client
type ClientConfig struct {
	// Provider names the backend in returned errors.
	Provider string

	// BaseURL is prefixed to every request path that is not an absolute URL.
	BaseURL string

	Headers           map[string]string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int

	// HTTPClient replaces the default client, e.g. with an oauth2 client.
	// Timeout is not applied to a supplied client.
	HTTPClient *http.Client
}

// Client sends JSON requests to a single backend. Construction performs no I/O.
type Client struct {
	provider string
	baseURL  string
	headers  map[string]string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a new Client
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	headers := CommonHTTPHeaders()
	if config.UserAgent != "" {
		headers["User-Agent"] = config.UserAgent
	}
	for k, v := range config.Headers {
		headers[k] = v
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		provider: config.Provider,
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		headers:  headers,
		client:   client,
		limiter:  newLimiter(config.RequestsPerMinute),
	}
}

// NewHTTPClient returns an *http.Client for adapters built on SDKs that accept
// one. When requestsPerMinute is positive every request first waits on a
// limiter. A nil base uses http.DefaultTransport.
func NewHTTPClient(timeout time.Duration, requestsPerMinute int, base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	transport := base
	if limiter := newLimiter(requestsPerMinute); limiter != nil {
		transport = &limitedTransport{base: base, limiter: limiter}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}

type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// BaseURL returns the configured base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends body as JSON (when non-nil) and decodes the response into out (when
// non-nil). Non-2xx responses are returned as *types.ProviderError carrying the
// status code.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	req, err := NewJSONRequest(ctx, method, c.url(path), body)
	if err != nil {
		return types.NewProviderError(c.provider, types.ErrCodeInvalidRequest, err.Error()).WithOriginalErr(err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return types.NewProviderError(c.provider, types.ErrCodeNetwork, err.Error()).WithOriginalErr(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return types.NewProviderError(c.provider, types.ErrCodeUnknown, errorMessage(resp.StatusCode, raw)).
			WithStatusCode(resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return types.NewProviderError(c.provider, types.ErrCodeServerError, "failed to decode response: "+err.Error()).
			WithOriginalErr(err)
	}
	return nil
}

// Get is shorthand for Do with GET
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post is shorthand for Do with POST
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put is shorthand for Do with PUT
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete is shorthand for Do with DELETE
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func errorMessage(status int, body []byte) string {
	var parsed ErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// WithOperation tags the *types.ProviderError in err's chain with operation.
// Other errors are returned unchanged.
func WithOperation(err error, operation string) error {
	var pe *types.ProviderError
	if errors.As(err, &pe) {
		pe.WithOperation(operation)
	}
	return err
}
