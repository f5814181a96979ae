package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// NewJSONRequest builds a request bound to ctx. A non-nil body is sent as JSON.
func NewJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, url, err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// ErrorResponse is the common {"error": {"message": ...}} error body
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// CommonHTTPHeaders returns headers sent with every request
func CommonHTTPHeaders() map[string]string {
	return map[string]string{
		"Accept":     "application/json",
		"User-Agent": "zentry-go/1.0",
	}
}

// AuthHeaders creates authentication headers for different methods.
// An empty token yields no headers.
func AuthHeaders(method, token string) map[string]string {
	if token == "" {
		return map[string]string{}
	}
	switch method {
	case "bearer":
		return map[string]string{
			"Authorization": "Bearer " + token,
		}
	case "api-key":
		return map[string]string{
			"api-key": token,
		}
	case "anthropic":
		return map[string]string{
			"x-api-key":         token,
			"anthropic-version": "2023-06-01",
		}
	case "goog":
		return map[string]string{
			"x-goog-api-key": token,
		}
	default:
		return map[string]string{
			method: token,
		}
	}
}
