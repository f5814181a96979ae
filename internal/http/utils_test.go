package http

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONRequest(t *testing.T) {
	req, err := NewJSONRequest(context.Background(), "POST", "http://localhost/x", map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(body))

	req, err = NewJSONRequest(context.Background(), "GET", "http://localhost/x", nil)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Content-Type"))
	assert.Nil(t, req.Body)
}

func TestNewJSONRequest_InvalidBody(t *testing.T) {
	_, err := NewJSONRequest(context.Background(), "POST", "http://localhost/x", make(chan int))
	assert.Error(t, err)
}

func TestAuthHeaders(t *testing.T) {
	testCases := []struct {
		method   string
		token    string
		expected map[string]string
	}{
		{"bearer", "tok", map[string]string{"Authorization": "Bearer tok"}},
		{"api-key", "tok", map[string]string{"api-key": "tok"}},
		{"anthropic", "tok", map[string]string{"x-api-key": "tok", "anthropic-version": "2023-06-01"}},
		{"goog", "tok", map[string]string{"x-goog-api-key": "tok"}},
		{"Api-Key", "tok", map[string]string{"Api-Key": "tok"}},
		{"bearer", "", map[string]string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.method, func(t *testing.T) {
			assert.Equal(t, tc.expected, AuthHeaders(tc.method, tc.token))
		})
	}
}
