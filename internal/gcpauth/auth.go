// Package gcpauth provides lazily initialized Google Cloud OAuth2 token
// sources for the Vertex AI adapters.
package gcpauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CloudPlatformScope is the GCP scope for Vertex AI
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// TokenSource resolves credentials on the first Token call. Credentials come
// from a static access token, service account JSON (inline or a file path), or
// Application Default Credentials, in that order. A failed resolution is
// retried on the next call.
type TokenSource struct {
	accessToken string
	credentials string

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewTokenSource creates a new TokenSource. It performs no I/O.
func NewTokenSource(accessToken, credentials string) *TokenSource {
	return &TokenSource{accessToken: accessToken, credentials: credentials}
}

// Token returns a valid OAuth2 token, refreshing if necessary
func (s *TokenSource) Token() (*oauth2.Token, error) {
	source, err := s.load(context.Background())
	if err != nil {
		return nil, err
	}
	return source.Token()
}

func (s *TokenSource) load(ctx context.Context) (oauth2.TokenSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source != nil {
		return s.source, nil
	}

	switch {
	case s.accessToken != "":
		s.source = oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: s.accessToken,
			TokenType:   "Bearer",
		})

	case s.credentials != "":
		credentialsJSON, err := readCredentials(s.credentials)
		if err != nil {
			return nil, err
		}
		creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to create credentials from JSON: %w", err)
		}
		s.source = oauth2.ReuseTokenSource(nil, creds.TokenSource)

	default:
		creds, err := google.FindDefaultCredentials(ctx, CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %w", err)
		}
		s.source = oauth2.ReuseTokenSource(nil, creds.TokenSource)
	}
	return s.source, nil
}

// readCredentials accepts raw JSON or a path to a JSON file.
func readCredentials(credentials string) ([]byte, error) {
	var raw []byte
	if strings.HasPrefix(strings.TrimSpace(credentials), "{") {
		raw = []byte(credentials)
	} else {
		var err error
		raw, err = os.ReadFile(credentials)
		if err != nil {
			return nil, fmt.Errorf("failed to read service account file: %w", err)
		}
	}

	var shape map[string]any
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("invalid service account JSON: %w", err)
	}
	return raw, nil
}

// HTTPClient returns a client that authorizes every request with s.
func HTTPClient(s *TokenSource, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: s,
			Base:   http.DefaultTransport,
		},
	}
}
