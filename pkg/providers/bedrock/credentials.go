// Package bedrock provides the AWS Bedrock chat (Converse API) and embedding
// (InvokeModel) adapters. Requests are signed with AWS Signature V4, or carry
// a Bedrock API key as a bearer token when one is configured.
package bedrock

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	httputil "github.com/zentry-ai/zentry/internal/http"
)

const defaultRegion = "us-west-2"

var errNoCredentials = errors.New("bedrock: no api_key and no AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY in the environment")

// Credentials are static AWS access keys
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string // Optional, for temporary credentials
}

// CredentialsFromEnv reads the standard AWS credential variables
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return Credentials{}, errNoCredentials
	}
	return creds, nil
}

// resolveRegion returns configured, then AWS_REGION, then AWS_DEFAULT_REGION,
// then us-west-2.
func resolveRegion(configured string) string {
	for _, r := range []string{configured, os.Getenv("AWS_REGION"), os.Getenv("AWS_DEFAULT_REGION")} {
		if r != "" {
			return r
		}
	}
	return defaultRegion
}

// resolveAPIKey returns configured, then AWS_BEARER_TOKEN_BEDROCK.
func resolveAPIKey(configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv("AWS_BEARER_TOKEN_BEDROCK")
}

func endpoint(configured, region string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	return "https://bedrock-runtime." + region + ".amazonaws.com"
}

// signingTransport signs each request with credentials loaded from the
// environment on first use. A failed load is retried on the next request.
type signingTransport struct {
	base   http.RoundTripper
	region string

	mu     sync.Mutex
	signer *Signer
}

func (t *signingTransport) loadSigner() (*Signer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.signer != nil {
		return t.signer, nil
	}
	creds, err := CredentialsFromEnv()
	if err != nil {
		return nil, err
	}
	t.signer = NewSigner(creds, t.region)
	return t.signer, nil
}

// RoundTrip signs req with SigV4 and sends it
func (t *signingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	signer, err := t.loadSigner()
	if err != nil {
		return nil, err
	}

	signed := req.Clone(req.Context())
	if err := signer.SignRequest(signed); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(signed)
}

// newClient assembles the REST client for one adapter. With an API key the
// key is sent as a bearer token; otherwise requests are signed.
func newClient(provider, baseURL, apiKey, region string, timeout time.Duration, rpm int) *httputil.Client {
	config := httputil.ClientConfig{
		Provider:          provider,
		BaseURL:           endpoint(baseURL, region),
		Timeout:           timeout,
		RequestsPerMinute: rpm,
	}
	if apiKey != "" {
		config.Headers = httputil.AuthHeaders("bearer", apiKey)
	} else {
		config.HTTPClient = &http.Client{
			Timeout:   timeout,
			Transport: &signingTransport{base: http.DefaultTransport, region: region},
		}
	}
	return httputil.NewClient(config)
}

// modelPath returns /model/{id}/{action} with the model ID escaped for the URL.
func modelPath(modelID, action string) string {
	return "/model/" + strings.ReplaceAll(url.PathEscape(modelID), ":", "%3A") + "/" + action
}
