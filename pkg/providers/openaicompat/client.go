package openaicompat

import (
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	httputil "github.com/zentry-ai/zentry/internal/http"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

var errAzureEndpoint = errors.New("azure_kwargs.azure_endpoint is required")

// newClient assembles a go-openai client for p. It performs no I/O.
func newClient(p Preset, apiKey, baseURL string, azure config.AzureConfig, timeout time.Duration, rpm int) (*openai.Client, error) {
	var cc openai.ClientConfig
	if p.Azure {
		key := azure.APIKey
		if key == "" {
			key = apiKey
		}
		endpoint := azure.Endpoint
		if endpoint == "" {
			endpoint = p.baseURL(baseURL)
		}
		if endpoint == "" {
			return nil, errAzureEndpoint
		}

		cc = openai.DefaultAzureConfig(p.apiKey(key), endpoint)
		cc.APIVersion = defaultAzureAPIVersion
		if azure.APIVersion != "" {
			cc.APIVersion = azure.APIVersion
		}
		if deployment := azure.Deployment; deployment != "" {
			cc.AzureModelMapperFunc = func(string) string { return deployment }
		}
	} else {
		cc = openai.DefaultConfig(p.apiKey(apiKey))
		cc.BaseURL = strings.TrimRight(p.baseURL(baseURL), "/")
	}

	cc.HTTPClient = httputil.NewHTTPClient(timeout, rpm, nil)
	return openai.NewClientWithConfig(cc), nil
}

// wrapError converts go-openai failures into *types.ProviderError.
func wrapError(provider, operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return types.NewProviderError(provider, types.ErrCodeUnknown, apiErr.Message).
			WithStatusCode(apiErr.HTTPStatusCode).
			WithOperation(operation).
			WithOriginalErr(err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return types.NewProviderError(provider, types.ErrCodeUnknown, reqErr.Error()).
			WithStatusCode(reqErr.HTTPStatusCode).
			WithOperation(operation).
			WithOriginalErr(err)
	}

	return types.NewProviderError(provider, types.ErrCodeNetwork, err.Error()).
		WithOperation(operation).
		WithOriginalErr(err)
}
