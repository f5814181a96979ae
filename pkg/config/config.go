package config

import (
	"fmt"
	"time"

	"github.com/zentry-ai/zentry/pkg/types"
)

// AzureConfig carries Azure OpenAI deployment settings.
type AzureConfig struct {
	Endpoint   string `mapstructure:"azure_endpoint" yaml:"azure_endpoint,omitempty" json:"azure_endpoint,omitempty"`
	Deployment string `mapstructure:"azure_deployment" yaml:"azure_deployment,omitempty" json:"azure_deployment,omitempty"`
	APIVersion string `mapstructure:"api_version" yaml:"api_version,omitempty" json:"api_version,omitempty"`
	APIKey     string `mapstructure:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`
}

// LlmConfig is the base configuration shared by every LLM provider.
type LlmConfig struct {
	Model         string      `mapstructure:"model" yaml:"model,omitempty" json:"model,omitempty"`
	Temperature   float64     `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	APIKey        string      `mapstructure:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`
	MaxTokens     int         `mapstructure:"max_tokens" yaml:"max_tokens" json:"max_tokens"`
	TopP          float64     `mapstructure:"top_p" yaml:"top_p" json:"top_p"`
	TopK          int         `mapstructure:"top_k" yaml:"top_k" json:"top_k"`
	EnableVision  bool        `mapstructure:"enable_vision" yaml:"enable_vision" json:"enable_vision"`
	VisionDetails string      `mapstructure:"vision_details" yaml:"vision_details,omitempty" json:"vision_details,omitempty"`
	BaseURL       string      `mapstructure:"base_url" yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Azure         AzureConfig `mapstructure:"azure_kwargs" yaml:"azure_kwargs,omitempty" json:"azure_kwargs,omitempty"`
	AWSRegion     string      `mapstructure:"aws_region" yaml:"aws_region,omitempty" json:"aws_region,omitempty"`

	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute,omitempty" json:"requests_per_minute,omitempty"`

	// Client is the wrapped implementation used by the langchain provider.
	Client types.LLM `mapstructure:"client" yaml:"-" json:"-"`
}

// DefaultLlmConfig returns the documented LLM defaults
func DefaultLlmConfig() LlmConfig {
	return LlmConfig{
		Temperature:   0.1,
		MaxTokens:     2000,
		TopP:          0.1,
		TopK:          1,
		VisionDetails: "auto",
		Timeout:       60 * time.Second,
	}
}

// Validate checks field ranges
func (c LlmConfig) Validate() error {
	switch {
	case c.Temperature < 0 || c.Temperature > 2:
		return types.NewInvalidConfigError("temperature", "must be between 0 and 2, got %v", c.Temperature)
	case c.TopP < 0 || c.TopP > 1:
		return types.NewInvalidConfigError("top_p", "must be between 0 and 1, got %v", c.TopP)
	case c.MaxTokens < 0:
		return types.NewInvalidConfigError("max_tokens", "must not be negative")
	case c.TopK < 0:
		return types.NewInvalidConfigError("top_k", "must not be negative")
	}
	switch c.VisionDetails {
	case "", "auto", "low", "high":
	default:
		return types.NewInvalidConfigError("vision_details", "must be one of auto, low, high; got %q", c.VisionDetails)
	}
	return validateTransport(c.Timeout, c.RequestsPerMinute)
}

// EmbedderConfig is the base configuration shared by every embedding provider.
type EmbedderConfig struct {
	Model         string         `mapstructure:"model" yaml:"model,omitempty" json:"model,omitempty"`
	APIKey        string         `mapstructure:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`
	EmbeddingDims int            `mapstructure:"embedding_dims" yaml:"embedding_dims,omitempty" json:"embedding_dims,omitempty"`
	BaseURL       string         `mapstructure:"base_url" yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Azure         AzureConfig    `mapstructure:"azure_kwargs" yaml:"azure_kwargs,omitempty" json:"azure_kwargs,omitempty"`
	ModelKwargs   map[string]any `mapstructure:"model_kwargs" yaml:"model_kwargs,omitempty" json:"model_kwargs,omitempty"`
	AWSRegion     string         `mapstructure:"aws_region" yaml:"aws_region,omitempty" json:"aws_region,omitempty"`

	// Vertex AI
	VertexCredentialsJSON string `mapstructure:"vertex_credentials_json" yaml:"vertex_credentials_json,omitempty" json:"vertex_credentials_json,omitempty"`
	ProjectID             string `mapstructure:"project_id" yaml:"project_id,omitempty" json:"project_id,omitempty"`
	Location              string `mapstructure:"location" yaml:"location,omitempty" json:"location,omitempty"`

	// Task types sent by backends that embed documents and queries differently.
	MemoryAddEmbeddingType    string `mapstructure:"memory_add_embedding_type" yaml:"memory_add_embedding_type,omitempty" json:"memory_add_embedding_type,omitempty"`
	MemoryUpdateEmbeddingType string `mapstructure:"memory_update_embedding_type" yaml:"memory_update_embedding_type,omitempty" json:"memory_update_embedding_type,omitempty"`
	MemorySearchEmbeddingType string `mapstructure:"memory_search_embedding_type" yaml:"memory_search_embedding_type,omitempty" json:"memory_search_embedding_type,omitempty"`

	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute,omitempty" json:"requests_per_minute,omitempty"`

	// Client is the wrapped implementation used by the langchain provider.
	Client types.Embedder `mapstructure:"client" yaml:"-" json:"-"`
}

// DefaultEmbedderConfig returns the documented embedder defaults
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Location: "us-central1",
		Timeout:  30 * time.Second,
	}
}

// Validate checks field ranges
func (c EmbedderConfig) Validate() error {
	if c.EmbeddingDims < 0 {
		return types.NewInvalidConfigError("embedding_dims", "must not be negative")
	}
	return validateTransport(c.Timeout, c.RequestsPerMinute)
}

// TaskType returns the configured task type for action, or fallback when none is set.
func (c EmbedderConfig) TaskType(action types.EmbeddingAction, fallback string) string {
	var t string
	switch action {
	case types.EmbeddingActionAdd:
		t = c.MemoryAddEmbeddingType
	case types.EmbeddingActionUpdate:
		t = c.MemoryUpdateEmbeddingType
	case types.EmbeddingActionSearch:
		t = c.MemorySearchEmbeddingType
	}
	if t == "" {
		return fallback
	}
	return t
}

// Distance metrics
const (
	DistanceCosine    = "cosine"
	DistanceEuclidean = "euclidean"
	DistanceDot       = "dot"
)

// VectorStoreConfig is the base configuration shared by every vector-store provider.
// Each backend reads the connection fields it understands.
type VectorStoreConfig struct {
	CollectionName     string `mapstructure:"collection_name" yaml:"collection_name" json:"collection_name"`
	EmbeddingModelDims int    `mapstructure:"embedding_model_dims" yaml:"embedding_model_dims" json:"embedding_model_dims"`
	Distance           string `mapstructure:"distance" yaml:"distance" json:"distance"`

	Host             string `mapstructure:"host" yaml:"host,omitempty" json:"host,omitempty"`
	Port             int    `mapstructure:"port" yaml:"port,omitempty" json:"port,omitempty"`
	URL              string `mapstructure:"url" yaml:"url,omitempty" json:"url,omitempty"`
	APIKey           string `mapstructure:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Path             string `mapstructure:"path" yaml:"path,omitempty" json:"path,omitempty"`
	User             string `mapstructure:"user" yaml:"user,omitempty" json:"user,omitempty"`
	Password         string `mapstructure:"password" yaml:"password,omitempty" json:"password,omitempty"`
	DBName           string `mapstructure:"dbname" yaml:"dbname,omitempty" json:"dbname,omitempty"`
	ConnectionString string `mapstructure:"connection_string" yaml:"connection_string,omitempty" json:"connection_string,omitempty"`
	Namespace        string `mapstructure:"namespace" yaml:"namespace,omitempty" json:"namespace,omitempty"`
	ServiceName      string `mapstructure:"service_name" yaml:"service_name,omitempty" json:"service_name,omitempty"`

	// Google Cloud
	Region          string `mapstructure:"region" yaml:"region,omitempty" json:"region,omitempty"`
	ProjectID       string `mapstructure:"project_id" yaml:"project_id,omitempty" json:"project_id,omitempty"`
	IndexID         string `mapstructure:"index_id" yaml:"index_id,omitempty" json:"index_id,omitempty"`
	IndexEndpointID string `mapstructure:"index_endpoint_id" yaml:"index_endpoint_id,omitempty" json:"index_endpoint_id,omitempty"`
	DeployedIndexID string `mapstructure:"deployed_index_id" yaml:"deployed_index_id,omitempty" json:"deployed_index_id,omitempty"`
	CredentialsJSON string `mapstructure:"credentials_json" yaml:"credentials_json,omitempty" json:"credentials_json,omitempty"`

	// EnableEmbeddings marks stores that embed documents server-side.
	EnableEmbeddings bool   `mapstructure:"enable_embeddings" yaml:"enable_embeddings" json:"enable_embeddings"`
	Token            string `mapstructure:"token" yaml:"token,omitempty" json:"token,omitempty"`

	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute,omitempty" json:"requests_per_minute,omitempty"`

	// Client is the wrapped implementation used by the langchain provider.
	Client types.VectorStore `mapstructure:"client" yaml:"-" json:"-"`
}

// DefaultVectorStoreConfig returns the documented vector store defaults
func DefaultVectorStoreConfig() VectorStoreConfig {
	return VectorStoreConfig{
		CollectionName:     "zentry",
		EmbeddingModelDims: 1536,
		Distance:           DistanceCosine,
		Timeout:            30 * time.Second,
	}
}

// Validate checks required fields and ranges
func (c VectorStoreConfig) Validate() error {
	switch {
	case c.CollectionName == "":
		return types.NewInvalidConfigError("collection_name", "is required")
	case c.EmbeddingModelDims <= 0:
		return types.NewInvalidConfigError("embedding_model_dims", "must be positive, got %d", c.EmbeddingModelDims)
	case c.Port < 0 || c.Port > 65535:
		return types.NewInvalidConfigError("port", "must be between 0 and 65535, got %d", c.Port)
	}
	switch c.Distance {
	case DistanceCosine, DistanceEuclidean, DistanceDot:
	default:
		return types.NewInvalidConfigError("distance", "must be one of cosine, euclidean, dot; got %q", c.Distance)
	}
	return validateTransport(c.Timeout, c.RequestsPerMinute)
}

// Endpoint returns URL when set, otherwise scheme://host:port built from the
// fallback host and port for any part that is missing.
func (c VectorStoreConfig) Endpoint(scheme, fallbackHost string, fallbackPort int) string {
	if c.URL != "" {
		return c.URL
	}
	host := c.Host
	if host == "" {
		host = fallbackHost
	}
	port := c.Port
	if port == 0 {
		port = fallbackPort
	}
	if port == 0 {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func validateTransport(timeout time.Duration, rpm int) error {
	if timeout < 0 {
		return types.NewInvalidConfigError("timeout", "must not be negative")
	}
	if rpm < 0 {
		return types.NewInvalidConfigError("requests_per_minute", "must not be negative")
	}
	return nil
}
