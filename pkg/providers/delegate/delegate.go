// Package delegate backs the langchain providers: each wraps a caller-supplied
// implementation passed through the config's client field and reports itself
// under the langchain name.
package delegate

import (
	"context"
	"errors"

	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

// ErrNoClient is returned when the config carries no client to wrap
var ErrNoClient = errors.New("client is required for the langchain provider")

// LLM forwards to a wrapped types.LLM
type LLM struct {
	inner types.LLM
}

// NewLLM wraps cfg.Client
func NewLLM(cfg config.LlmConfig) (*LLM, error) {
	if cfg.Client == nil {
		return nil, ErrNoClient
	}
	return &LLM{inner: cfg.Client}, nil
}

// Name returns the registered provider name
func (l *LLM) Name() string { return types.LLMLangchain }

// Unwrap returns the wrapped implementation
func (l *LLM) Unwrap() types.LLM { return l.inner }

// Generate forwards messages to the wrapped client
func (l *LLM) Generate(ctx context.Context, messages []types.Message, opts types.GenerateOptions) (string, error) {
	return l.inner.Generate(ctx, messages, opts)
}

// Embedder forwards to a wrapped types.Embedder
type Embedder struct {
	inner types.Embedder
	dims  int
}

// NewEmbedder wraps cfg.Client. A positive embedding_dims overrides the
// dimensions the wrapped embedder reports.
func NewEmbedder(cfg config.EmbedderConfig) (*Embedder, error) {
	if cfg.Client == nil {
		return nil, ErrNoClient
	}
	return &Embedder{inner: cfg.Client, dims: cfg.EmbeddingDims}, nil
}

// Name returns the registered provider name
func (e *Embedder) Name() string { return types.EmbedderLangchain }

// Unwrap returns the wrapped implementation
func (e *Embedder) Unwrap() types.Embedder { return e.inner }

// Dimensions returns the size of the vectors Embed returns
func (e *Embedder) Dimensions() int {
	if e.dims > 0 {
		return e.dims
	}
	return e.inner.Dimensions()
}

// Embed forwards text to the wrapped client
func (e *Embedder) Embed(ctx context.Context, text string, action types.EmbeddingAction) ([]float32, error) {
	return e.inner.Embed(ctx, text, action)
}

// VectorStore forwards to a wrapped types.VectorStore
type VectorStore struct {
	inner types.VectorStore
}

// NewVectorStore wraps cfg.Client
func NewVectorStore(cfg config.VectorStoreConfig) (*VectorStore, error) {
	if cfg.Client == nil {
		return nil, ErrNoClient
	}
	return &VectorStore{inner: cfg.Client}, nil
}

// Name returns the registered provider name
func (s *VectorStore) Name() string { return types.VectorStoreLangchain }

// Unwrap returns the wrapped implementation
func (s *VectorStore) Unwrap() types.VectorStore { return s.inner }

// Upsert forwards records to the wrapped store
func (s *VectorStore) Upsert(ctx context.Context, records []types.Record) error {
	return s.inner.Upsert(ctx, records)
}

// Query forwards q to the wrapped store
func (s *VectorStore) Query(ctx context.Context, q types.Query) ([]types.Match, error) {
	return s.inner.Query(ctx, q)
}

// Reset forwards to the wrapped store
func (s *VectorStore) Reset(ctx context.Context) error {
	return s.inner.Reset(ctx)
}
