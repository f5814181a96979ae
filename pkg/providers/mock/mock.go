// Package mock provides the fixed embedder used when the vector store computes
// embeddings itself.
package mock

import (
	"context"

	"github.com/zentry-ai/zentry/pkg/types"
)

// Name is the provider name reported by the no-op embedder.
const Name = "mock"

const (
	dimensions = 10
	fillValue  = 0.1
)

// Embedder returns the same vector for every input.
type Embedder struct{}

// NewEmbedder creates a no-op embedder
func NewEmbedder() *Embedder {
	return &Embedder{}
}

// Name returns the registered provider name
func (e *Embedder) Name() string { return Name }

// Dimensions returns the size of the vectors Embed returns
func (e *Embedder) Dimensions() int { return dimensions }

// Embed ignores text and returns a constant vector.
func (e *Embedder) Embed(_ context.Context, _ string, _ types.EmbeddingAction) ([]float32, error) {
	vec := make([]float32, dimensions)
	for i := range vec {
		vec[i] = fillValue
	}
	return vec, nil
}
