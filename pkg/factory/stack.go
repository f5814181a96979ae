package factory

import (
	"fmt"

	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

// Stack is the set of instances a memory deployment runs on.
type Stack struct {
	LLM         types.LLM
	Embedder    types.Embedder
	VectorStore types.VectorStore
	Platform    config.PlatformConfig
}

// BuildStack creates every instance named by cfg. The vector store configuration
// is passed to the embedder factory so stores that embed server-side get the
// no-op embedder. Errors keep their typed cause and are prefixed with the
// section they came from.
func BuildStack(f Factories, cfg config.MemoryConfig) (*Stack, error) {
	cfg.ApplyDefaults()

	platform, err := cfg.PlatformConfig()
	if err != nil {
		return nil, fmt.Errorf("platform: %w", err)
	}

	store, err := f.VectorStore.Create(cfg.VectorStore.Provider, cfg.VectorStore.Config)
	if err != nil {
		return nil, fmt.Errorf("vector_store: %w", err)
	}

	llm, err := f.LLM.Create(cfg.LLM.Provider, cfg.LLM.Config)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	embedder, err := f.Embedder.Create(cfg.Embedder.Provider, cfg.Embedder.Config, cfg.VectorStore.Config)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	return &Stack{
		LLM:         llm,
		Embedder:    embedder,
		VectorStore: store,
		Platform:    platform,
	}, nil
}
