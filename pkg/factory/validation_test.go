package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/types"
)

// TestValidateMemoryConfig tests that a valid stack passes without constructing anything
func TestValidateMemoryConfig(t *testing.T) {
	f := NewFactories()
	constructed := false
	f.VectorStore.Registry().MustRegister("counting", func(config.VectorStoreConfig) (types.VectorStore, error) {
		constructed = true
		return nil, nil
	})

	cfg := localStack()
	cfg.VectorStore.Provider = "counting"

	assert.NoError(t, ValidateMemoryConfig(f, cfg))
	assert.False(t, constructed)
}

// TestValidateMemoryConfigJoinsErrors tests that every failing section is reported
func TestValidateMemoryConfigJoinsErrors(t *testing.T) {
	cfg := config.MemoryConfig{
		LLM:         config.ProviderSection{Provider: "nope"},
		Embedder:    config.ProviderSection{Provider: types.EmbedderOpenAI, Config: map[string]any{"dims": 3}},
		VectorStore: config.ProviderSection{Provider: types.VectorStoreQdrant, Config: map[string]any{"distance": "manhattan"}},
		Platform:    map[string]any{"top_k": -1},
	}

	err := ValidateMemoryConfig(NewFactories(), cfg)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "platform: ")
	assert.Contains(t, msg, "llm: ")
	assert.Contains(t, msg, "embedder: ")
	assert.Contains(t, msg, "vector_store: ")

	var upe *types.UnsupportedProviderError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, "nope", upe.Provider)

	var ice *types.InvalidConfigError
	assert.ErrorAs(t, err, &ice)
}

// TestValidateMemoryConfigServerSideEmbeddings tests that the embedder section
// is not checked when the store embeds documents itself
func TestValidateMemoryConfigServerSideEmbeddings(t *testing.T) {
	cfg := localStack()
	cfg.Embedder = config.ProviderSection{Provider: "nope", Config: map[string]any{"bogus": true}}
	cfg.VectorStore.Config["enable_embeddings"] = true

	assert.NoError(t, ValidateMemoryConfig(NewFactories(), cfg))
}
