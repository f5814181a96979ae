package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zentry-ai/zentry/internal/testutil"
	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/registry"
	"github.com/zentry-ai/zentry/pkg/types"
)

var azureKwargs = map[string]any{"azure_endpoint": "https://example.openai.azure.com"}

// minimalLLMConfigs holds the smallest configuration each default LLM accepts.
// Providers not listed construct from an empty configuration.
func minimalLLMConfigs() map[string]map[string]any {
	return map[string]map[string]any{
		types.LLMAzureOpenAI:           {"azure_kwargs": azureKwargs},
		types.LLMAzureOpenAIStructured: {"azure_kwargs": azureKwargs},
		types.LLMLangchain:             {"client": testutil.NewFakeLLM("inner")},
	}
}

func minimalEmbedderConfigs() map[string]map[string]any {
	return map[string]map[string]any{
		types.EmbedderAzureOpenAI: {"azure_kwargs": azureKwargs},
		types.EmbedderVertexAI:    {"project_id": "test-project"},
		types.EmbedderLangchain:   {"client": testutil.NewFakeEmbedder("inner", 8)},
	}
}

func minimalVectorStoreConfigs() map[string]map[string]any {
	return map[string]map[string]any{
		types.VectorStoreUpstashVector: {"url": "http://127.0.0.1:1", "token": "t"},
		types.VectorStoreAzureAISearch: {"service_name": "search"},
		types.VectorStorePinecone:      {"api_key": "k"},
		types.VectorStoreVertexAIVectorSearch: {
			"project_id":        "p",
			"index_id":          "i",
			"index_endpoint_id": "e",
			"deployed_index_id": "d",
		},
		types.VectorStoreSupabase:  {"connection_string": "postgres://u:p@127.0.0.1:5432/db"},
		types.VectorStoreLangchain: {"client": testutil.NewFakeVectorStore("inner")},
	}
}

// TestDefaultProviderCounts tests the size of each default table
func TestDefaultProviderCounts(t *testing.T) {
	providers := NewFactories().Providers()

	assert.Len(t, providers[types.CategoryLLM], 16)
	assert.Len(t, providers[types.CategoryEmbedder], 10)
	assert.Len(t, providers[types.CategoryVectorStore], 15)
	assert.Contains(t, providers[types.CategoryLLM], types.LLMAWSBedrock)
	assert.Contains(t, providers[types.CategoryVectorStore], types.VectorStoreFAISS)
}

// TestEveryDefaultLLMConstructs tests that each registered LLM builds without I/O
func TestEveryDefaultLLMConstructs(t *testing.T) {
	f := NewFactories()
	configs := minimalLLMConfigs()

	for _, name := range f.LLM.Registry().Names() {
		t.Run(name, func(t *testing.T) {
			llm, err := f.LLM.Create(name, configs[name])
			require.NoError(t, err)
			require.NotNil(t, llm)
			assert.Equal(t, name, llm.Name())
		})
	}
}

// TestEveryDefaultEmbedderConstructs tests that each registered embedder builds without I/O
func TestEveryDefaultEmbedderConstructs(t *testing.T) {
	f := NewFactories()
	configs := minimalEmbedderConfigs()

	for _, name := range f.Embedder.Registry().Names() {
		t.Run(name, func(t *testing.T) {
			embedder, err := f.Embedder.Create(name, configs[name], nil)
			require.NoError(t, err)
			require.NotNil(t, embedder)
			assert.Equal(t, name, embedder.Name())
		})
	}
}

// TestEveryDefaultVectorStoreConstructs tests that each registered store builds without I/O
func TestEveryDefaultVectorStoreConstructs(t *testing.T) {
	f := NewFactories()
	configs := minimalVectorStoreConfigs()

	for _, name := range f.VectorStore.Registry().Names() {
		t.Run(name, func(t *testing.T) {
			store, err := f.VectorStore.Create(name, configs[name])
			require.NoError(t, err)
			require.NotNil(t, store)
			assert.Equal(t, name, store.Name())
		})
	}
}

// TestRequiredFieldsFailConstruction tests that missing required fields surface
// as construction errors naming the field
func TestRequiredFieldsFailConstruction(t *testing.T) {
	t.Setenv("PINECONE_API_KEY", "")
	t.Setenv("UPSTASH_VECTOR_REST_URL", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	f := NewFactories()
	tests := []struct {
		provider string
		field    string
	}{
		{types.VectorStorePinecone, "api_key"},
		{types.VectorStoreUpstashVector, "url"},
		{types.VectorStoreAzureAISearch, "service_name"},
		{types.VectorStoreSupabase, "connection_string"},
		{types.VectorStoreVertexAIVectorSearch, "project_id"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			_, err := f.VectorStore.Create(tt.provider, nil)
			require.Error(t, err)

			var ce *types.ProviderConstructionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.provider, ce.Provider)
			assert.Equal(t, types.CategoryVectorStore, ce.Category)

			var ice *types.InvalidConfigError
			require.ErrorAs(t, err, &ice)
			assert.Equal(t, tt.field, ice.Field)
		})
	}
}

// TestDefaultIsFrozen tests that the process-wide registries reject registration
func TestDefaultIsFrozen(t *testing.T) {
	f := Default()
	assert.Same(t, f.LLM, Default().LLM)

	err := f.LLM.Registry().Register("custom", func(config.LlmConfig) (types.LLM, error) {
		return testutil.NewFakeLLM("custom"), nil
	})
	assert.ErrorIs(t, err, registry.ErrFrozen)
	assert.False(t, f.LLM.Registry().Has("custom"))
}

// TestNewFactoriesAreOpen tests that fresh factories accept further providers
func TestNewFactoriesAreOpen(t *testing.T) {
	f := NewFactories()
	require.NoError(t, f.VectorStore.Registry().Register("memory", func(config.VectorStoreConfig) (types.VectorStore, error) {
		return testutil.NewFakeVectorStore("memory"), nil
	}))

	store, err := f.VectorStore.Create("memory", nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", store.Name())

	assert.False(t, NewFactories().VectorStore.Registry().Has("memory"))
}
