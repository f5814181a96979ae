package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zentry-ai/zentry/pkg/types"
)

type qdrantSettings struct {
	CollectionName string `mapstructure:"collection_name"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
}

type failingDumper struct{}

func (failingDumper) Dump() (map[string]any, error) { return nil, errors.New("boom") }

func TestNormalize_TypedPassThrough(t *testing.T) {
	// Deliberately invalid: a typed config is trusted and not validated again.
	cfg := VectorStoreConfig{CollectionName: "", EmbeddingModelDims: -1}

	got, err := Normalize(cfg, DefaultVectorStoreConfig)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	got, err = Normalize(&cfg, DefaultVectorStoreConfig)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestNormalize_NilUsesDefaults(t *testing.T) {
	got, err := Normalize(nil, DefaultLlmConfig)
	require.NoError(t, err)
	assert.Equal(t, DefaultLlmConfig(), got)

	var nilPtr *LlmConfig
	got, err = Normalize(nilPtr, DefaultLlmConfig)
	require.NoError(t, err)
	assert.Equal(t, DefaultLlmConfig(), got)
}

func TestNormalize_MapAppliesDefaults(t *testing.T) {
	got, err := Normalize(map[string]any{
		"collection_name": "docs",
		"host":            "localhost",
		"port":            6333,
	}, DefaultVectorStoreConfig)
	require.NoError(t, err)

	assert.Equal(t, "docs", got.CollectionName)
	assert.Equal(t, "localhost", got.Host)
	assert.Equal(t, 6333, got.Port)
	assert.Equal(t, 1536, got.EmbeddingModelDims)
	assert.Equal(t, DistanceCosine, got.Distance)
	assert.Equal(t, 30*time.Second, got.Timeout)
}

func TestNormalize_MapAndTypedAreEquivalent(t *testing.T) {
	typed := DefaultLlmConfig()
	typed.Model = "gpt-4o-mini"
	typed.Temperature = 0.5
	typed.Azure = AzureConfig{Endpoint: "https://example.openai.azure.com", APIVersion: "2024-02-01"}

	fromMap, err := Normalize(map[string]any{
		"model":       "gpt-4o-mini",
		"temperature": 0.5,
		"azure_kwargs": map[string]any{
			"azure_endpoint": "https://example.openai.azure.com",
			"api_version":    "2024-02-01",
		},
	}, DefaultLlmConfig)
	require.NoError(t, err)

	fromTyped, err := Normalize(typed, DefaultLlmConfig)
	require.NoError(t, err)

	assert.Equal(t, fromTyped, fromMap)
}

func TestNormalize_WeakTypesAndDurations(t *testing.T) {
	got, err := Normalize(map[string]any{
		"port":    "6334",
		"timeout": "5s",
	}, DefaultVectorStoreConfig)
	require.NoError(t, err)
	assert.Equal(t, 6334, got.Port)
	assert.Equal(t, 5*time.Second, got.Timeout)
}

func TestNormalize_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name          string
		input         any
		expectedField string
	}{
		{
			name:          "unknown field",
			input:         map[string]any{"collection_name": "docs", "colection": "typo"},
			expectedField: "colection",
		},
		{
			name:          "mistyped field",
			input:         map[string]any{"port": "not-a-port"},
			expectedField: "port",
		},
		{
			name:          "client of wrong type",
			input:         map[string]any{"client": []string{"x"}},
			expectedField: "client",
		},
		{
			name:          "failed validation",
			input:         map[string]any{"collection_name": ""},
			expectedField: "collection_name",
		},
		{
			name:          "bad distance",
			input:         map[string]any{"distance": "manhattan"},
			expectedField: "distance",
		},
		{
			name:          "port out of range",
			input:         map[string]any{"port": 70000},
			expectedField: "port",
		},
		{
			name:          "unsupported input type",
			input:         42,
			expectedField: "",
		},
		{
			name:          "dump failure",
			input:         failingDumper{},
			expectedField: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.input, DefaultVectorStoreConfig)
			require.Error(t, err)

			var cfgErr *types.InvalidConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.expectedField, cfgErr.Field)
		})
	}
}

func TestNormalize_Dumper(t *testing.T) {
	got, err := Normalize(Struct(qdrantSettings{CollectionName: "docs", Host: "localhost", Port: 6333}), DefaultVectorStoreConfig)
	require.NoError(t, err)

	assert.Equal(t, "docs", got.CollectionName)
	assert.Equal(t, "localhost", got.Host)
	assert.Equal(t, 6333, got.Port)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := map[string]any{"collection_name": "docs"}
	_, err := Normalize(raw, DefaultVectorStoreConfig)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"collection_name": "docs"}, raw)
}

func TestNormalize_UnknownNestedField(t *testing.T) {
	_, err := Normalize(map[string]any{
		"azure_kwargs": map[string]any{"endpoint": "https://example.openai.azure.com"},
	}, DefaultLlmConfig)

	var cfgErr *types.InvalidConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "azure_kwargs", cfgErr.Field)
}

func TestDecodeKnown(t *testing.T) {
	var settings qdrantSettings
	err := DecodeKnown(&settings, map[string]any{"port": "6333", "host": "qdrant", "unrelated": true})
	require.NoError(t, err)
	assert.Equal(t, qdrantSettings{Host: "qdrant", Port: 6333}, settings)

	err = DecodeKnown(&settings, map[string]any{"port": map[string]any{}})
	var cfgErr *types.InvalidConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "port", cfgErr.Field)
}
