package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yamlv3 "gopkg.in/yaml.v3"
)

const sampleConfig = `
llm:
  provider: anthropic
  config:
    model: claude-3-5-sonnet-latest
    api_key: sk-ant-secret
    max_tokens: 1000
vector_store:
  provider: qdrant
  config:
    collection_name: docs
    host: localhost
    port: 6333
platform:
  top_k: 4
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.LLM.Config["model"])
	assert.Equal(t, DefaultEmbedderProvider, cfg.Embedder.Provider)
	assert.Equal(t, "qdrant", cfg.VectorStore.Provider)
	assert.Equal(t, "docs", cfg.VectorStore.Config["collection_name"])

	platform, err := cfg.PlatformConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, platform.TopK)
}

func TestLoad_EnvironmentOverlay(t *testing.T) {
	t.Setenv("ZENTRY_VECTOR_STORE__CONFIG__HOST", "qdrant.internal")
	t.Setenv("ZENTRY_EMBEDDER__PROVIDER", "ollama")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "qdrant.internal", cfg.VectorStore.Config["host"])
	assert.Equal(t, "docs", cfg.VectorStore.Config["collection_name"])
	assert.Equal(t, "ollama", cfg.Embedder.Provider)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMProvider, cfg.LLM.Provider)
	assert.Equal(t, DefaultVectorStoreProvider, cfg.VectorStore.Provider)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ZENTRY_DOTENV_CHECK=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("ZENTRY_DOTENV_CHECK") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "loaded", os.Getenv("ZENTRY_DOTENV_CHECK"))
}

func TestMemoryConfig_YAMLMasksSecrets(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "sk-ant-secret")

	var rendered MemoryConfig
	require.NoError(t, yamlv3.Unmarshal(out, &rendered))
	assert.Equal(t, "****", rendered.LLM.Config["api_key"])
	assert.Equal(t, 1000, rendered.LLM.Config["max_tokens"])
	assert.Equal(t, "anthropic", rendered.LLM.Provider)
}

func TestMaskSecrets(t *testing.T) {
	masked := MaskSecrets(map[string]any{
		"api_key":      "secret",
		"max_tokens":   10,
		"password":     "hunter2",
		"token":        "",
		"azure_kwargs": map[string]any{"api_key": "nested"},
	})

	assert.Equal(t, "****", masked["api_key"])
	assert.Equal(t, 10, masked["max_tokens"])
	assert.Equal(t, "****", masked["password"])
	assert.Equal(t, "", masked["token"])
	assert.Equal(t, "****", masked["azure_kwargs"].(map[string]any)["api_key"])
}

func TestTelemetryEnabled(t *testing.T) {
	testCases := []struct {
		value    string
		set      bool
		expected bool
	}{
		{set: false, expected: true},
		{value: "true", set: true, expected: true},
		{value: "YES", set: true, expected: true},
		{value: "1", set: true, expected: true},
		{value: "false", set: true, expected: false},
		{value: "off", set: true, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			if tc.set {
				t.Setenv(TelemetryEnv, tc.value)
			} else {
				t.Setenv(TelemetryEnv, "")
				require.NoError(t, os.Unsetenv(TelemetryEnv))
			}
			assert.Equal(t, tc.expected, TelemetryEnabled())
		})
	}
}
