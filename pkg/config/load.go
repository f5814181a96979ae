package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables read by Load. Nested keys are
// separated by a double underscore, e.g. ZENTRY_VECTOR_STORE__CONFIG__HOST.
const EnvPrefix = "ZENTRY_"

// Default provider names used when a section omits one.
const (
	DefaultLLMProvider         = "openai"
	DefaultEmbedderProvider    = "openai"
	DefaultVectorStoreProvider = "qdrant"
)

// ProviderSection selects a provider and carries its raw configuration.
type ProviderSection struct {
	Provider string         `koanf:"provider" yaml:"provider" json:"provider"`
	Config   map[string]any `koanf:"config" yaml:"config,omitempty" json:"config,omitempty"`
}

// MemoryConfig is the provider selection of a memory stack.
type MemoryConfig struct {
	LLM         ProviderSection `koanf:"llm" yaml:"llm" json:"llm"`
	Embedder    ProviderSection `koanf:"embedder" yaml:"embedder" json:"embedder"`
	VectorStore ProviderSection `koanf:"vector_store" yaml:"vector_store" json:"vector_store"`
	Platform    map[string]any  `koanf:"platform" yaml:"platform,omitempty" json:"platform,omitempty"`
}

// ApplyDefaults fills in missing provider names.
func (c *MemoryConfig) ApplyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultLLMProvider
	}
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = DefaultEmbedderProvider
	}
	if c.VectorStore.Provider == "" {
		c.VectorStore.Provider = DefaultVectorStoreProvider
	}
}

// PlatformConfig normalizes the platform section.
func (c MemoryConfig) PlatformConfig() (PlatformConfig, error) {
	return PlatformConfigFromMap(c.Platform)
}

// Load reads a memory stack configuration from the YAML file at path (skipped
// when path is empty) and overlays ZENTRY_ environment variables.
func Load(path string) (MemoryConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return MemoryConfig{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return MemoryConfig{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg MemoryConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return MemoryConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// YAML renders the configuration with secret values masked.
func (c MemoryConfig) YAML() ([]byte, error) {
	masked := MemoryConfig{
		LLM:         ProviderSection{Provider: c.LLM.Provider, Config: MaskSecrets(c.LLM.Config)},
		Embedder:    ProviderSection{Provider: c.Embedder.Provider, Config: MaskSecrets(c.Embedder.Config)},
		VectorStore: ProviderSection{Provider: c.VectorStore.Provider, Config: MaskSecrets(c.VectorStore.Config)},
		Platform:    MaskSecrets(c.Platform),
	}
	return yamlv3.Marshal(masked)
}

var secretMarkers = []string{"key", "password", "token", "secret", "credentials_json"}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, marker := range secretMarkers {
		if key == marker || strings.HasSuffix(key, "_"+marker) || strings.HasPrefix(key, marker+"_") {
			return true
		}
	}
	return false
}

// MaskSecrets returns a copy of m with the values of secret-looking keys replaced.
// Nested maps are masked recursively.
func MaskSecrets(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = MaskSecrets(nested)
			continue
		}
		out[k] = v
		if isSecretKey(k) && v != nil && v != "" {
			out[k] = "****"
		}
	}
	return out
}
