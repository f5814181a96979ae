package config

import "github.com/zentry-ai/zentry/pkg/types"

// PlatformConfig holds the settings of the hosted memory platform client.
type PlatformConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty" json:"api_key,omitempty"`
	TopK   int    `mapstructure:"top_k" yaml:"top_k" json:"top_k"`
}

// DefaultPlatformConfig returns the platform defaults
func DefaultPlatformConfig() PlatformConfig {
	return PlatformConfig{TopK: 10}
}

// Validate checks field ranges
func (c PlatformConfig) Validate() error {
	if c.TopK <= 0 {
		return types.NewInvalidConfigError("top_k", "must be positive, got %d", c.TopK)
	}
	return nil
}

// PlatformConfigFromMap normalizes a raw platform section. A nil map yields the defaults.
func PlatformConfigFromMap(raw map[string]any) (PlatformConfig, error) {
	return FromMap(raw, DefaultPlatformConfig)
}
