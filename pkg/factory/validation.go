package factory

import (
	"errors"
	"fmt"

	"github.com/zentry-ai/zentry/pkg/config"
)

// ValidateMemoryConfig checks that every section names a registered provider and
// carries a configuration that normalizes, without constructing anything. All
// problems are reported together.
func ValidateMemoryConfig(f Factories, cfg config.MemoryConfig) error {
	cfg.ApplyDefaults()

	var errs []error
	if _, err := cfg.PlatformConfig(); err != nil {
		errs = append(errs, fmt.Errorf("platform: %w", err))
	}
	if err := f.LLM.Validate(cfg.LLM.Provider, cfg.LLM.Config); err != nil {
		errs = append(errs, fmt.Errorf("llm: %w", err))
	}
	if err := f.Embedder.Validate(cfg.Embedder.Provider, cfg.Embedder.Config, cfg.VectorStore.Config); err != nil {
		errs = append(errs, fmt.Errorf("embedder: %w", err))
	}
	if err := f.VectorStore.Validate(cfg.VectorStore.Provider, cfg.VectorStore.Config); err != nil {
		errs = append(errs, fmt.Errorf("vector_store: %w", err))
	}
	return errors.Join(errs...)
}
