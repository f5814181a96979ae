// Package factory resolves provider names to constructors and builds LLM,
// embedder and vector-store instances from caller-supplied configuration.
// It also provides lifecycle operations that work on any constructed instance.
package factory
