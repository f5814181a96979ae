package factory

import (
	"errors"
	"reflect"
	"sync"

	"github.com/zentry-ai/zentry/pkg/config"
	"github.com/zentry-ai/zentry/pkg/providers/mock"
	"github.com/zentry-ai/zentry/pkg/registry"
	"github.com/zentry-ai/zentry/pkg/types"
)

// Per-category registries
type (
	LlmRegistry         = registry.Registry[config.LlmConfig, types.LLM]
	EmbedderRegistry    = registry.Registry[config.EmbedderConfig, types.Embedder]
	VectorStoreRegistry = registry.Registry[config.VectorStoreConfig, types.VectorStore]
)

// NewLlmRegistry creates an empty LLM registry
func NewLlmRegistry() *LlmRegistry {
	return registry.New[config.LlmConfig, types.LLM](types.CategoryLLM)
}

// NewEmbedderRegistry creates an empty embedder registry
func NewEmbedderRegistry() *EmbedderRegistry {
	return registry.New[config.EmbedderConfig, types.Embedder](types.CategoryEmbedder)
}

// NewVectorStoreRegistry creates an empty vector store registry
func NewVectorStoreRegistry() *VectorStoreRegistry {
	return registry.New[config.VectorStoreConfig, types.VectorStore](types.CategoryVectorStore)
}

var errNilInstance = errors.New("constructor returned a nil instance")

// providerFactory holds the resolve, normalize, construct sequence shared by
// every category. It keeps no reference to the instances it builds.
type providerFactory[C config.Validator, T any] struct {
	registry *registry.Registry[C, T]
	defaults func() C
}

func (f *providerFactory[C, T]) create(name string, raw any) (T, error) {
	var zero T

	ctor, err := f.registry.Resolve(name)
	if err != nil {
		return zero, err
	}

	cfg, err := config.Normalize(raw, f.defaults)
	if err != nil {
		return zero, err
	}

	instance, err := ctor(cfg)
	if err != nil {
		return zero, &types.ProviderConstructionError{Category: f.registry.Category(), Provider: name, Cause: err}
	}
	if isNil(instance) {
		return zero, &types.ProviderConstructionError{
			Category: f.registry.Category(),
			Provider: name,
			Cause:    errNilInstance,
		}
	}
	return instance, nil
}

func (f *providerFactory[C, T]) validate(name string, raw any) error {
	if _, err := f.registry.Resolve(name); err != nil {
		return err
	}
	_, err := config.Normalize(raw, f.defaults)
	return err
}

// LlmFactory creates LLM instances
type LlmFactory struct {
	providerFactory[config.LlmConfig, types.LLM]
}

// NewLlmFactory creates a factory backed by reg
func NewLlmFactory(reg *LlmRegistry) *LlmFactory {
	return &LlmFactory{providerFactory[config.LlmConfig, types.LLM]{registry: reg, defaults: config.DefaultLlmConfig}}
}

// Create builds the LLM registered under name. cfg may be a config.LlmConfig,
// a *config.LlmConfig, a map[string]any, a config.Dumper or nil.
func (f *LlmFactory) Create(name string, cfg any) (types.LLM, error) {
	return f.create(name, cfg)
}

// Validate resolves name and normalizes cfg without constructing anything.
func (f *LlmFactory) Validate(name string, cfg any) error {
	return f.validate(name, cfg)
}

// Registry returns the underlying registry
func (f *LlmFactory) Registry() *LlmRegistry {
	return f.registry
}

// EmbedderFactory creates embedder instances
type EmbedderFactory struct {
	providerFactory[config.EmbedderConfig, types.Embedder]
}

// NewEmbedderFactory creates a factory backed by reg
func NewEmbedderFactory(reg *EmbedderRegistry) *EmbedderFactory {
	return &EmbedderFactory{providerFactory[config.EmbedderConfig, types.Embedder]{registry: reg, defaults: config.DefaultEmbedderConfig}}
}

// Create builds the embedder registered under name.
//
// vectorStore is the configuration of the vector store the embeddings are meant
// for, in any form accepted by VectorStoreFactory.Create, or nil. When it has
// enable_embeddings set the store embeds documents itself, and Create returns a
// fixed no-op embedder without resolving name or looking at cfg.
func (f *EmbedderFactory) Create(name string, cfg any, vectorStore any) (types.Embedder, error) {
	if StoreEmbedsServerSide(vectorStore) {
		return mock.NewEmbedder(), nil
	}
	return f.create(name, cfg)
}

// Validate resolves name and normalizes cfg without constructing anything.
func (f *EmbedderFactory) Validate(name string, cfg any, vectorStore any) error {
	if StoreEmbedsServerSide(vectorStore) {
		return nil
	}
	return f.validate(name, cfg)
}

// Registry returns the underlying registry
func (f *EmbedderFactory) Registry() *EmbedderRegistry {
	return f.registry
}

// VectorStoreFactory creates vector store instances
type VectorStoreFactory struct {
	providerFactory[config.VectorStoreConfig, types.VectorStore]
}

// NewVectorStoreFactory creates a factory backed by reg
func NewVectorStoreFactory(reg *VectorStoreRegistry) *VectorStoreFactory {
	return &VectorStoreFactory{providerFactory[config.VectorStoreConfig, types.VectorStore]{registry: reg, defaults: config.DefaultVectorStoreConfig}}
}

// Create builds the vector store registered under name. Structured
// configuration objects are accepted through config.Dumper.
func (f *VectorStoreFactory) Create(name string, cfg any) (types.VectorStore, error) {
	return f.create(name, cfg)
}

// Validate resolves name and normalizes cfg without constructing anything.
func (f *VectorStoreFactory) Validate(name string, cfg any) error {
	return f.validate(name, cfg)
}

// Registry returns the underlying registry
func (f *VectorStoreFactory) Registry() *VectorStoreRegistry {
	return f.registry
}

// Factories groups one factory per category.
type Factories struct {
	LLM         *LlmFactory
	Embedder    *EmbedderFactory
	VectorStore *VectorStoreFactory
}

// NewFactories creates factories over fresh registries populated with the
// default provider table. The registries are left open for further registration.
func NewFactories() Factories {
	f := Factories{
		LLM:         NewLlmFactory(NewLlmRegistry()),
		Embedder:    NewEmbedderFactory(NewEmbedderRegistry()),
		VectorStore: NewVectorStoreFactory(NewVectorStoreRegistry()),
	}
	RegisterDefaultProviders(f)
	return f
}

// Freeze freezes all three registries
func (f Factories) Freeze() {
	f.LLM.registry.Freeze()
	f.Embedder.registry.Freeze()
	f.VectorStore.registry.Freeze()
}

// Providers returns the registered names per category
func (f Factories) Providers() map[types.Category][]string {
	return map[types.Category][]string{
		types.CategoryLLM:         f.LLM.registry.Names(),
		types.CategoryEmbedder:    f.Embedder.registry.Names(),
		types.CategoryVectorStore: f.VectorStore.registry.Names(),
	}
}

var defaultFactories = sync.OnceValue(func() Factories {
	f := NewFactories()
	f.Freeze()
	return f
})

// Default returns the process-wide factories. Their registries hold the default
// provider table and are frozen.
func Default() Factories {
	return defaultFactories()
}

// CreateLLM builds an LLM with the default factories
func CreateLLM(name string, cfg any) (types.LLM, error) {
	return Default().LLM.Create(name, cfg)
}

// CreateEmbedder builds an embedder with the default factories
func CreateEmbedder(name string, cfg any, vectorStore any) (types.Embedder, error) {
	return Default().Embedder.Create(name, cfg, vectorStore)
}

// CreateVectorStore builds a vector store with the default factories
func CreateVectorStore(name string, cfg any) (types.VectorStore, error) {
	return Default().VectorStore.Create(name, cfg)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
