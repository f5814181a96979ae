// Package registry maps provider names to constructors for one provider category.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zentry-ai/zentry/pkg/types"
)

// ErrFrozen is returned by Register once the registry has been frozen.
var ErrFrozen = errors.New("registry is frozen")

// Constructor builds a provider instance from its normalized configuration.
// Constructors must not perform network I/O.
type Constructor[C, T any] func(C) (T, error)

// Registry is a name to constructor table for a single category. It is safe for
// concurrent use; the process-wide registries are populated once and frozen.
type Registry[C, T any] struct {
	category     types.Category
	constructors map[string]Constructor[C, T]
	frozen       bool
	mutex        sync.RWMutex
}

// New creates an empty registry for category
func New[C, T any](category types.Category) *Registry[C, T] {
	return &Registry[C, T]{
		category:     category,
		constructors: make(map[string]Constructor[C, T]),
	}
}

// Category returns the category served by the registry
func (r *Registry[C, T]) Category() types.Category {
	return r.category
}

// Register inserts or replaces the constructor for name
func (r *Registry[C, T]) Register(name string, ctor Constructor[C, T]) error {
	if name == "" {
		return fmt.Errorf("%s registry: provider name is required", r.category)
	}
	if ctor == nil {
		return fmt.Errorf("%s registry: constructor for %q is nil", r.category, name)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.frozen {
		return fmt.Errorf("%s registry: register %q: %w", r.category, name, ErrFrozen)
	}
	r.constructors[name] = ctor
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// initialization-time tables.
func (r *Registry[C, T]) MustRegister(name string, ctor Constructor[C, T]) {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Resolve returns the constructor registered under name
func (r *Registry[C, T]) Resolve(name string) (Constructor[C, T], error) {
	r.mutex.RLock()
	ctor, exists := r.constructors[name]
	r.mutex.RUnlock()

	if !exists {
		return nil, &types.UnsupportedProviderError{Category: r.category, Provider: name}
	}
	return ctor, nil
}

// Has reports whether name is registered
func (r *Registry[C, T]) Has(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.constructors[name]
	return exists
}

// Names returns the registered provider names in sorted order
func (r *Registry[C, T]) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Freeze rejects any further registration
func (r *Registry[C, T]) Freeze() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze has been called
func (r *Registry[C, T]) Frozen() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.frozen
}
