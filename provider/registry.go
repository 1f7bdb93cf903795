package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps backend names to factories.
type Registry[T Provider, O any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T, O]
}

// NewRegistry creates a new empty Registry.
func NewRegistry[T Provider, O any]() *Registry[T, O] {
	return &Registry[T, O]{
		factories: make(map[string]Factory[T, O]),
	}
}

// RegisterFactory registers a named factory, replacing any previous one.
func (r *Registry[T, O]) RegisterFactory(name string, factory Factory[T, O]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Has reports whether a factory is registered under name.
func (r *Registry[T, O]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Create instantiates a provider using the named factory.
func (r *Registry[T, O]) Create(name string, opts O) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("provider factory %q not registered (available: %v)", name, r.List())
	}
	return factory(opts)
}

// List returns sorted names of all registered factories.
func (r *Registry[T, O]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
