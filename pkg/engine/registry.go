package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Registry manages all available engine factories
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a new engine registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds an engine factory under name
func (r *Registry) Register(name string, factory Factory) {
	r.factories[strings.ToLower(name)] = factory
}

// Get retrieves a factory by name
func (r *Registry) Get(name string) (Factory, error) {
	factory, exists := r.factories[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("engine %s not found (available: %s)", name, strings.Join(r.List(), ", "))
	}
	return factory, nil
}

// List returns all registered engine names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks if an engine is registered
func (r *Registry) Has(name string) bool {
	_, exists := r.factories[strings.ToLower(name)]
	return exists
}
