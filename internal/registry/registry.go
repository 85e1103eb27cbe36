package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/coastalsim/windsurf/internal/bmi"
)

// Factory creates a fresh, uninitialized core instance.
type Factory func() bmi.Model

// Core is the interface compiled-in model cores implement to be registered.
type Core interface {
	Register(r *Registry)
}

// Registry holds the engine factories for a single application instance.
type Registry struct {
	engines map[string]Factory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		engines: make(map[string]Factory),
	}
}

// RegisterEngine registers a core factory under an engine name.
func (r *Registry) RegisterEngine(name string, factory Factory) {
	if _, exists := r.engines[name]; exists {
		panic(fmt.Sprintf("engine with name '%s' already registered", name))
	}
	slog.Debug("Registering engine factory.", "name", name)
	r.engines[name] = factory
}

// NewModel builds a fresh core instance for the named engine.
func (r *Registry) NewModel(engine string) (bmi.Model, error) {
	factory, ok := r.engines[engine]
	if !ok {
		return nil, fmt.Errorf("engine '%s' is not registered (available: %v)", engine, r.Engines())
	}
	return factory(), nil
}

// Engines lists the registered engine names, sorted.
func (r *Registry) Engines() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
