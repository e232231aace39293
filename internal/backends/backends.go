package backends

import (
	"fmt"
	"sync"

	"github.com/nulzo/model-orchestrator/internal/config"
	"github.com/nulzo/model-orchestrator/internal/core/ports"
)

// Factory builds a backend adapter from its configuration.
type Factory func(cfg config.BackendConfig) (ports.BackendAdapter, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register installs a factory under a backend type. Adapters call this
// from init; a duplicate type is a programming error.
func Register(backendType string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[backendType]; exists {
		panic(fmt.Sprintf("backend factory %s already registered", backendType))
	}
	factories[backendType] = f
}

// Get looks up the factory for a backend type.
func Get(backendType string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[backendType]
	if !ok {
		return nil, fmt.Errorf("backend factory not found for type: %s", backendType)
	}
	return f, nil
}

// New builds an adapter for the given configuration.
func New(cfg config.BackendConfig) (ports.BackendAdapter, error) {
	f, err := Get(cfg.Type)
	if err != nil {
		return nil, fmt.Errorf("factory lookup failed for type %s: %w", cfg.Type, err)
	}
	return f(cfg)
}
