package provider

import (
	"fmt"
	"sync"
)

// Registry manages payment provider factories and their configured instances
type Registry struct {
	factories map[string]ProviderFactory
	instances map[string]PaymentProvider
	mu        sync.RWMutex
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
		instances: make(map[string]PaymentProvider),
	}
}

// Register adds a payment provider factory to the registry
func (r *Registry) Register(name string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Configure creates a provider instance from its factory, initializes it with
// the given credentials and makes it available for routing
func (r *Registry) Configure(name string, config map[string]string) error {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("payment provider '%s' is not registered", name)
	}

	instance := factory()
	if err := instance.Initialize(config); err != nil {
		return fmt.Errorf("failed to initialize provider '%s': %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[name] = instance
	return nil
}

// Get retrieves a configured payment provider by name
func (r *Registry) Get(name string) (PaymentProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, exists := r.instances[name]
	if !exists {
		return nil, fmt.Errorf("payment provider '%s' is not configured", name)
	}

	return instance, nil
}

// Has reports whether a provider is configured and available for routing
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.instances[name]
	return exists
}

// Names returns the names of all configured providers
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}

	return names
}

// RegisteredFactories returns the names of all registered factories,
// configured or not
func (r *Registry) RegisteredFactories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}

// DefaultRegistry is the global default provider registry
var DefaultRegistry = NewRegistry()

// Register registers a provider factory with the default registry
func Register(name string, factory ProviderFactory) {
	DefaultRegistry.Register(name, factory)
}

// Configure initializes a provider in the default registry
func Configure(name string, config map[string]string) error {
	return DefaultRegistry.Configure(name, config)
}

// Get retrieves a configured provider from the default registry
func Get(name string) (PaymentProvider, error) {
	return DefaultRegistry.Get(name)
}
