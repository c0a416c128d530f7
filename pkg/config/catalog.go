package config

import (
	"sort"
	"sync"

	"github.com/odvcencio/crossover/pkg/experiment"
)

// Catalog maps the names a config file may reference to registered code:
// trial factories per contract, named decorators, and custom resolvers.
// Registration happens at program startup; lookups during Build.
type Catalog struct {
	mu         sync.RWMutex
	factories  map[string]map[string]experiment.Factory
	decorators map[string]experiment.Decorator
	resolvers  *experiment.CustomResolverRegistry
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		factories:  make(map[string]map[string]experiment.Factory),
		decorators: make(map[string]experiment.Decorator),
		resolvers:  experiment.NewCustomResolverRegistry(),
	}
}

// RegisterTrial binds a factory to a contract and trial key.
func (c *Catalog) RegisterTrial(contract, key string, factory experiment.Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byKey, ok := c.factories[contract]
	if !ok {
		byKey = make(map[string]experiment.Factory)
		c.factories[contract] = byKey
	}
	byKey[key] = factory
}

// RegisterDecorator binds a decorator to a name usable in config files.
func (c *Catalog) RegisterDecorator(name string, d experiment.Decorator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decorators[name] = d
}

// RegisterResolver binds a custom selection resolver to an identifier.
func (c *Catalog) RegisterResolver(id string, fn experiment.CustomResolver) {
	c.resolvers.Register(id, fn)
}

// Resolvers returns the registry to pass to dispatchers of custom-mode
// definitions.
func (c *Catalog) Resolvers() *experiment.CustomResolverRegistry {
	return c.resolvers
}

func (c *Catalog) factory(contract, key string) (experiment.Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byKey, ok := c.factories[contract]
	if !ok {
		return nil, false
	}
	f, ok := byKey[key]
	return f, ok
}

func (c *Catalog) decorator(name string) (experiment.Decorator, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.decorators[name]
	return d, ok
}

func (c *Catalog) trialKeys(contract string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byKey, ok := c.factories[contract]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
