package experiment

import (
	"context"
	"sync"
)

// FlagProvider supplies boolean and variant flag values. Implementations may
// call out over the network; errors and unknown names must be non-fatal to
// selection (the resolver falls back to the default trial).
type FlagProvider interface {
	IsEnabled(ctx context.Context, name string) (bool, error)
	Variant(ctx context.Context, name string) (string, error)
}

// ConfigProvider supplies string configuration values. A missing key should
// be reported as an empty value, not an error.
type ConfigProvider interface {
	Value(ctx context.Context, key string) (string, error)
}

// IdentityProvider yields a stable identity for sticky routing. found is
// false when no identity is available for the current call.
type IdentityProvider interface {
	Identity(ctx context.Context) (value string, found bool)
}

// CustomResolver derives a trial key for a custom selection mode. Returning
// an error or a key outside the trial set resolves to the default.
type CustomResolver func(ctx context.Context, def *Definition, inv *Invocation) (string, error)

// CustomResolverRegistry maps custom mode identifiers to resolvers.
type CustomResolverRegistry struct {
	mu        sync.RWMutex
	resolvers map[string]CustomResolver
}

// NewCustomResolverRegistry returns an empty registry.
func NewCustomResolverRegistry() *CustomResolverRegistry {
	return &CustomResolverRegistry{resolvers: make(map[string]CustomResolver)}
}

// Register installs a resolver under the given mode identifier, replacing
// any previous registration.
func (r *CustomResolverRegistry) Register(id string, fn CustomResolver) {
	if id == "" || fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[id] = fn
}

func (r *CustomResolverRegistry) lookup(id string) (CustomResolver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.resolvers[id]
	return fn, ok
}
