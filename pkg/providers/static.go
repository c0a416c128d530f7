// Package providers ships ready-made implementations of the engine's
// flag, configuration, and identity provider interfaces.
package providers

import (
	"context"
	"sync"
)

// StaticFlags is an in-memory flag provider, useful for tests and for
// applications that resolve flags once at startup.
type StaticFlags struct {
	mu       sync.RWMutex
	enabled  map[string]bool
	variants map[string]string
}

// NewStaticFlags returns an empty provider.
func NewStaticFlags() *StaticFlags {
	return &StaticFlags{
		enabled:  make(map[string]bool),
		variants: make(map[string]string),
	}
}

// SetEnabled records a boolean flag value.
func (s *StaticFlags) SetEnabled(name string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[name] = on
}

// SetVariant records a variant flag value.
func (s *StaticFlags) SetVariant(name, variant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[name] = variant
}

// IsEnabled implements experiment.FlagProvider.
func (s *StaticFlags) IsEnabled(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled[name], nil
}

// Variant implements experiment.FlagProvider.
func (s *StaticFlags) Variant(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.variants[name], nil
}

// StaticConfig is an in-memory configuration provider.
type StaticConfig struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStaticConfig returns a provider seeded with values (may be nil).
func NewStaticConfig(values map[string]string) *StaticConfig {
	c := &StaticConfig{values: make(map[string]string, len(values))}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Set records a configuration value.
func (c *StaticConfig) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Value implements experiment.ConfigProvider. Missing keys yield "".
func (c *StaticConfig) Value(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key], nil
}

// IdentityFunc adapts a function to experiment.IdentityProvider.
type IdentityFunc func(ctx context.Context) (string, bool)

// Identity implements experiment.IdentityProvider.
func (f IdentityFunc) Identity(ctx context.Context) (string, bool) { return f(ctx) }

// FixedIdentity always yields the same identity. Handy for tests.
func FixedIdentity(id string) IdentityFunc {
	return func(ctx context.Context) (string, bool) { return id, id != "" }
}
