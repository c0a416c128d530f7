package experiment

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ScopeCache memoizes selection results for the lifetime of a caller-owned
// scope so every call within the scope observes the same trial. It caches
// selection only, never invocation results. Scopes are independent
// partitions; there is no cross-scope contention.
type ScopeCache struct {
	mu     sync.RWMutex
	scopes map[string]*scopePartition
}

type scopePartition struct {
	mu         sync.RWMutex
	selections map[string]string
	flight     singleflight.Group
}

// NewScopeCache returns an empty cache.
func NewScopeCache() *ScopeCache {
	return &ScopeCache{scopes: make(map[string]*scopePartition)}
}

// GetOrResolve returns the trial key cached for (scopeID, experimentID),
// invoking resolve on first use. Concurrent first calls for the same pair
// share a single resolve; no lock is held while resolve runs, so provider
// calls may suspend freely. An empty scopeID bypasses the cache.
func (c *ScopeCache) GetOrResolve(ctx context.Context, scopeID, experimentID string, resolve func(context.Context) (string, error)) (string, error) {
	if scopeID == "" {
		return resolve(ctx)
	}

	p := c.partition(scopeID)
	p.mu.RLock()
	key, ok := p.selections[experimentID]
	p.mu.RUnlock()
	if ok {
		return key, nil
	}

	v, err, _ := p.flight.Do(experimentID, func() (any, error) {
		p.mu.RLock()
		key, ok := p.selections[experimentID]
		p.mu.RUnlock()
		if ok {
			return key, nil
		}
		resolved, err := resolve(ctx)
		if err != nil {
			return "", err
		}
		p.mu.Lock()
		p.selections[experimentID] = resolved
		p.mu.Unlock()
		return resolved, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// EndScope discards every selection recorded for the scope. The caller owns
// scope lifetime; entries never expire on their own.
func (c *ScopeCache) EndScope(scopeID string) {
	if scopeID == "" {
		return
	}
	c.mu.Lock()
	delete(c.scopes, scopeID)
	c.mu.Unlock()
}

func (c *ScopeCache) partition(scopeID string) *scopePartition {
	c.mu.RLock()
	p, ok := c.scopes[scopeID]
	c.mu.RUnlock()
	if ok {
		return p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.scopes[scopeID]; ok {
		return p
	}
	p = &scopePartition{selections: make(map[string]string)}
	c.scopes[scopeID] = p
	return p
}
