package experiment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Dispatcher is the call-time entry point for one routed contract. It wires
// the scoped cache, the selection resolver, the error-policy executor, and
// the definition's decorator pipeline around each invocation. A Dispatcher
// is safe for concurrent use.
type Dispatcher struct {
	def   *Definition
	res   *resolver
	cache *ScopeCache
	run   coreFunc
}

// Option configures a Dispatcher at construction time. Providers are
// explicit dependencies; there are no ambient singletons.
type Option func(*Dispatcher)

// WithFlagProvider supplies boolean/variant flag reads.
func WithFlagProvider(p FlagProvider) Option {
	return func(d *Dispatcher) { d.res.flags = p }
}

// WithConfigProvider supplies configuration value reads.
func WithConfigProvider(p ConfigProvider) Option {
	return func(d *Dispatcher) { d.res.config = p }
}

// WithIdentityProvider supplies identities for sticky routing.
func WithIdentityProvider(p IdentityProvider) Option {
	return func(d *Dispatcher) { d.res.identity = p }
}

// WithCustomResolvers supplies the registry consulted by custom modes.
func WithCustomResolvers(r *CustomResolverRegistry) Option {
	return func(d *Dispatcher) { d.res.custom = r }
}

// WithScopeCache shares a cache across dispatchers so one scope covers
// several contracts.
func WithScopeCache(c *ScopeCache) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.cache = c
		}
	}
}

// WithClock overrides the time source used for activation windows.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.res.now = now
		}
	}
}

// NewDispatcher builds the dispatcher for a definition. The decorator chain
// is composed once here, first registered decorator outermost.
func NewDispatcher(def *Definition, opts ...Option) (*Dispatcher, error) {
	if def == nil {
		return nil, errors.New("experiment: definition is required")
	}
	d := &Dispatcher{
		def:   def,
		res:   &resolver{now: time.Now},
		cache: NewScopeCache(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.run = chain(def.decorators, d.execute)
	return d, nil
}

// NewScopeID returns a fresh scope identifier for callers without a natural
// one (tests, batch jobs). Request-shaped callers should prefer their own.
func NewScopeID() string { return uuid.NewString() }

// Invoke routes one call: decorator pipeline, cached selection, policy
// execution. The result or the last attempt's error is returned as-is.
func (d *Dispatcher) Invoke(ctx context.Context, inv *Invocation) (any, error) {
	if inv == nil || inv.Do == nil {
		return nil, ErrNoInvoker
	}
	if inv.Contract == "" {
		inv.Contract = d.def.contract
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.run(ctx, inv)
}

// EndScope releases cached selections for a scope.
func (d *Dispatcher) EndScope(scopeID string) { d.cache.EndScope(scopeID) }

// Definition returns the immutable definition this dispatcher serves.
func (d *Dispatcher) Definition() *Definition { return d.def }

func (d *Dispatcher) execute(ctx context.Context, inv *Invocation) (any, error) {
	key, err := d.cache.GetOrResolve(ctx, inv.ScopeID, d.def.contract, func(ctx context.Context) (string, error) {
		return d.res.resolve(ctx, d.def, inv), nil
	})
	if err != nil || !d.def.has(key) {
		key = d.def.defaultKey
	}
	inv.SelectedKey = key

	ex := executor{def: d.def}
	return ex.run(ctx, inv)
}
