package experiment

import "context"

// Next continues the decorator chain. A decorator must call it exactly once
// to proceed; skipping it short-circuits the invocation, and calling it more
// than once is undefined.
type Next func(ctx context.Context) (any, error)

// Decorator wraps the whole selection-through-execution unit of an
// invocation, so one decorator observes total latency and the final outcome
// (inv.FinalKey, inv.Attempts) no matter which policy branch produced it.
// Errors returned by a decorator itself propagate outward through the
// remaining outer decorators; the engine does not intercept them.
type Decorator func(ctx context.Context, inv *Invocation, next Next) (any, error)

type coreFunc func(ctx context.Context, inv *Invocation) (any, error)

// chain composes decorators around core so the first registered decorator is
// the outermost layer. Composition happens once at dispatcher construction.
func chain(decorators []Decorator, core coreFunc) coreFunc {
	wrapped := core
	for i := len(decorators) - 1; i >= 0; i-- {
		d := decorators[i]
		inner := wrapped
		wrapped = func(ctx context.Context, inv *Invocation) (any, error) {
			return d(ctx, inv, func(ctx context.Context) (any, error) {
				return inner(ctx, inv)
			})
		}
	}
	return wrapped
}
