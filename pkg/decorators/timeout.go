package decorators

import (
	"context"
	"time"

	"github.com/odvcencio/crossover/pkg/experiment"
)

// Timeout bounds the whole selection-through-execution unit. The core engine
// has no implicit timeouts; this decorator is the supported way to add one.
// Expiry surfaces as context.DeadlineExceeded, which the policy executor
// treats as cancellation (no fallback).
func Timeout(limit time.Duration) experiment.Decorator {
	return func(ctx context.Context, inv *experiment.Invocation, next experiment.Next) (any, error) {
		if limit <= 0 {
			return next(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, limit)
		defer cancel()
		return next(ctx)
	}
}
