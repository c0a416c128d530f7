package decorators

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/odvcencio/crossover/pkg/experiment"
)

// RateLimit gates invocations through a shared limiter before selection
// runs. Waiting respects the invocation's context; a canceled wait returns
// the context error without attempting any trial.
func RateLimit(limiter *rate.Limiter) experiment.Decorator {
	return func(ctx context.Context, inv *experiment.Invocation, next experiment.Next) (any, error) {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return next(ctx)
	}
}
