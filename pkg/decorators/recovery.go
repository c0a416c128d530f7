package decorators

import (
	"context"
	"fmt"

	"github.com/odvcencio/crossover/pkg/experiment"
)

// Recovery converts a panic anywhere in the wrapped unit (inner decorators,
// selection, or a trial implementation) into an error. Register it first so
// it sits outermost. Opt-in: without it, panics unwind to the caller.
func Recovery() experiment.Decorator {
	return func(ctx context.Context, inv *experiment.Invocation, next experiment.Next) (out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				out = nil
				err = fmt.Errorf("invocation panic: %v", r)
			}
		}()
		return next(ctx)
	}
}
