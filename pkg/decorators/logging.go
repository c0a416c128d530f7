// Package decorators ships cross-cutting wrappers for the routing engine:
// logging, telemetry, metrics, tracing, timeout, rate limiting, and panic
// recovery. Each returns an experiment.Decorator; compose them in order via
// the definition builder (first registered runs outermost).
package decorators

import (
	"context"

	"github.com/odvcencio/crossover/pkg/experiment"
	"github.com/odvcencio/crossover/pkg/logging"
)

// Logging records the final outcome of every invocation: the selected and
// final trial keys, the attempt count, and the error if all candidates
// failed. Selection failures surface here as a recoverable condition (the
// core never logs).
func Logging(logger *logging.Logger) experiment.Decorator {
	return func(ctx context.Context, inv *experiment.Invocation, next experiment.Next) (any, error) {
		out, err := next(ctx)

		details := map[string]any{
			"method":   inv.Method,
			"selected": inv.SelectedKey,
			"attempts": len(inv.Attempts),
		}
		event := logging.Event{
			Category:  logging.CategoryInvocation,
			Contract:  inv.Contract,
			ScopeID:   inv.ScopeID,
			TrialKey:  inv.FinalKey,
			Details:   details,
			EventType: "invocation.completed",
			Level:     logging.LevelInfo,
		}
		switch {
		case err != nil:
			event.Level = logging.LevelError
			event.EventType = "invocation.failed"
			details["error"] = err.Error()
		case len(inv.Attempts) > 1:
			// A fallback rescued the call; worth surfacing even on success.
			event.Level = logging.LevelWarn
			event.EventType = "invocation.recovered"
		}
		_ = logger.Log(event)
		return out, err
	}
}
