package decorators

import (
	"context"

	"github.com/odvcencio/crossover/pkg/experiment"
	"github.com/odvcencio/crossover/pkg/telemetry"
)

// Hub publishes invocation lifecycle events to a telemetry hub so UIs and
// sidecars can observe routing live without touching the call path.
func Hub(hub *telemetry.Hub) experiment.Decorator {
	return func(ctx context.Context, inv *experiment.Invocation, next experiment.Next) (any, error) {
		hub.Publish(telemetry.Event{
			Type:     telemetry.EventInvocationStarted,
			Contract: inv.Contract,
			Method:   inv.Method,
			ScopeID:  inv.ScopeID,
		})

		out, err := next(ctx)

		hub.Publish(telemetry.Event{
			Type:     telemetry.EventTrialSelected,
			Contract: inv.Contract,
			ScopeID:  inv.ScopeID,
			TrialKey: inv.SelectedKey,
		})
		for _, attempt := range inv.Attempts {
			if attempt.Err == nil {
				continue
			}
			hub.Publish(telemetry.Event{
				Type:     telemetry.EventTrialAttemptFailed,
				Contract: inv.Contract,
				ScopeID:  inv.ScopeID,
				TrialKey: attempt.Key,
				Data:     map[string]any{"error": attempt.Err.Error()},
			})
		}

		completed := telemetry.Event{
			Type:     telemetry.EventInvocationCompleted,
			Contract: inv.Contract,
			Method:   inv.Method,
			ScopeID:  inv.ScopeID,
			TrialKey: inv.FinalKey,
			Data:     map[string]any{"attempts": len(inv.Attempts)},
		}
		if err != nil {
			completed.Type = telemetry.EventInvocationFailed
			completed.Data["error"] = err.Error()
		}
		hub.Publish(completed)
		return out, err
	}
}
