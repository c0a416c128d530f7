package audit

import (
	"context"
	"time"

	"github.com/odvcencio/crossover/pkg/experiment"
	"github.com/odvcencio/crossover/pkg/logging"
)

// Decorator records every invocation outcome in the store. Write failures are
// logged and swallowed; auditing never changes the caller's result.
func Decorator(store *Store, logger *logging.Logger) experiment.Decorator {
	return func(ctx context.Context, inv *experiment.Invocation, next experiment.Next) (any, error) {
		start := time.Now()
		out, err := next(ctx)

		rec := &Record{
			Contract:    inv.Contract,
			Method:      inv.Method,
			ScopeID:     inv.ScopeID,
			SelectedKey: inv.SelectedKey,
			FinalKey:    inv.FinalKey,
			Status:      StatusCompleted,
			DurationMs:  time.Since(start).Milliseconds(),
		}
		for _, attempt := range inv.Attempts {
			ar := AttemptRecord{
				Key:        attempt.Key,
				DurationMs: attempt.Duration.Milliseconds(),
			}
			if attempt.Err != nil {
				ar.Error = attempt.Err.Error()
			}
			rec.Attempts = append(rec.Attempts, ar)
		}
		switch {
		case err != nil:
			rec.Status = StatusFailed
			msg := err.Error()
			rec.Error = &msg
		case len(inv.Attempts) > 1:
			rec.Status = StatusRecovered
		}

		if saveErr := store.Save(rec); saveErr != nil && logger != nil {
			_ = logger.Error(logging.CategoryAudit, "audit.write.failed", saveErr.Error(), map[string]any{
				"contract": inv.Contract,
			})
		}
		return out, err
	}
}
