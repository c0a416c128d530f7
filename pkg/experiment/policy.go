package experiment

import (
	"context"
	"errors"
	"sort"
	"time"
)

// candidates computes the ordered attempt sequence for an error policy.
// "Other" trials under PolicyReplayAny are ordered lexicographically by key
// so the sequence is stable regardless of registration order. The result is
// deduplicated; no candidate is ever attempted twice.
func candidates(policy ErrorPolicy, selected, defaultKey string, keys []string) []string {
	switch policy {
	case PolicyReplayDefault:
		if selected == defaultKey {
			return []string{selected}
		}
		return []string{selected, defaultKey}
	case PolicyReplayAny:
		others := make([]string, 0, len(keys))
		for _, key := range keys {
			if key != selected && key != defaultKey {
				others = append(others, key)
			}
		}
		sort.Strings(others)
		out := append([]string{selected}, others...)
		if defaultKey != selected {
			out = append(out, defaultKey)
		}
		return out
	default: // PolicyThrow
		return []string{selected}
	}
}

// executor drives candidate attempts for one invocation under the
// definition's error policy. Resolution (factory) and invocation are one
// unit per candidate; a construction failure counts as a failed attempt.
// The error from the last attempted candidate is returned verbatim.
type executor struct {
	def *Definition
}

func (e *executor) run(ctx context.Context, inv *Invocation) (any, error) {
	keys := candidates(e.def.policy, inv.SelectedKey, e.def.defaultKey, e.def.Keys())

	var lastErr error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := e.attempt(ctx, inv, key)
		if err == nil {
			inv.FinalKey = key
			return out, nil
		}
		// Cancellation aborts the policy loop: it is not a trial failure
		// and must not trigger fallback.
		if isCancellation(ctx, err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (e *executor) attempt(ctx context.Context, inv *Invocation, key string) (any, error) {
	tr := e.def.trial(key)
	start := time.Now()
	var out any
	impl, err := tr.New(ctx)
	if err == nil {
		out, err = inv.Do(ctx, impl)
	}
	inv.Attempts = append(inv.Attempts, Attempt{Key: tr.Key, Duration: time.Since(start), Err: err})
	return out, err
}

// isCancellation reports whether err reflects expiry of the invocation
// context. A deadline or cancellation error produced by a trial's own
// internal timeout while the invocation context is still live is an ordinary
// trial failure and stays eligible for fallback.
func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
