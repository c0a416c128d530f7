package experiment

import (
	"context"
	"time"
)

// Factory constructs a trial implementation instance. Construction may fail;
// a failed construction counts as a failed attempt for the error policy.
type Factory func(ctx context.Context) (any, error)

// Trial pairs a key with the factory that builds its implementation.
type Trial struct {
	Key string
	New Factory
}

// Trial keys conventionally used by boolean flag modes.
const (
	TrialKeyTrue  = "true"
	TrialKeyFalse = "false"
)

// ModeKind identifies a selection strategy.
type ModeKind string

const (
	ModeBooleanFlag ModeKind = "boolean_flag"
	ModeConfigValue ModeKind = "config_value"
	ModeVariantFlag ModeKind = "variant_flag"
	ModeSticky      ModeKind = "sticky"
	ModeCustom      ModeKind = "custom"
)

// SelectionMode describes how a trial key is derived for a call. Exactly one
// of the parameter fields is meaningful, matching Kind.
type SelectionMode struct {
	Kind     ModeKind
	Flag     string // BooleanFlag / VariantFlag flag name
	Key      string // ConfigValue configuration key
	Selector string // sticky routing selector name
	Custom   string // custom resolver identifier
}

// BooleanFlag selects between the "true" and "false" trial keys using a
// boolean flag. An empty name derives the flag name from the contract id.
func BooleanFlag(name string) SelectionMode {
	return SelectionMode{Kind: ModeBooleanFlag, Flag: name}
}

// ConfigValue selects the trial whose key exactly matches a configuration
// value. An empty key derives the configuration key from the contract id.
func ConfigValue(key string) SelectionMode {
	return SelectionMode{Kind: ModeConfigValue, Key: key}
}

// VariantFlag selects the trial named by a variant flag.
func VariantFlag(name string) SelectionMode {
	return SelectionMode{Kind: ModeVariantFlag, Flag: name}
}

// StickyRouting assigns each identity to a fixed trial via the hash router.
func StickyRouting(selector string) SelectionMode {
	return SelectionMode{Kind: ModeSticky, Selector: selector}
}

// CustomMode delegates selection to a registered custom resolver.
func CustomMode(id string) SelectionMode {
	return SelectionMode{Kind: ModeCustom, Custom: id}
}

// ErrorPolicy governs fallback among trials when the selected trial fails.
type ErrorPolicy string

const (
	// PolicyThrow propagates the selected trial's error with no fallback.
	PolicyThrow ErrorPolicy = "throw"
	// PolicyReplayDefault retries the default trial after a failure.
	PolicyReplayDefault ErrorPolicy = "replay_default"
	// PolicyReplayAny tries every trial, default last, until one succeeds.
	PolicyReplayAny ErrorPolicy = "replay_any"
)

// ActivationWindow is a half-open [From, Until) range. Outside the window a
// definition behaves as if only the default trial exists. Zero bounds are
// open on that side.
type ActivationWindow struct {
	From  time.Time
	Until time.Time
}

// Contains reports whether t falls inside the window.
func (w ActivationWindow) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.Until.IsZero() && !t.Before(w.Until) {
		return false
	}
	return true
}

// Invoker executes the unit of work against a constructed implementation.
type Invoker func(ctx context.Context, impl any) (any, error)

// Invocation carries per-call state through the decorator chain. Create a
// fresh value for every dispatch; the engine populates the outcome fields
// (SelectedKey, FinalKey, Attempts) as the call progresses so decorators can
// observe the final result and every fallback step.
type Invocation struct {
	Contract string
	Method   string
	Args     []any

	// ScopeID names the caller-owned consistency scope (one request, one
	// job). Empty disables selection caching for this call.
	ScopeID string

	// Do executes the routed method against a resolved implementation.
	Do Invoker

	SelectedKey string
	FinalKey    string
	Attempts    []Attempt
}

// Attempt records one candidate execution, including failed construction.
type Attempt struct {
	Key      string
	Duration time.Duration
	Err      error
}
