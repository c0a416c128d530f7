package experiment

import (
	"time"
)

// Definition is an immutable description of one routed contract: its
// selection mode, trial set, error policy, activation window, and decorator
// pipeline. Build one with NewBuilder; a Definition is safe for concurrent
// use by any number of dispatchers and is never mutated after Build.
type Definition struct {
	contract   string
	mode       SelectionMode
	defaultKey string
	trials     []Trial
	index      map[string]int
	policy     ErrorPolicy
	window     ActivationWindow
	decorators []Decorator
}

// Contract returns the service contract identifier.
func (d *Definition) Contract() string { return d.contract }

// Mode returns the selection mode.
func (d *Definition) Mode() SelectionMode { return d.mode }

// DefaultKey returns the designated default trial key.
func (d *Definition) DefaultKey() string { return d.defaultKey }

// Policy returns the error policy.
func (d *Definition) Policy() ErrorPolicy { return d.policy }

// Window returns the activation window (zero value means always active).
func (d *Definition) Window() ActivationWindow { return d.window }

// Keys returns the trial keys in registration order.
func (d *Definition) Keys() []string {
	keys := make([]string, len(d.trials))
	for i, tr := range d.trials {
		keys[i] = tr.Key
	}
	return keys
}

func (d *Definition) has(key string) bool {
	_, ok := d.index[key]
	return ok
}

// trial resolves a key to its Trial; unknown keys resolve to the default.
func (d *Definition) trial(key string) Trial {
	if i, ok := d.index[key]; ok {
		return d.trials[i]
	}
	return d.trials[d.index[d.defaultKey]]
}

// Builder assembles a Definition. Methods may be chained; Build validates
// the whole definition and fails fast with a ConfigError on any problem.
type Builder struct {
	contract   string
	mode       SelectionMode
	modeSet    bool
	defaultKey string
	trials     []Trial
	policy     ErrorPolicy
	window     ActivationWindow
	decorators []Decorator
}

// NewBuilder starts a definition for the named service contract.
func NewBuilder(contract string) *Builder {
	return &Builder{contract: contract}
}

// Mode attaches the selection mode.
func (b *Builder) Mode(mode SelectionMode) *Builder {
	b.mode = mode
	b.modeSet = true
	return b
}

// Default registers the designated default trial. The default is the
// guaranteed fallback and must always be resolvable.
func (b *Builder) Default(key string, factory Factory) *Builder {
	b.defaultKey = key
	b.trials = append(b.trials, Trial{Key: key, New: factory})
	return b
}

// Trial registers an additional trial by key.
func (b *Builder) Trial(key string, factory Factory) *Builder {
	b.trials = append(b.trials, Trial{Key: key, New: factory})
	return b
}

// OnError attaches the error policy. Unset defaults to PolicyThrow.
func (b *Builder) OnError(policy ErrorPolicy) *Builder {
	b.policy = policy
	return b
}

// Window attaches a half-open [from, until) activation window.
func (b *Builder) Window(from, until time.Time) *Builder {
	b.window = ActivationWindow{From: from, Until: until}
	return b
}

// Decorate appends decorators; the first registered runs outermost.
func (b *Builder) Decorate(decorators ...Decorator) *Builder {
	b.decorators = append(b.decorators, decorators...)
	return b
}

// Build validates and freezes the definition.
func (b *Builder) Build() (*Definition, error) {
	if b.contract == "" {
		return nil, configErrorf("", "contract identifier is required")
	}
	if !b.modeSet {
		return nil, configErrorf(b.contract, "selection mode is required")
	}
	switch b.mode.Kind {
	case ModeBooleanFlag, ModeConfigValue, ModeVariantFlag, ModeSticky, ModeCustom:
	default:
		return nil, configErrorf(b.contract, "unknown selection mode kind %q", b.mode.Kind)
	}
	if len(b.trials) == 0 {
		return nil, configErrorf(b.contract, "trial set is empty")
	}
	if b.defaultKey == "" {
		return nil, configErrorf(b.contract, "default trial is required")
	}

	index := make(map[string]int, len(b.trials))
	for i, tr := range b.trials {
		if tr.Key == "" {
			return nil, configErrorf(b.contract, "trial key is empty")
		}
		if tr.New == nil {
			return nil, configErrorf(b.contract, "trial %q has no factory", tr.Key)
		}
		if _, dup := index[tr.Key]; dup {
			return nil, configErrorf(b.contract, "duplicate trial key %q", tr.Key)
		}
		index[tr.Key] = i
	}
	if _, ok := index[b.defaultKey]; !ok {
		return nil, configErrorf(b.contract, "default trial %q not in trial set", b.defaultKey)
	}

	policy := b.policy
	if policy == "" {
		policy = PolicyThrow
	}
	switch policy {
	case PolicyThrow, PolicyReplayDefault, PolicyReplayAny:
	default:
		return nil, configErrorf(b.contract, "unknown error policy %q", policy)
	}

	if !b.window.From.IsZero() && !b.window.Until.IsZero() && !b.window.From.Before(b.window.Until) {
		return nil, configErrorf(b.contract, "activation window is inverted")
	}

	trials := make([]Trial, len(b.trials))
	copy(trials, b.trials)
	decorators := make([]Decorator, len(b.decorators))
	copy(decorators, b.decorators)

	return &Definition{
		contract:   b.contract,
		mode:       b.mode,
		defaultKey: b.defaultKey,
		trials:     trials,
		index:      index,
		policy:     policy,
		window:     b.window,
		decorators: decorators,
	}, nil
}
