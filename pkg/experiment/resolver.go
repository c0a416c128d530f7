package experiment

import (
	"context"
	"time"
)

// resolver turns a definition plus the configured providers into a trial key
// for one call. Resolution never fails: provider errors, missing providers,
// and unknown keys all resolve to the definition's default trial.
type resolver struct {
	flags    FlagProvider
	config   ConfigProvider
	identity IdentityProvider
	custom   *CustomResolverRegistry
	now      func() time.Time
}

func (r *resolver) resolve(ctx context.Context, def *Definition, inv *Invocation) string {
	if !def.window.Contains(r.now()) {
		return def.defaultKey
	}

	switch def.mode.Kind {
	case ModeBooleanFlag:
		return r.booleanFlag(ctx, def, def.mode.Flag)
	case ModeConfigValue:
		return r.configValue(ctx, def, def.mode.Key)
	case ModeVariantFlag:
		return r.variantFlag(ctx, def, def.mode.Flag)
	case ModeSticky:
		return r.sticky(ctx, def)
	case ModeCustom:
		return r.customMode(ctx, def, inv)
	default:
		return def.defaultKey
	}
}

func (r *resolver) booleanFlag(ctx context.Context, def *Definition, name string) string {
	if r.flags == nil {
		return def.defaultKey
	}
	// Boolean routing needs both literal keys present to be meaningful.
	if !def.has(TrialKeyTrue) || !def.has(TrialKeyFalse) {
		return def.defaultKey
	}
	if name == "" {
		name = def.contract
	}
	enabled, err := r.flags.IsEnabled(ctx, name)
	if err != nil {
		return def.defaultKey
	}
	if enabled {
		return TrialKeyTrue
	}
	return TrialKeyFalse
}

func (r *resolver) configValue(ctx context.Context, def *Definition, key string) string {
	if r.config == nil {
		return def.defaultKey
	}
	if key == "" {
		key = def.contract
	}
	value, err := r.config.Value(ctx, key)
	if err != nil || value == "" {
		return def.defaultKey
	}
	// Exact match only; no prefix or case folding.
	if !def.has(value) {
		return def.defaultKey
	}
	return value
}

func (r *resolver) variantFlag(ctx context.Context, def *Definition, name string) string {
	if r.flags == nil {
		return def.defaultKey
	}
	if name == "" {
		name = def.contract
	}
	variant, err := r.flags.Variant(ctx, name)
	if err != nil || variant == "" || !def.has(variant) {
		return def.defaultKey
	}
	return variant
}

func (r *resolver) sticky(ctx context.Context, def *Definition) string {
	if r.identity != nil {
		if id, found := r.identity.Identity(ctx); found && id != "" {
			return Route(id, def.mode.Selector, def.Keys())
		}
	}
	// No identity: degrade to a boolean flag named after the selector.
	return r.booleanFlag(ctx, def, def.mode.Selector)
}

func (r *resolver) customMode(ctx context.Context, def *Definition, inv *Invocation) string {
	if r.custom == nil {
		return def.defaultKey
	}
	fn, ok := r.custom.lookup(def.mode.Custom)
	if !ok {
		return def.defaultKey
	}
	key, err := fn(ctx, def, inv)
	if err != nil || !def.has(key) {
		return def.defaultKey
	}
	return key
}
