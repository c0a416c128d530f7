package providers

import (
	"context"
	"os"
	"strconv"
	"strings"
)

// EnvConfig reads configuration values from the process environment. A key
// like "search.engine" maps to PREFIX_SEARCH_ENGINE with dots and dashes
// folded to underscores.
type EnvConfig struct {
	Prefix string
}

// NewEnvConfig returns a provider with the given variable prefix.
func NewEnvConfig(prefix string) *EnvConfig {
	return &EnvConfig{Prefix: prefix}
}

// Value implements experiment.ConfigProvider.
func (e *EnvConfig) Value(ctx context.Context, key string) (string, error) {
	return os.Getenv(e.envName(key)), nil
}

// IsEnabled implements the boolean half of experiment.FlagProvider so the
// environment can also back boolean flag modes. Unset or unparsable
// variables read as false.
func (e *EnvConfig) IsEnabled(ctx context.Context, name string) (bool, error) {
	raw := os.Getenv(e.envName(name))
	if raw == "" {
		return false, nil
	}
	on, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, nil
	}
	return on, nil
}

// Variant implements the variant half of experiment.FlagProvider.
func (e *EnvConfig) Variant(ctx context.Context, name string) (string, error) {
	return os.Getenv(e.envName(name)), nil
}

func (e *EnvConfig) envName(key string) string {
	mapped := strings.NewReplacer(".", "_", "-", "_").Replace(key)
	mapped = strings.ToUpper(mapped)
	if e.Prefix == "" {
		return mapped
	}
	return strings.ToUpper(e.Prefix) + "_" + mapped
}
