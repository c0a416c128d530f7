package experiment

import (
	"errors"
	"fmt"
)

// ErrNoInvoker indicates an invocation arrived without a Do function.
var ErrNoInvoker = errors.New("experiment: invocation has no invoker")

// ConfigError reports an invalid definition at build time. Definitions that
// would produce one are never constructed, so no invocation can observe an
// invalid trial set.
type ConfigError struct {
	Contract string
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Contract == "" {
		return fmt.Sprintf("experiment: %s", e.Reason)
	}
	return fmt.Sprintf("experiment %q: %s", e.Contract, e.Reason)
}

func configErrorf(contract, format string, args ...any) error {
	return &ConfigError{Contract: contract, Reason: fmt.Sprintf(format, args...)}
}
