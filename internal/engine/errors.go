package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is wrapped by every rejected option value.
	ErrConfiguration = errors.New("engine: invalid configuration")
	// ErrInvariantViolation reports an internal consistency failure such as a
	// move stack popped out of order. A search that hits one is aborted.
	ErrInvariantViolation = errors.New("engine: invariant violation")
	// ErrNoSearch is returned for a nil or foreign search handle.
	ErrNoSearch = errors.New("engine: no such search")
	// ErrSearching is returned when an option that resizes shared state is set
	// while a search runs.
	ErrSearching = errors.New("engine: search in progress")
)

// ConfigError describes a rejected option.
type ConfigError struct {
	Option string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("engine: option %q value %q: %s", e.Option, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// invariantPanic is the panic payload raised by violate and turned back into
// an error by the worker that owns the failing stack.
type invariantPanic struct{ msg string }

func violate(format string, args ...any) {
	panic(invariantPanic{fmt.Sprintf(format, args...)})
}

// recoverInvariant converts an invariantPanic into ErrInvariantViolation.
// Other panics are re-raised.
func recoverInvariant(err *error) {
	r := recover()
	if r == nil {
		return
	}
	p, ok := r.(invariantPanic)
	if !ok {
		panic(r)
	}
	*err = fmt.Errorf("%w: %s", ErrInvariantViolation, p.msg)
}
