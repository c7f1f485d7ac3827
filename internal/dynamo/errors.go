package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrInvalidParameter indicates a value outside its documented range.
	// Nothing is mutated when it is returned.
	ErrInvalidParameter = errors.New("dynamo: invalid parameter")

	// ErrEngineCrashed indicates the engine's worker failed. The engine must
	// be discarded and recreated.
	ErrEngineCrashed = errors.New("dynamo: engine crashed")

	// ErrStopTimeout indicates a worker did not exit within its join bound.
	ErrStopTimeout = errors.New("dynamo: worker did not stop in time")

	// ErrNotFound indicates a lookup that matched nothing.
	ErrNotFound = errors.New("dynamo: not found")
)

// ParameterError names the field that failed validation.
type ParameterError struct {
	Field  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("dynamo: invalid parameter %s: %s", e.Field, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// Invalid builds a ParameterError.
func Invalid(field, format string, args ...any) error {
	return &ParameterError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CrashError carries the cause of an engine failure.
type CrashError struct {
	Cause error
}

func (e *CrashError) Error() string {
	if e.Cause == nil {
		return ErrEngineCrashed.Error()
	}
	return fmt.Sprintf("%s: %v", ErrEngineCrashed, e.Cause)
}

func (e *CrashError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrEngineCrashed}
	}
	return []error{ErrEngineCrashed, e.Cause}
}
