package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for control and run operations.
var (
	// ErrParameterBounds indicates a control value is outside its valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownMode indicates an unrecognized flow regime name.
	ErrUnknownMode = errors.New("dynamo: unknown flow mode")

	// ErrUnknownPreset indicates an unrecognized preset name.
	ErrUnknownPreset = errors.New("dynamo: unknown preset")

	// ErrNoData indicates a run record without samples.
	ErrNoData = errors.New("dynamo: no data")

	// ErrSchedulerRunning indicates Start was called on a running scheduler.
	ErrSchedulerRunning = errors.New("dynamo: scheduler already running")
)

// ControlError wraps a rejected control event with its operation and value.
type ControlError struct {
	Op      string
	Value   float64
	Wrapped error
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("%s(%g): %v", e.Op, e.Value, e.Wrapped)
}

func (e *ControlError) Unwrap() error {
	return e.Wrapped
}
