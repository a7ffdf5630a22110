package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a NaN or Inf was detected in atom state.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidTimestep indicates a non-positive or non-finite timestep.
	ErrInvalidTimestep = errors.New("dynamo: timestep must be positive and finite")

	// ErrBeamOverflow indicates more live beams of one kind than BeamLimit.
	ErrBeamOverflow = errors.New("dynamo: beam count exceeds beam limit")

	// ErrZeroLinewidth indicates an atomic transition with no linewidth.
	ErrZeroLinewidth = errors.New("dynamo: transition linewidth must be positive")

	// ErrNonPositiveSaturation indicates a saturation intensity <= 0.
	ErrNonPositiveSaturation = errors.New("dynamo: saturation intensity must be positive")

	// ErrDegenerateDipole indicates a dipole beam exactly on the atomic resonance.
	ErrDegenerateDipole = errors.New("dynamo: dipole beam frequency equals transition frequency")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// ConfigError identifies the entity or parameter responsible for a fatal
// configuration problem.
type ConfigError struct {
	Entity string
	Param  string
	Value  float64
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("%s: %s=%g: %v", e.Entity, e.Param, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StepError wraps an error with the step it aborted.
type StepError struct {
	Step uint64
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
