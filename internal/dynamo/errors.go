package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParameter indicates a tunable name that the target does not expose.
	ErrUnknownParameter = errors.New("dynamo: unknown parameter")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Body    string
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Body == "" {
		return e.Wrapped.Error()
	}
	return "body " + e.Body + ": " + e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
