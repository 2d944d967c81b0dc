package modeller

import "fmt"

// WiringError is returned by AddComponent when a pin list's length or an
// individual pin's index is invalid for the aggregate's current state
// vectors.
type WiringError struct {
	Component string
	Reason    string
}

func (e *WiringError) Error() string {
	return fmt.Sprintf("modeller: wiring error in %s: %s", e.Component, e.Reason)
}

// StateError is returned when a builder or driver method is called outside
// the lifecycle phase it requires (e.g. AddComponent after Setup, Process
// before Setup).
type StateError struct {
	Operation string
	Reason    string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("modeller: %s: %s", e.Operation, e.Reason)
}

// DimensionError is returned when a vector passed to a state setter has
// the wrong length for the vector it targets.
type DimensionError struct {
	Vector   string
	Want, Got int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("modeller: %s has wrong dimension: want %d, got %d", e.Vector, e.Want, e.Got)
}

// NonConvergence is returned per-sample when the Newton-Raphson loop
// exhausts MaxIterations without meeting either tolerance. It carries the
// last iterate so the driver can decide whether to fall back to it or
// substitute the previous sample's state.
type NonConvergence struct {
	Iterations int
	ResidualNorm, DeltaNorm float64
	LastIterate []float64
}

func (e *NonConvergence) Error() string {
	return fmt.Sprintf(
		"modeller: newton solve did not converge after %d iterations (|F|=%g, |delta|=%g)",
		e.Iterations, e.ResidualNorm, e.DeltaNorm,
	)
}

// SingularSystem is returned per-sample when the Jacobian's LU
// factorization fails — typically a floating dynamic pin with no incident
// component contributing a row/column entry. It carries the iterate the
// solver was assembling when factorization failed.
type SingularSystem struct {
	Iteration   int
	LastIterate []float64
	Cause       error
}

func (e *SingularSystem) Error() string {
	return fmt.Sprintf("modeller: singular jacobian at newton iteration %d: %v", e.Iteration, e.Cause)
}

func (e *SingularSystem) Unwrap() error { return e.Cause }
