package dynamo

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors of the constraint core.
var (
	// ErrCyclicDependency indicates a kinematic or flow dependency loop.
	ErrCyclicDependency = errors.New("dynamo: cyclic kinematic dependency")

	// ErrContactSearchDivergence indicates the local closest-point search did not converge.
	ErrContactSearchDivergence = errors.New("dynamo: contact search diverged")

	// ErrSolverNonConvergence indicates the constraint solver hit its iteration cap.
	ErrSolverNonConvergence = errors.New("dynamo: solver did not converge")

	// ErrInvalidConstraintConfiguration indicates a link that cannot be evaluated as configured.
	ErrInvalidConstraintConfiguration = errors.New("dynamo: invalid constraint configuration")

	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates mismatched state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrNotInitialized indicates use of a system before Init.
	ErrNotInitialized = errors.New("dynamo: system not initialized")
)

// AssemblyError reports an inconsistent kinematic structure.
type AssemblyError struct {
	Element string
	Cycle   []string
	Wrapped error
}

func (e *AssemblyError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("%s: %s (cycle: %s)", e.Wrapped.Error(), e.Element, strings.Join(e.Cycle, " -> "))
	}
	return fmt.Sprintf("%s: %s", e.Wrapped.Error(), e.Element)
}

func (e *AssemblyError) Unwrap() error {
	return e.Wrapped
}

// ConfigurationError reports a link whose parameters are inconsistent.
type ConfigurationError struct {
	Link   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: link %q: %s", ErrInvalidConstraintConfiguration.Error(), e.Link, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConstraintConfiguration
}

// SearchError reports a failed closest-point search between two contours.
type SearchError struct {
	Pair       string
	Iterations int
	Residual   float64
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s: %s after %d iterations (residual %.3e)", ErrContactSearchDivergence.Error(), e.Pair, e.Iterations, e.Residual)
}

func (e *SearchError) Unwrap() error {
	return ErrContactSearchDivergence
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f): %s", e.Step, e.Time, e.Wrapped.Error())
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
