// Package dynamo provides the primitives shared by the constraint core and the
// integration drivers that consume it.
//
// The package defines:
//
//   - [State]: flat vector of generalized positions or velocities
//   - [System]: the interface an integration driver sees (sizes, forces, events)
//   - the error taxonomy of the core ([ErrCyclicDependency], [ErrContactSearchDivergence],
//     [ErrSolverNonConvergence], [ErrInvalidConstraintConfiguration])
//
// # Error policy
//
// Structural errors ([AssemblyError], [ConfigurationError]) abort model
// initialisation. Numerical failures ([SearchError], solver non-convergence)
// are recovered by the component that detects them and surfaced through
// return values and log records.
//
// # Thread Safety
//
// Nothing in this package is synchronised. A System is evaluated by exactly one
// goroutine per step.
package dynamo
