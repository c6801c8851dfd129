// Package integrators contains the drivers that advance a constrained
// system: smooth explicit steppers, an event-driven wrapper that locates
// discrete transitions, and Moreau time-stepping.
package integrators

import "github.com/san-kum/nonsmooth/internal/dynamo"

// Euler is the explicit Euler method on (q, u).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Advance(sys dynamo.System, t float64, q, u dynamo.State, dt float64) (dynamo.State, dynamo.State, error) {
	qd, ud, err := sys.Derivative(t, q, u)
	if err != nil {
		return nil, nil, err
	}
	return q.AddScaled(qd, dt), u.AddScaled(ud, dt), nil
}

func (e *Euler) Step(sys dynamo.System, t float64, q, u dynamo.State, dt float64) (dynamo.StepResult, error) {
	resetSolves(sys)
	q1, u1, err := e.Advance(sys, t, q, u, dt)
	if err != nil {
		return dynamo.StepResult{}, err
	}
	return dynamo.StepResult{Q: q1, U: u1, Dt: dt, Converged: solvesConverged(sys)}, nil
}
