package integrators

import (
	"fmt"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/event"
)

// Moreau is the midpoint time-stepping scheme: half a position step, the
// velocity jump over the whole step from the impulse problem at the
// midpoint, and the second half of the position step with the new
// velocity. A step whose impulse problem did not converge is halved at most
// MaxHalvings times, and never below MinDt, before the best iterate is
// accepted.
type Moreau struct {
	MinDt       float64
	MaxHalvings int
}

func NewMoreau() *Moreau {
	return &Moreau{MinDt: 1e-9, MaxHalvings: 8}
}

// Initialize evaluates the system once so the first output row is complete.
func (m *Moreau) Initialize(sys dynamo.System, t float64, q, u dynamo.State) (dynamo.State, error) {
	if _, _, err := sys.Derivative(t, q, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (m *Moreau) Step(sys dynamo.System, t float64, q, u dynamo.State, dt float64) (dynamo.StepResult, error) {
	ts, ok := sys.(dynamo.TimeSteppingSystem)
	if !ok {
		return dynamo.StepResult{}, fmt.Errorf("%w: system does not support time-stepping", dynamo.ErrInvalidState)
	}
	h := dt
	for halvings := 0; ; halvings++ {
		qm := q.AddScaled(u, h/2)
		du, converged, err := ts.ComputeImpulses(t+h/2, qm, u, h)
		if err != nil {
			return dynamo.StepResult{}, err
		}
		if !accepted(sys, converged) && halvings < m.MaxHalvings && h/2 >= m.MinDt {
			h /= 2
			continue
		}
		u1 := u.Add(du)
		q1 := qm.AddScaled(u1, h/2)
		return dynamo.StepResult{Q: q1, U: u1, Dt: h, Converged: converged}, nil
	}
}

func accepted(sys dynamo.System, converged bool) bool {
	if d, ok := sys.(decider); ok {
		return d.Decide(nil, nil, converged) != event.Reject
	}
	return converged
}
