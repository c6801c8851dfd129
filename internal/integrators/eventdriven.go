package integrators

import (
	"fmt"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/event"
)

// Smooth advances a system over an interval without discrete transitions.
type Smooth interface {
	Advance(sys dynamo.System, t float64, q, u dynamo.State, dt float64) (dynamo.State, dynamo.State, error)
}

// decider is implemented by systems that own an event controller.
type decider interface {
	Decide(before, after []float64, converged bool) event.Decision
}

// solveTracker is implemented by systems that latch constraint solves which
// stopped at their iteration limit.
type solveTracker interface {
	ResetSolves()
	SolvesConverged() bool
}

func resetSolves(sys dynamo.System) {
	if st, ok := sys.(solveTracker); ok {
		st.ResetSolves()
	}
}

func solvesConverged(sys dynamo.System) bool {
	if st, ok := sys.(solveTracker); ok {
		return st.SolvesConverged()
	}
	return true
}

// projector is implemented by systems that can remove constraint drift.
type projector interface {
	ProjectPositions(t float64, q, u dynamo.State) (dynamo.State, error)
	ProjectVelocities(t float64, q, u dynamo.State) (dynamo.State, error)
}

// EventDriven wraps a smooth method, watches the indicator functions of the
// system and locates sign changes by bisection. A located event ends the
// step; the system resets its discrete state there.
type EventDriven struct {
	Base      Smooth
	MaxBisect int
	// TimeTol is the width of the final bracket around an event.
	TimeTol float64
	// Project removes position and velocity drift after every step.
	Project bool
	// MinDt and MaxHalvings bound the halving of steps whose force solves
	// did not converge.
	MinDt       float64
	MaxHalvings int
}

func NewEventDriven(base Smooth) *EventDriven {
	return &EventDriven{Base: base, MaxBisect: 60, TimeTol: 1e-12, MinDt: 1e-9, MaxHalvings: 8}
}

// Initialize commits the discrete state of the initial point.
func (e *EventDriven) Initialize(sys dynamo.System, t float64, q, u dynamo.State) (dynamo.State, error) {
	es, ok := sys.(dynamo.EventSystem)
	if !ok {
		return u, nil
	}
	return es.ResetUponEvent(t, q, u)
}

func (e *EventDriven) advance(sys dynamo.System, t float64, q, u dynamo.State, dt float64) (dynamo.State, dynamo.State, bool, error) {
	resetSolves(sys)
	q1, u1, err := e.Base.Advance(sys, t, q, u, dt)
	if err != nil {
		return nil, nil, false, err
	}
	if p, ok := sys.(projector); ok && e.Project {
		if q1, err = p.ProjectPositions(t+dt, q1, u1); err != nil {
			return nil, nil, false, err
		}
		if u1, err = p.ProjectVelocities(t+dt, q1, u1); err != nil {
			return nil, nil, false, err
		}
	}
	return q1, u1, solvesConverged(sys), nil
}

func crossed(sys dynamo.System, before, after []float64) bool {
	if d, ok := sys.(decider); ok {
		return d.Decide(before, after, true) == event.Relocate
	}
	for i := range before {
		if i < len(after) && before[i] > 0 && after[i] <= 0 {
			return true
		}
	}
	return false
}

// smooth advances over dt, halving the step while the force solves do not
// converge and the controller rejects the step. Once the halving limit is
// reached the best iterate is kept and reported as unconverged.
func (e *EventDriven) smooth(sys dynamo.System, t float64, q, u dynamo.State, dt float64) (dynamo.State, dynamo.State, float64, bool, error) {
	h := dt
	for halvings := 0; ; halvings++ {
		q1, u1, converged, err := e.advance(sys, t, q, u, h)
		if err != nil {
			return nil, nil, 0, false, err
		}
		if !accepted(sys, converged) && halvings < e.MaxHalvings && h/2 >= e.MinDt {
			h /= 2
			continue
		}
		return q1, u1, h, converged, nil
	}
}

func (e *EventDriven) Step(sys dynamo.System, t float64, q, u dynamo.State, dt float64) (dynamo.StepResult, error) {
	es, ok := sys.(dynamo.EventSystem)
	if !ok {
		q1, u1, h, converged, err := e.smooth(sys, t, q, u, dt)
		if err != nil {
			return dynamo.StepResult{}, err
		}
		return dynamo.StepResult{Q: q1, U: u1, Dt: h, Converged: converged}, nil
	}

	before, err := es.EvalIndicatorFunctions(t, q, u)
	if err != nil {
		return dynamo.StepResult{}, err
	}
	q1, u1, h, converged, err := e.smooth(sys, t, q, u, dt)
	if err != nil {
		return dynamo.StepResult{}, err
	}
	after, err := es.EvalIndicatorFunctions(t+h, q1, u1)
	if err != nil {
		return dynamo.StepResult{}, err
	}
	if !crossed(sys, before, after) {
		return dynamo.StepResult{Q: q1, U: u1, Dt: h, Converged: converged}, nil
	}

	// keep the state just after the crossing
	lo, hi := 0.0, h
	for i := 0; i < e.MaxBisect && hi-lo > e.TimeTol; i++ {
		mid := 0.5 * (lo + hi)
		qm, um, cm, err := e.advance(sys, t, q, u, mid)
		if err != nil {
			return dynamo.StepResult{}, err
		}
		am, err := es.EvalIndicatorFunctions(t+mid, qm, um)
		if err != nil {
			return dynamo.StepResult{}, err
		}
		if crossed(sys, before, am) {
			hi, q1, u1, converged = mid, qm, um, cm
		} else {
			lo = mid
		}
	}

	resetSolves(sys)
	u2, err := es.ResetUponEvent(t+hi, q1, u1)
	if err != nil {
		return dynamo.StepResult{}, fmt.Errorf("event at t=%g: %w", t+hi, err)
	}
	converged = converged && solvesConverged(sys)
	return dynamo.StepResult{Q: q1, U: u2, Dt: hi, Event: true, Converged: converged}, nil
}
