package system

import (
	"fmt"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/event"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/solver"
	"gonum.org/v1/gonum/mat"
)

// EvalIndicatorFunctions returns the event indicators at (t, q, u). Every
// value is positive while the committed activation state stays valid.
func (s *System) EvalIndicatorFunctions(t float64, q, u dynamo.State) (dynamo.State, error) {
	if _, _, err := s.ComputeConstraintForces(t, q, u); err != nil {
		return nil, err
	}
	return dynamo.State(s.events.Indicators()), nil
}

// Decide forwards the step decision of the event controller.
func (s *System) Decide(before, after []float64, converged bool) event.Decision {
	return s.events.Decide(before, after, converged)
}

// ResetUponEvent classifies the event located at (t, q, u), resolves an
// impact if one occurs and commits the new activation state. It returns the
// velocities after the event.
func (s *System) ResetUponEvent(t float64, q, u dynamo.State) (dynamo.State, error) {
	if err := s.update(t, q, u); err != nil {
		return nil, err
	}
	u = u.Clone()
	for k := 0; k < maxResets; k++ {
		// forces of the current state decide opening and stick-slip
		if _, _, err := s.forces(); err != nil {
			return nil, err
		}
		transitions, impact := s.events.Classify()
		if impact {
			du, err := s.impact()
			if err != nil {
				return nil, err
			}
			u = u.Add(du)
			if err := s.update(t, q, u); err != nil {
				return nil, err
			}
			transitions = append(transitions, s.events.AfterImpact()...)
		}
		if len(transitions) == 0 {
			s.events.Commit()
			s.logger.Debug("event reset", "t", t, "rounds", k)
			return u, nil
		}
	}
	s.events.Commit()
	s.logger.Warn("event reset did not settle", "t", t, "rounds", maxResets)
	return u, nil
}

// impact solves the velocity jump of every closed slot and every connection
// at the evaluated context and returns du.
func (s *System) impact() (dynamo.State, error) {
	closed := func(ct *link.Contact, i int) bool {
		sl := ct.Slots()[i]
		return sl.Present && sl.Status.Closed()
	}
	a := s.assemble(solver.Velocity, closed, 0)
	du := make(dynamo.State, s.tree.USize())
	if a.size() == 0 {
		return du, nil
	}
	u := mat.NewVecDense(len(du), s.tree.Context().U.Clone())
	p, MinvW, err := s.problem(a, u, 0)
	if err != nil {
		return nil, err
	}
	res, err := s.solve(a, p)
	if err != nil {
		return nil, fmt.Errorf("impact at t=%g: %w", s.tree.Context().T, err)
	}
	a.scatter(res.La, func(sl *link.Slot) []float64 { return sl.Impulse })

	var v mat.VecDense
	v.MulVec(MinvW, mat.NewVecDense(len(res.La), res.La))
	for i := range du {
		du[i] = v.AtVec(i)
	}
	return du, nil
}
