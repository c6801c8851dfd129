package system

import (
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/event"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/solver"
	"gonum.org/v1/gonum/mat"
)

// ComputeConstraintForces solves the acceleration level problem of the
// current activation state at (t, q, u). It returns the stacked forces of
// every connection and every closed contact slot in declaration order. The
// best iterate is returned and committed to the slots even when the solver
// did not converge.
func (s *System) ComputeConstraintForces(t float64, q, u dynamo.State) ([]float64, bool, error) {
	if err := s.update(t, q, u); err != nil {
		return nil, false, err
	}
	if s.opts.Mode == event.TimeStepping {
		s.events.UpdateActivation(0)
	}
	return s.forces()
}

// forces runs the acceleration level solve on the evaluated context and
// stores ud.
func (s *System) forces() ([]float64, bool, error) {
	a := s.assemble(solver.Acceleration, s.events.InForceProblem, 0)
	p, MinvW, err := s.problem(a, nil, 0)
	if err != nil {
		return nil, false, err
	}
	res, err := s.solve(a, p)
	if err != nil {
		return res.La, false, err
	}

	for _, ct := range s.contacts {
		for _, sl := range ct.Slots() {
			zero(sl.La)
		}
	}
	a.scatter(res.La, func(sl *link.Slot) []float64 { return sl.La })

	udot, err := s.factor.SolveVec(s.h)
	if err != nil {
		return nil, false, err
	}
	if MinvW != nil {
		var f mat.VecDense
		f.MulVec(MinvW, mat.NewVecDense(len(res.La), res.La))
		udot.AddVec(udot, &f)
	}
	s.udot = udot
	s.updateGdd()
	return res.La, res.Converged, nil
}

// updateGdd evaluates W^T ud + wb for every present slot.
func (s *System) updateGdd() {
	for _, l := range s.links {
		for _, sl := range l.Slots() {
			if !sl.Present {
				zero(sl.Gdd)
				continue
			}
			for d := range sl.Gdd {
				sl.Gdd[d] = mat.Dot(sl.W.ColView(d), s.udot) + sl.Wb[d]
			}
		}
	}
}

// Derivative returns qd = u and ud = M^-1 (h + W la).
func (s *System) Derivative(t float64, q, u dynamo.State) (dynamo.State, dynamo.State, error) {
	if _, _, err := s.ComputeConstraintForces(t, q, u); err != nil {
		return nil, nil, err
	}
	qd := u.Clone()
	ud := make(dynamo.State, s.udot.Len())
	for i := range ud {
		ud[i] = s.udot.AtVec(i)
	}
	return qd, ud, nil
}

func zero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}
