package system

import (
	"fmt"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/solver"
	"gonum.org/v1/gonum/mat"
)

// ComputeImpulses solves the velocity level problem of one time step of size
// dt at the configuration q (the midpoint of a Moreau step). Activation is
// re-evaluated from the gaps first. It returns du = M^-1 (h dt + W La).
func (s *System) ComputeImpulses(t float64, q, u dynamo.State, dt float64) (dynamo.State, bool, error) {
	if dt <= 0 {
		return nil, false, fmt.Errorf("%w: step size %g", dynamo.ErrInvalidState, dt)
	}
	if err := s.update(t, q, u); err != nil {
		return nil, false, err
	}
	s.events.UpdateActivation(dt / 2)

	closed := func(ct *link.Contact, i int) bool {
		sl := ct.Slots()[i]
		return sl.Present && sl.Status.Closed()
	}
	a := s.assemble(solver.Velocity, closed, dt)
	uv := mat.NewVecDense(len(u), u.Clone())
	p, MinvW, err := s.problem(a, uv, dt)
	if err != nil {
		return nil, false, err
	}
	res, err := s.solve(a, p)
	if err != nil {
		return nil, false, err
	}

	for _, ct := range s.contacts {
		for _, sl := range ct.Slots() {
			zero(sl.Impulse)
			zero(sl.La)
		}
	}
	a.scatter(res.La, func(sl *link.Slot) []float64 { return sl.Impulse })
	la := make([]float64, len(res.La))
	for i, v := range res.La {
		la[i] = v / dt
	}
	a.scatter(la, func(sl *link.Slot) []float64 { return sl.La })

	free, err := s.factor.SolveVec(s.h)
	if err != nil {
		return nil, false, err
	}
	free.ScaleVec(dt, free)
	if MinvW != nil {
		var v mat.VecDense
		v.MulVec(MinvW, mat.NewVecDense(len(res.La), res.La))
		free.AddVec(free, &v)
	}
	du := make(dynamo.State, free.Len())
	for i := range du {
		du[i] = free.AtVec(i)
	}
	s.udot = mat.NewVecDense(len(du), du.Scale(1/dt))
	s.updateGdd()
	return du, res.Converged, nil
}
