package system

import (
	"fmt"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"gonum.org/v1/gonum/mat"
)

// Energy returns the kinetic energy 1/2 u^T M u and the gravitational
// potential of the bodies at (t, q, u). Spring and flow line potentials are
// not included.
func (s *System) Energy(t float64, q, u dynamo.State) (kinetic, potential float64, err error) {
	if !s.ready {
		return 0, 0, fmt.Errorf("system %s: %w", s.name, dynamo.ErrNotInitialized)
	}
	if err := s.tree.SetState(kinematics.Context{T: t, Q: q, U: u}); err != nil {
		return 0, 0, err
	}
	M, _ := s.tree.Dynamics(s.opts.Gravity)
	uv := mat.NewVecDense(len(u), u.Clone())
	kinetic = 0.5 * mat.Inner(uv, M, uv)
	for i := 0; i < s.tree.NumBodies(); i++ {
		b := s.tree.Body(kinematics.BodyID(i))
		potential -= b.Mass * s.opts.Gravity.Dot(s.tree.Frame(b.Frame()).Position)
	}
	return kinetic, potential, nil
}
