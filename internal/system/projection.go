package system

import (
	"fmt"
	"math"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/link"
	"gonum.org/v1/gonum/mat"
)

// maxProjections bounds the Newton iterations of position projection.
const maxProjections = 5

// row is one scalar constraint taking part in a projection.
type row struct {
	slot *link.Slot
	dir  int
}

// bindingRows lists every connection direction and the normal of every
// closed strict contact.
func (s *System) bindingRows() []row {
	var rows []row
	for _, l := range s.links {
		switch l := l.(type) {
		case *link.Connection:
			sl := l.Slots()[0]
			for d := 0; d < sl.Directions(); d++ {
				rows = append(rows, row{sl, d})
			}
		case *link.Contact:
			if l.Mode() == link.Regularized {
				continue
			}
			for _, sl := range l.Slots() {
				if sl.Present && sl.Status.Closed() {
					rows = append(rows, row{sl, 0})
				}
			}
		}
	}
	return rows
}

// correction returns M^-1 W x with G x = -r over rows.
func (s *System) correction(rows []row, r []float64) (dynamo.State, error) {
	n := s.tree.USize()
	W := mat.NewDense(n, len(rows), nil)
	for j, rw := range rows {
		for i := 0; i < n; i++ {
			W.Set(i, j, rw.slot.W.At(i, rw.dir))
		}
	}
	G, MinvW, err := s.factor.Delassus(W)
	if err != nil {
		return nil, err
	}
	rhs := mat.NewVecDense(len(r), nil)
	for i, v := range r {
		rhs.SetVec(i, -v)
	}
	var x, dx mat.VecDense
	if err := x.SolveVec(G, rhs); err != nil {
		return nil, fmt.Errorf("%w: redundant constraints in projection: %v", dynamo.ErrInvalidState, err)
	}
	dx.MulVec(MinvW, &x)
	out := make(dynamo.State, n)
	for i := range out {
		out[i] = dx.AtVec(i)
	}
	return out, nil
}

// ProjectPositions moves q onto the binding constraints g = 0 in the metric
// of the mass matrix. q is returned unchanged when it already lies within
// gTol.
func (s *System) ProjectPositions(t float64, q, u dynamo.State) (dynamo.State, error) {
	q = q.Clone()
	for k := 0; k < maxProjections; k++ {
		if err := s.update(t, q, u); err != nil {
			return nil, err
		}
		rows := s.bindingRows()
		r := make([]float64, len(rows))
		worst := 0.0
		for i, rw := range rows {
			r[i] = rw.slot.G[rw.dir]
			worst = math.Max(worst, math.Abs(r[i]))
		}
		if worst <= s.opts.Solver.GTol {
			return q, nil
		}
		dq, err := s.correction(rows, r)
		if err != nil {
			return nil, err
		}
		q = q.Add(dq)
	}
	s.logger.Warn("position projection did not converge", "t", t)
	return q, nil
}

// ProjectVelocities removes the binding components of u, so gd = 0.
func (s *System) ProjectVelocities(t float64, q, u dynamo.State) (dynamo.State, error) {
	if err := s.update(t, q, u); err != nil {
		return nil, err
	}
	rows := s.bindingRows()
	r := make([]float64, len(rows))
	worst := 0.0
	for i, rw := range rows {
		r[i] = rw.slot.Gd[rw.dir]
		worst = math.Max(worst, math.Abs(r[i]))
	}
	if worst <= s.opts.Solver.GdTol {
		return u.Clone(), nil
	}
	du, err := s.correction(rows, r)
	if err != nil {
		return nil, err
	}
	return u.Add(du), nil
}
