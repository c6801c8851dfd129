// Package solver computes constraint forces and impulses with projected
// Gauss-Seidel relaxation.
//
// A [Problem] is the linear relation gdd = G*la + B between the stacked
// constraint forces and the constraint accelerations (or post-impact
// velocities), split into blocks that each carry a constitutive [Law]. Sweeps
// visit the blocks in declaration order and never mutate their input, so the
// same problem and seed always produce bit-identical results.
package solver

import (
	"fmt"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Level selects acceleration (force) or velocity (impulse) problems.
type Level int

const (
	Acceleration Level = iota
	Velocity
)

func (l Level) String() string {
	if l == Velocity {
		return "velocity"
	}
	return "acceleration"
}

// Tol is the pair of tolerances a law checks against: the kinematic
// residual (gdd or gd) and the force (or impulse).
type Tol struct {
	Residual float64
	Force    float64
}

// Local is everything a law sees of its own block during a sweep.
type Local struct {
	La  []float64
	Gdd []float64
	// Pre holds the velocities before an impact; nil at acceleration level.
	Pre []float64
	// LaN is the coupled normal force of friction blocks.
	LaN float64
}

// Law is a constitutive law expressed as a proximal projection.
type Law interface {
	// Project returns prox(la - r*gdd) onto the admissible set.
	Project(l Local, r []float64) []float64
	// Solve returns the exact local solution of gdd = Gkk*la + b.
	Solve(Gkk *mat.Dense, b []float64, l Local) []float64
	// Fulfilled reports whether the block satisfies its law within tol.
	Fulfilled(l Local, tol Tol) bool
}

// Block is a contiguous range of la governed by one law.
type Block struct {
	Name   string
	Offset int
	Size   int
	Law    Law
	// Normal is the index in la of the normal force a friction block is
	// coupled to, or -1.
	Normal int
	Pre    []float64
}

// Problem is gdd = G*la + B over all blocks.
type Problem struct {
	Level  Level
	G      *mat.Dense
	B      []float64
	Blocks []Block
}

// Size is the number of force components.
func (p *Problem) Size() int { return len(p.B) }

// Validate checks block layout and dimensions.
func (p *Problem) Validate() error {
	m := len(p.B)
	if m == 0 {
		return nil
	}
	if p.G == nil {
		return fmt.Errorf("%w: missing Delassus matrix", dynamo.ErrDimensionMismatch)
	}
	if r, c := p.G.Dims(); r != m || c != m {
		return fmt.Errorf("%w: G is %dx%d, b has %d rows", dynamo.ErrDimensionMismatch, r, c, m)
	}
	next := 0
	for _, b := range p.Blocks {
		if b.Offset != next || b.Size <= 0 {
			return fmt.Errorf("%w: block %s at %d/%d, expected offset %d", dynamo.ErrDimensionMismatch, b.Name, b.Offset, b.Size, next)
		}
		if b.Normal >= m {
			return fmt.Errorf("%w: block %s couples to %d", dynamo.ErrDimensionMismatch, b.Name, b.Normal)
		}
		next += b.Size
	}
	if next != m {
		return fmt.Errorf("%w: blocks cover %d of %d rows", dynamo.ErrDimensionMismatch, next, m)
	}
	return nil
}

// Residual returns G*la + B.
func (p *Problem) Residual(la []float64) []float64 {
	m := len(p.B)
	out := make([]float64, m)
	for i := 0; i < m; i++ {
		s := p.B[i]
		for j := 0; j < m; j++ {
			s += p.G.At(i, j) * la[j]
		}
		out[i] = s
	}
	return out
}

func (p *Problem) local(b Block, la, gdd []float64) Local {
	l := Local{
		La:  la[b.Offset : b.Offset+b.Size],
		Gdd: gdd[b.Offset : b.Offset+b.Size],
		Pre: b.Pre,
	}
	if b.Normal >= 0 {
		l.LaN = la[b.Normal]
	}
	return l
}
