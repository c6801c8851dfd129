package link

import (
	"math"

	"github.com/san-kum/nonsmooth/internal/solver"
	"gonum.org/v1/gonum/mat"
)

// proxN projects onto the non-negative half line.
func proxN(x float64) float64 { return math.Max(x, 0) }

// proxT projects x onto the disk of radius bound.
func proxT(x []float64, bound float64) []float64 {
	out := make([]float64, len(x))
	n := norm(x)
	if n <= bound {
		copy(out, x)
		return out
	}
	if n == 0 {
		return out
	}
	for i := range x {
		out[i] = x[i] * bound / n
	}
	return out
}

func norm(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return math.Sqrt(s)
}

// solveLocal solves Gkk*x = -b. A singular block yields zeros.
func solveLocal(Gkk *mat.Dense, b []float64) []float64 {
	n := len(b)
	if n == 1 {
		if d := Gkk.At(0, 0); d != 0 {
			return []float64{-b[0] / d}
		}
		return []float64{0}
	}
	var x mat.VecDense
	rhs := mat.NewVecDense(n, nil)
	for i := range b {
		rhs.SetVec(i, -b[i])
	}
	if err := x.SolveVec(Gkk, rhs); err != nil {
		return make([]float64, n)
	}
	return x.RawVector().Data
}

// Bilateral enforces gdd = 0 with a free force.
type Bilateral struct{}

func (Bilateral) Project(l solver.Local, r []float64) []float64 {
	out := make([]float64, len(l.La))
	for i := range out {
		out[i] = l.La[i] - r[i]*l.Gdd[i]
	}
	return out
}

func (Bilateral) Solve(Gkk *mat.Dense, b []float64, _ solver.Local) []float64 {
	return solveLocal(Gkk, b)
}

func (Bilateral) Fulfilled(l solver.Local, tol solver.Tol) bool {
	for _, v := range l.Gdd {
		if math.Abs(v) > tol.Residual {
			return false
		}
	}
	return true
}

// Unilateral is the normal contact law 0 <= gdd _|_ la >= 0.
type Unilateral struct{}

func (Unilateral) Project(l solver.Local, r []float64) []float64 {
	return []float64{proxN(l.La[0] - r[0]*l.Gdd[0])}
}

func (Unilateral) Solve(Gkk *mat.Dense, b []float64, _ solver.Local) []float64 {
	return []float64{proxN(solveLocal(Gkk, b)[0])}
}

func (Unilateral) Fulfilled(l solver.Local, tol solver.Tol) bool {
	la, gdd := l.La[0], l.Gdd[0]
	return (gdd >= -tol.Residual && math.Abs(la) <= tol.Force) ||
		(la >= -tol.Force && math.Abs(gdd) <= tol.Residual)
}

// Coulomb is sticking-or-sliding friction in one or two tangent directions.
type Coulomb struct{ Mu float64 }

func (c Coulomb) bound(laN float64) float64 { return c.Mu * math.Abs(laN) }

func (c Coulomb) Project(l solver.Local, r []float64) []float64 {
	x := make([]float64, len(l.La))
	for i := range x {
		x[i] = l.La[i] - r[i]*l.Gdd[i]
	}
	return proxT(x, c.bound(l.LaN))
}

// Solve accepts the sticking solution when it lies inside the cone and
// otherwise projects it radially onto the cone boundary.
func (c Coulomb) Solve(Gkk *mat.Dense, b []float64, l solver.Local) []float64 {
	return proxT(solveLocal(Gkk, b), c.bound(l.LaN))
}

func (c Coulomb) Fulfilled(l solver.Local, tol solver.Tol) bool {
	return frictionFulfilled(l.La, l.Gdd, c.bound(l.LaN), tol)
}

func frictionFulfilled(la, gdd []float64, bound float64, tol solver.Tol) bool {
	g := norm(gdd)
	if g > tol.Residual {
		// sliding: la = -bound * gdd/|gdd|
		d := make([]float64, len(la))
		for i := range la {
			d[i] = la[i] + bound*gdd[i]/g
		}
		return norm(d) <= tol.Force
	}
	return norm(la) <= bound+tol.Force
}

// SlidingFriction applies the kinetic friction force opposite to a fixed sliding
// direction. The normal force it scales with is still unknown while
// sweeping, so it stays a block of its own.
type SlidingFriction struct {
	Mu  float64
	Dir []float64 // unit tangential velocity direction
}

func (s SlidingFriction) force(laN float64) []float64 {
	out := make([]float64, len(s.Dir))
	for i, d := range s.Dir {
		out[i] = -s.Mu * math.Abs(laN) * d
	}
	return out
}

func (s SlidingFriction) Project(l solver.Local, _ []float64) []float64 { return s.force(l.LaN) }

func (s SlidingFriction) Solve(_ *mat.Dense, _ []float64, l solver.Local) []float64 { return s.force(l.LaN) }

func (s SlidingFriction) Fulfilled(l solver.Local, tol solver.Tol) bool {
	f := s.force(l.LaN)
	d := make([]float64, len(f))
	for i := range f {
		d[i] = l.La[i] - f[i]
	}
	return norm(d) <= tol.Force
}

// NewtonImpact is the unilateral impact law with restitution: the
// post-impact normal velocity is at least -e times the pre-impact one.
type NewtonImpact struct {
	E float64
	// Threshold is the approach speed below which restitution is ignored.
	Threshold float64
}

func (n NewtonImpact) target(l solver.Local) float64 {
	gd := l.Gdd[0]
	if len(l.Pre) > 0 && l.Pre[0] < -n.Threshold {
		gd += n.E * l.Pre[0]
	}
	return gd
}

func (n NewtonImpact) Project(l solver.Local, r []float64) []float64 {
	return []float64{proxN(l.La[0] - r[0]*n.target(l))}
}

func (n NewtonImpact) Solve(Gkk *mat.Dense, b []float64, l solver.Local) []float64 {
	shift := n.target(l) - l.Gdd[0]
	return []float64{proxN(solveLocal(Gkk, []float64{b[0] + shift})[0])}
}

func (n NewtonImpact) Fulfilled(l solver.Local, tol solver.Tol) bool {
	gd := n.target(l)
	La := l.La[0]
	return (gd >= -tol.Residual && math.Abs(La) <= tol.Force) ||
		(La >= -tol.Force && math.Abs(gd) <= tol.Residual)
}

// CoulombImpact is the friction law for impulses. It has the same cone as
// Coulomb; only the tolerances differ.
type CoulombImpact struct{ Mu float64 }

func (c CoulombImpact) Project(l solver.Local, r []float64) []float64 {
	return Coulomb{c.Mu}.Project(l, r)
}

func (c CoulombImpact) Solve(Gkk *mat.Dense, b []float64, l solver.Local) []float64 {
	return Coulomb{c.Mu}.Solve(Gkk, b, l)
}

func (c CoulombImpact) Fulfilled(l solver.Local, tol solver.Tol) bool {
	return Coulomb{c.Mu}.Fulfilled(l, tol)
}
