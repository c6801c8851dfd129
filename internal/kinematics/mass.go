package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Dynamics evaluates the mass matrix and the smooth right-hand side
// h = f - C(q,u) at the current context. gravity acts on bodies and on the
// fluid in every line.
func (t *Tree) Dynamics(gravity mgl64.Vec3) (*mat.SymDense, *mat.VecDense) {
	n := t.uSize
	M := mat.NewSymDense(n, nil)
	h := mat.NewVecDense(n, nil)
	for i, b := range t.bodies {
		if b.Mass == 0 && b.Inertia == (mgl64.Mat3{}) {
			continue
		}
		fs := t.Frame(t.bodies[i].frame)
		A := fs.Orientation
		theta := A.Mul3(b.Inertia).Mul3(A.Transpose())
		addCongruence(M, fs.JT, mgl64.Ident3().Mul(b.Mass))
		addCongruence(M, fs.JR, theta)

		w := fs.AngularVelocity
		fT := gravity.Mul(b.Mass).Sub(fs.BiasT.Mul(b.Mass))
		fR := w.Cross(theta.Mul3x1(w)).Mul(-1).Sub(theta.Mul3x1(fs.BiasR))
		addTo(h, ApplyT(fs.JT, fT))
		addTo(h, ApplyT(fs.JR, fR))
	}
	for _, l := range t.lines {
		m := l.inertance()
		if m == 0 {
			continue
		}
		for r := 0; r < n; r++ {
			jr := l.J.At(0, r)
			if jr == 0 {
				continue
			}
			for c := r; c < n; c++ {
				M.SetSym(r, c, M.At(r, c)+m*jr*l.J.At(0, c))
			}
		}
		// pressure head of the fluid column, per unit area
		dir := l.Direction
		if dir.Len() > 0 {
			dp := l.Density * l.Length * gravity.Dot(dir.Normalize()) / l.Area()
			for j := 0; j < n; j++ {
				h.SetVec(j, h.AtVec(j)+l.J.At(0, j)*dp)
			}
		}
	}
	return M, h
}

// addCongruence adds J^T*W*J to the upper triangle of M.
func addCongruence(M *mat.SymDense, J *mat.Dense, W mgl64.Mat3) {
	WJ := rotateColumns(W, J)
	n, _ := M.Dims()
	for r := 0; r < n; r++ {
		jr := Column(J, r)
		if jr == (mgl64.Vec3{}) {
			continue
		}
		for c := r; c < n; c++ {
			v := jr.Dot(Column(WJ, c))
			if v != 0 {
				M.SetSym(r, c, M.At(r, c)+v)
			}
		}
	}
}

func addTo(v *mat.VecDense, x []float64) {
	for i, xi := range x {
		v.SetVec(i, v.AtVec(i)+xi)
	}
}
