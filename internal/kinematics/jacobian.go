package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// NewJacobian returns a zero 3 x n Jacobian.
func NewJacobian(n int) *mat.Dense {
	return mat.NewDense(3, n, nil)
}

// Column returns column j of a 3 x n Jacobian.
func Column(J *mat.Dense, j int) mgl64.Vec3 {
	return mgl64.Vec3{J.At(0, j), J.At(1, j), J.At(2, j)}
}

// AddColumn adds v to column j.
func AddColumn(J *mat.Dense, j int, v mgl64.Vec3) {
	for r := 0; r < 3; r++ {
		J.Set(r, j, J.At(r, j)+v[r])
	}
}

// Apply returns J*u.
func Apply(J *mat.Dense, u []float64) mgl64.Vec3 {
	var v mgl64.Vec3
	_, n := J.Dims()
	for j := 0; j < n && j < len(u); j++ {
		if u[j] == 0 {
			continue
		}
		for r := 0; r < 3; r++ {
			v[r] += J.At(r, j) * u[j]
		}
	}
	return v
}

// ApplyT returns J^T*f.
func ApplyT(J *mat.Dense, f mgl64.Vec3) []float64 {
	_, n := J.Dims()
	out := make([]float64, n)
	for j := 0; j < n; j++ {
		out[j] = J.At(0, j)*f[0] + J.At(1, j)*f[1] + J.At(2, j)*f[2]
	}
	return out
}

// crossColumns returns the matrix whose column j is r x J_j, i.e. tilde(r)*J.
func crossColumns(r mgl64.Vec3, J *mat.Dense) *mat.Dense {
	_, n := J.Dims()
	out := mat.NewDense(3, n, nil)
	for j := 0; j < n; j++ {
		c := r.Cross(Column(J, j))
		out.Set(0, j, c[0])
		out.Set(1, j, c[1])
		out.Set(2, j, c[2])
	}
	return out
}

// shiftJacobian returns JT - tilde(r)*JR, the translational Jacobian of a
// point displaced by r from the point described by JT.
func shiftJacobian(JT, JR *mat.Dense, r mgl64.Vec3) *mat.Dense {
	out := mat.DenseCopyOf(JT)
	out.Sub(out, crossColumns(r, JR))
	return out
}

// rotateColumns returns A*J.
func rotateColumns(A mgl64.Mat3, J *mat.Dense) *mat.Dense {
	_, n := J.Dims()
	out := mat.NewDense(3, n, nil)
	for j := 0; j < n; j++ {
		c := A.Mul3x1(Column(J, j))
		out.Set(0, j, c[0])
		out.Set(1, j, c[1])
		out.Set(2, j, c[2])
	}
	return out
}

// NewRowJacobian returns a zero 1 x n Jacobian.
func NewRowJacobian(n int) *mat.Dense {
	return mat.NewDense(1, n, nil)
}
