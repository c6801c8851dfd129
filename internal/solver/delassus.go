package solver

import (
	"fmt"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Factor is a Cholesky factorization of the mass matrix.
type Factor struct {
	chol mat.Cholesky
	n    int
}

// Factorize fails if M is not positive definite.
func Factorize(M *mat.SymDense) (*Factor, error) {
	f := &Factor{}
	f.n, _ = M.Dims()
	if ok := f.chol.Factorize(M); !ok {
		return nil, fmt.Errorf("%w: mass matrix is not positive definite", dynamo.ErrInvalidState)
	}
	return f, nil
}

// SolveVec returns M^-1 v.
func (f *Factor) SolveVec(v *mat.VecDense) (*mat.VecDense, error) {
	out := mat.NewVecDense(f.n, nil)
	if err := f.chol.SolveVecTo(out, v); err != nil {
		return nil, err
	}
	return out, nil
}

// Delassus returns G = W^T M^-1 W and M^-1 W for an n x m force direction
// matrix W. m must be positive.
func (f *Factor) Delassus(W *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	_, m := W.Dims()
	MinvW := mat.NewDense(f.n, m, nil)
	if err := f.chol.SolveTo(MinvW, W); err != nil {
		return nil, nil, err
	}
	G := mat.NewDense(m, m, nil)
	G.Mul(W.T(), MinvW)
	return G, MinvW, nil
}

// ForceProblem builds gdd = G*la + W^T M^-1 h + wb.
func (f *Factor) ForceProblem(W *mat.Dense, h *mat.VecDense, wb []float64) (*Problem, *mat.Dense, error) {
	G, MinvW, err := f.Delassus(W)
	if err != nil {
		return nil, nil, err
	}
	Minvh, err := f.SolveVec(h)
	if err != nil {
		return nil, nil, err
	}
	_, m := W.Dims()
	B := make([]float64, m)
	for i := 0; i < m; i++ {
		B[i] = mat.Dot(W.ColView(i), Minvh) + wb[i]
	}
	return &Problem{Level: Acceleration, G: G, B: B}, MinvW, nil
}

// ImpulseProblem builds gd+ = G*La + W^T (u + M^-1 h dt) + extra.
func (f *Factor) ImpulseProblem(W *mat.Dense, u, h *mat.VecDense, dt float64, extra []float64) (*Problem, *mat.Dense, error) {
	G, MinvW, err := f.Delassus(W)
	if err != nil {
		return nil, nil, err
	}
	free := mat.NewVecDense(f.n, nil)
	if h != nil && dt != 0 {
		Minvh, err := f.SolveVec(h)
		if err != nil {
			return nil, nil, err
		}
		free.AddScaledVec(u, dt, Minvh)
	} else {
		free.CopyVec(u)
	}
	_, m := W.Dims()
	B := make([]float64, m)
	for i := 0; i < m; i++ {
		B[i] = mat.Dot(W.ColView(i), free)
		if extra != nil {
			B[i] += extra[i]
		}
	}
	return &Problem{Level: Velocity, G: G, B: B}, MinvW, nil
}
