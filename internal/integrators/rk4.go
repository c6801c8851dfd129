package integrators

import "github.com/san-kum/nonsmooth/internal/dynamo"

// RK4 is the classical Runge-Kutta method on the stacked state (q, u). The
// activation state is frozen over the step.
type RK4 struct {
	kq, ku [4]dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(nq, nu int) {
	if len(r.kq[0]) != nq || len(r.ku[0]) != nu {
		for i := range r.kq {
			r.kq[i] = make(dynamo.State, nq)
			r.ku[i] = make(dynamo.State, nu)
		}
	}
}

func (r *RK4) Advance(sys dynamo.System, t float64, q, u dynamo.State, dt float64) (dynamo.State, dynamo.State, error) {
	r.ensureScratch(len(q), len(u))

	stage := func(k int, c float64) error {
		qs, us := q, u
		if k > 0 {
			qs = q.AddScaled(r.kq[k-1], c*dt)
			us = u.AddScaled(r.ku[k-1], c*dt)
		}
		qd, ud, err := sys.Derivative(t+c*dt, qs, us)
		if err != nil {
			return err
		}
		copy(r.kq[k], qd)
		copy(r.ku[k], ud)
		return nil
	}
	for k, c := range []float64{0, 0.5, 0.5, 1} {
		if err := stage(k, c); err != nil {
			return nil, nil, err
		}
	}

	dt6 := dt / 6.0
	q1 := make(dynamo.State, len(q))
	u1 := make(dynamo.State, len(u))
	for i := range q1 {
		q1[i] = q[i] + dt6*(r.kq[0][i]+2*r.kq[1][i]+2*r.kq[2][i]+r.kq[3][i])
	}
	for i := range u1 {
		u1[i] = u[i] + dt6*(r.ku[0][i]+2*r.ku[1][i]+2*r.ku[2][i]+r.ku[3][i])
	}
	return q1, u1, nil
}

func (r *RK4) Step(sys dynamo.System, t float64, q, u dynamo.State, dt float64) (dynamo.StepResult, error) {
	resetSolves(sys)
	q1, u1, err := r.Advance(sys, t, q, u, dt)
	if err != nil {
		return dynamo.StepResult{}, err
	}
	return dynamo.StepResult{Q: q1, U: u1, Dt: dt, Converged: solvesConverged(sys)}, nil
}
