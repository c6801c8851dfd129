package sim

import "github.com/san-kum/nonsmooth/internal/dynamo"

type Config = dynamo.Config

// Result holds the trajectory of one run.
type Result struct {
	Times []float64
	Q, U  []dynamo.State
	// Events are the times at which discrete transitions were committed.
	Events      []float64
	StepsTaken  int
	Unconverged int
	Metrics     map[string]float64
}

// Final returns the last state of the run.
func (r *Result) Final() (t float64, q, u dynamo.State) {
	n := len(r.Times) - 1
	return r.Times[n], r.Q[n], r.U[n]
}
