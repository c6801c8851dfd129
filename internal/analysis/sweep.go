package analysis

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/nonsmooth/internal/config"
	"github.com/san-kum/nonsmooth/internal/experiment"
	"github.com/san-kum/nonsmooth/internal/sim"
)

// SweepPoint is the outcome of one run of a parameter sweep.
type SweepPoint struct {
	Param   float64
	Metrics map[string]float64
	Events  int
	Steps   int
}

// Sweep runs the configured model once per value of param, up to workers
// runs at a time. Every run builds its own system.
func Sweep(ctx context.Context, base *config.Config, param string, values []float64, workers int, logger *log.Logger) ([]SweepPoint, error) {
	reg := experiment.NewRegistry()
	jobs := make([]sim.Job, len(values))
	for i, v := range values {
		cfg := base.Clone()
		cfg.Params[param] = v
		exp := experiment.New(cfg)
		if err := exp.Setup(reg, logger); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", param, v, err)
		}
		m := exp.Model()
		jobs[i] = sim.Job{
			Name:   fmt.Sprintf("%s=%g", param, v),
			Sim:    exp.Simulator(),
			Q0:     m.Q0,
			U0:     m.U0,
			Config: cfg.RunConfig(),
		}
	}

	results, err := sim.NewEnsemble(workers, jobs...).Run(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]SweepPoint, len(values))
	for i, res := range results {
		points[i] = SweepPoint{
			Param:   values[i],
			Metrics: res.Metrics,
			Events:  len(res.Events),
			Steps:   res.StepsTaken,
		}
	}
	return points, nil
}

// Linspace returns n evenly spaced values from lo to hi.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
