package sim

import (
	"context"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Job is one independent run of an ensemble.
type Job struct {
	Name   string
	Sim    *Simulator
	Q0, U0 dynamo.State
	Config Config
}

// Ensemble runs independent simulations concurrently. Jobs must not share
// systems.
type Ensemble struct {
	jobs    []Job
	workers int
}

func NewEnsemble(workers int, jobs ...Job) *Ensemble {
	return &Ensemble{jobs: jobs, workers: workers}
}

// Run returns the results indexed like the jobs. The first failing job
// cancels the others.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.jobs))
	g, gctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i, job := range e.jobs {
		i, job := i, job
		g.Go(func() error {
			res, err := job.Sim.Run(gctx, job.Q0, job.U0, job.Config)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
