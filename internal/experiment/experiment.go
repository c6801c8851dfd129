// Package experiment turns a configuration into a ready-to-run simulation:
// the model system, its driver and the default metrics.
package experiment

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/nonsmooth/internal/config"
	"github.com/san-kum/nonsmooth/internal/models"
	"github.com/san-kum/nonsmooth/internal/sim"
)

type Experiment struct {
	cfg       *config.Config
	model     *models.Model
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup builds the model and the driver named in the configuration.
func (e *Experiment) Setup(reg *Registry, logger *log.Logger) error {
	opts, err := e.cfg.SystemOptions(logger)
	if err != nil {
		return err
	}
	stepper, err := reg.GetIntegrator(e.cfg)
	if err != nil {
		return err
	}
	m, err := models.Build(e.cfg.Model, opts, models.Params(e.cfg.Params))
	if err != nil {
		return err
	}
	e.model = m
	e.simulator = sim.New(m.System, stepper)
	for _, metric := range reg.DefaultMetrics(m.System) {
		e.simulator.AddMetric(metric)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.model.Q0, e.model.U0, e.cfg.RunConfig())
}

func (e *Experiment) Config() *config.Config { return e.cfg }
func (e *Experiment) Model() *models.Model   { return e.model }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
