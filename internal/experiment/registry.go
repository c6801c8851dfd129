package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/nonsmooth/internal/config"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/event"
	"github.com/san-kum/nonsmooth/internal/integrators"
	"github.com/san-kum/nonsmooth/internal/metrics"
	"github.com/san-kum/nonsmooth/internal/system"
)

type integratorEntry struct {
	mode  event.Mode
	build func(cfg *config.Config) dynamo.Stepper
}

type Registry struct {
	integrators map[string]integratorEntry
}

func eventDriven(base integrators.Smooth) func(cfg *config.Config) dynamo.Stepper {
	return func(cfg *config.Config) dynamo.Stepper {
		ed := integrators.NewEventDriven(base)
		ed.MaxBisect = cfg.Event.MaxBisect
		ed.TimeTol = cfg.Event.TimeTol
		ed.Project = cfg.Event.Project
		return ed
	}
}

func NewRegistry() *Registry {
	r := &Registry{integrators: make(map[string]integratorEntry)}

	r.integrators["euler"] = integratorEntry{event.EventDriven, func(*config.Config) dynamo.Stepper { return integrators.NewEuler() }}
	r.integrators["rk4"] = integratorEntry{event.EventDriven, func(*config.Config) dynamo.Stepper { return integrators.NewRK4() }}
	r.integrators["event-euler"] = integratorEntry{event.EventDriven, eventDriven(integrators.NewEuler())}
	r.integrators["event-rk4"] = integratorEntry{event.EventDriven, eventDriven(integrators.NewRK4())}
	r.integrators["moreau"] = integratorEntry{event.TimeStepping, func(*config.Config) dynamo.Stepper { return integrators.NewMoreau() }}

	return r
}

// GetIntegrator builds the named driver and checks that the configured
// event mode matches it.
func (r *Registry) GetIntegrator(cfg *config.Config) (dynamo.Stepper, error) {
	e, ok := r.integrators[cfg.Integrator]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", cfg.Integrator)
	}
	mode, err := event.ParseMode(cfg.Event.Mode)
	if err != nil {
		return nil, err
	}
	if mode != e.mode {
		return nil, fmt.Errorf("integrator %s needs event mode %s, got %s", cfg.Integrator, e.mode, mode)
	}
	return e.build(cfg), nil
}

// Mode returns the event mode the named driver runs in.
func (r *Registry) Mode(name string) (event.Mode, bool) {
	e, ok := r.integrators[name]
	return e.mode, ok
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are the diagnostics attached to every run.
func (r *Registry) DefaultMetrics(sys *system.System) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewPenetration(sys),
		metrics.NewComplementarity(sys),
		metrics.NewSolverEffort(sys),
		metrics.NewEnergy(sys),
	}
}
