// Package automation runs scripted scenarios and randomized parameter
// studies on top of the experiment layer.
package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/nonsmooth/internal/config"
	"github.com/san-kum/nonsmooth/internal/experiment"
	"github.com/san-kum/nonsmooth/internal/logging"
	"github.com/san-kum/nonsmooth/internal/plot"
	"github.com/san-kum/nonsmooth/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Zero fields keep the preset or default value.
type ScenarioStep struct {
	Model      string             `yaml:"model"`
	Preset     string             `yaml:"preset"`
	Integrator string             `yaml:"integrator"`
	Duration   float64            `yaml:"duration"`
	Dt         float64            `yaml:"dt"`
	Params     map[string]float64 `yaml:"params"`
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &sc, nil
}

// Config resolves the step against its preset and the registry.
func (s ScenarioStep) Config(reg *experiment.Registry) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Model != "" {
		cfg.Model = s.Model
	}
	if s.Preset != "" {
		cfg = config.GetPreset(cfg.Model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s/%s", s.Model, s.Preset)
		}
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
		if mode, ok := reg.Mode(s.Integrator); ok {
			cfg.Event.Mode = mode.String()
		}
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	for k, v := range s.Params {
		cfg.Params[k] = v
	}
	return cfg, cfg.Validate()
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Config   *config.Config
	Result   *sim.Result
	Recorder *plot.Recorder
}

// RunScenario executes the steps in order and stops at the first failure.
func RunScenario(ctx context.Context, sc *Scenario, reg *experiment.Registry, logger *log.Logger) ([]StepResult, error) {
	logger = logging.OrDiscard(logger)
	results := make([]StepResult, 0, len(sc.Steps))
	for i, step := range sc.Steps {
		cfg, err := step.Config(reg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("scenario step", "step", i+1, "of", len(sc.Steps), "model", cfg.Model, "integrator", cfg.Integrator)

		exp := experiment.New(cfg)
		if err := exp.Setup(reg, logger); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, StepResult{Config: cfg, Result: result, Recorder: exp.Model().System.Recorder()})
	}
	return results, nil
}

// MonteCarloConfig perturbs model parameters uniformly around the base
// configuration.
type MonteCarloConfig struct {
	Base *config.Config
	// Perturb maps a parameter to the half-width of its uniform perturbation.
	Perturb map[string]float64
	Trials  int
	Workers int
	Seed    int64
}

// Trial is one Monte Carlo run.
type Trial struct {
	ID     int
	Params map[string]float64
	Result *sim.Result
	// Stable is set when every step converged and the final state stays bounded.
	Stable bool
}

// RunMonteCarlo draws all parameter sets up front and runs the trials in
// parallel. The same seed gives the same parameter sets.
func RunMonteCarlo(ctx context.Context, mc MonteCarloConfig, logger *log.Logger) ([]Trial, error) {
	if mc.Trials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial")
	}
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	keys := make([]string, 0, len(mc.Perturb))
	for k := range mc.Perturb {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	reg := experiment.NewRegistry()
	trials := make([]Trial, mc.Trials)
	jobs := make([]sim.Job, mc.Trials)
	for i := range trials {
		cfg := mc.Base.Clone()
		for _, k := range keys {
			cfg.Params[k] += (2*rng.Float64() - 1) * mc.Perturb[k]
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(reg, logger); err != nil {
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}
		m := exp.Model()
		trials[i] = Trial{ID: i, Params: cfg.Params}
		jobs[i] = sim.Job{
			Name:   fmt.Sprintf("trial %d", i),
			Sim:    exp.Simulator(),
			Q0:     m.Q0,
			U0:     m.U0,
			Config: cfg.RunConfig(),
		}
	}

	results, err := sim.NewEnsemble(mc.Workers, jobs...).Run(ctx)
	if err != nil {
		return nil, err
	}
	for i, res := range results {
		trials[i].Result = res
		_, q, _ := res.Final()
		trials[i].Stable = res.Unconverged == 0 && bounded(q)
	}
	logging.OrDiscard(logger).Info("monte carlo complete", "trials", mc.Trials, "seed", seed)
	return trials, nil
}

func bounded(q []float64) bool {
	for _, v := range q {
		if math.IsNaN(v) || math.Abs(v) > 1e6 {
			return false
		}
	}
	return true
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(trials []Trial) (stable, unstable int) {
	for _, t := range trials {
		if t.Stable {
			stable++
		} else {
			unstable++
		}
	}
	return
}
