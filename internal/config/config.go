package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/san-kum/nonsmooth/internal/contact"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/event"
	"github.com/san-kum/nonsmooth/internal/solver"
	"github.com/san-kum/nonsmooth/internal/system"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 1e-3
	DefaultDuration = 1.0
	DefaultModel    = "drop"
)

type Config struct {
	Model         string             `yaml:"model"`
	Integrator    string             `yaml:"integrator"`
	Dt            float64            `yaml:"dt"`
	Duration      float64            `yaml:"duration"`
	MaxSteps      int                `yaml:"max_steps"`
	Solver        SolverConfig       `yaml:"solver"`
	ContactSearch SearchConfig       `yaml:"contact_search"`
	Event         EventConfig        `yaml:"event"`
	Params        map[string]float64 `yaml:"params"`
	LogLevel      string             `yaml:"log_level"`
}

type SolverConfig struct {
	Strategy            string  `yaml:"strategy"`
	MaxIter             int     `yaml:"max_iter"`
	HighIter            int     `yaml:"high_iter"`
	GTol                float64 `yaml:"g_tol"`
	GdTol               float64 `yaml:"gd_tol"`
	GddTol              float64 `yaml:"gdd_tol"`
	LaTol               float64 `yaml:"la_tol"`
	LaImpulseTol        float64 `yaml:"La_tol"`
	RMax                float64 `yaml:"r_max"`
	Omega               float64 `yaml:"omega"`
	DecreaseLevels      []int   `yaml:"decrease_levels"`
	UseOldLa            bool    `yaml:"use_old_la"`
	StopIfNoConvergence bool    `yaml:"stop_if_no_convergence"`
}

type SearchConfig struct {
	NewtonTol     float64 `yaml:"newton_tol"`
	MaxIter       int     `yaml:"max_iter"`
	Workers       int     `yaml:"workers"`
	FallbackNodes int     `yaml:"fallback_nodes"`
}

type EventConfig struct {
	Mode      string  `yaml:"mode"`
	MaxBisect int     `yaml:"max_bisect"`
	TimeTol   float64 `yaml:"time_tol"`
	Project   bool    `yaml:"project"`
}

func DefaultConfig() *Config {
	s := solver.DefaultConfig()
	c := contact.DefaultSearchConfig()
	return &Config{
		Model:      DefaultModel,
		Integrator: "event-rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		MaxSteps:   dynamo.DefaultConfig().MaxSteps,
		Solver: SolverConfig{
			Strategy:            s.Strategy.String(),
			MaxIter:             s.MaxIter,
			HighIter:            s.HighIter,
			GTol:                s.GTol,
			GdTol:               s.GdTol,
			GddTol:              s.GddTol,
			LaTol:               s.LaTol,
			LaImpulseTol:        s.LaImpulseTol,
			RMax:                s.RMax,
			Omega:               s.Omega,
			DecreaseLevels:      append([]int(nil), s.DecreaseLevels...),
			UseOldLa:            s.UseOldLa,
			StopIfNoConvergence: s.StopIfNoConvergence,
		},
		ContactSearch: SearchConfig{
			NewtonTol:     c.NewtonTol,
			MaxIter:       c.MaxIter,
			Workers:       c.Workers,
			FallbackNodes: c.FallbackNodes,
		},
		Event: EventConfig{
			Mode:      event.EventDriven.String(),
			MaxBisect: 60,
			TimeTol:   1e-12,
		},
		Params:   map[string]float64{},
		LogLevel: "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Solver.DecreaseLevels = append([]int(nil), c.Solver.DecreaseLevels...)
	out.Params = make(map[string]float64, len(c.Params))
	for k, v := range c.Params {
		out.Params[k] = v
	}
	return &out
}

// Validate checks the run parameters and every derived component config.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must be set")
	}
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", c.Duration)
	}
	if c.Event.MaxBisect <= 0 || c.Event.TimeTol <= 0 {
		return fmt.Errorf("%w: event location needs a positive bisection cap and time tolerance", dynamo.ErrInvalidState)
	}
	s, err := c.SolverConfig()
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if _, err := event.ParseMode(c.Event.Mode); err != nil {
		return err
	}
	return c.SearchConfig().Validate()
}

func (c *Config) SolverConfig() (solver.Config, error) {
	strategy, err := solver.ParseStrategy(c.Solver.Strategy)
	if err != nil {
		return solver.Config{}, err
	}
	return solver.Config{
		Strategy:            strategy,
		MaxIter:             c.Solver.MaxIter,
		HighIter:            c.Solver.HighIter,
		GTol:                c.Solver.GTol,
		GdTol:               c.Solver.GdTol,
		GddTol:              c.Solver.GddTol,
		LaTol:               c.Solver.LaTol,
		LaImpulseTol:        c.Solver.LaImpulseTol,
		RMax:                c.Solver.RMax,
		Omega:               c.Solver.Omega,
		DecreaseLevels:      append([]int(nil), c.Solver.DecreaseLevels...),
		UseOldLa:            c.Solver.UseOldLa,
		StopIfNoConvergence: c.Solver.StopIfNoConvergence,
	}, nil
}

func (c *Config) SearchConfig() contact.SearchConfig {
	s := contact.DefaultSearchConfig()
	s.NewtonTol = c.ContactSearch.NewtonTol
	s.MaxIter = c.ContactSearch.MaxIter
	s.Workers = c.ContactSearch.Workers
	s.FallbackNodes = c.ContactSearch.FallbackNodes
	return s
}

// SystemOptions builds the options a model system is initialized with.
func (c *Config) SystemOptions(logger *log.Logger) (system.Options, error) {
	if err := c.Validate(); err != nil {
		return system.Options{}, err
	}
	opts := system.DefaultOptions()
	opts.Solver, _ = c.SolverConfig()
	opts.Search = c.SearchConfig()
	opts.Mode, _ = event.ParseMode(c.Event.Mode)
	opts.Logger = logger
	return opts, nil
}

// RunConfig is the run loop configuration.
func (c *Config) RunConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		ValidateState: true,
		MaxSteps:      c.MaxSteps,
	}
}
