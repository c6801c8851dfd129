package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/nonsmooth/internal/dynamo"
)

type Simulator struct {
	sys       dynamo.System
	stepper   dynamo.Stepper
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func New(sys dynamo.System, stepper dynamo.Stepper) *Simulator {
	return &Simulator{
		sys:       sys,
		stepper:   stepper,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) System() dynamo.System   { return s.sys }
func (s *Simulator) Stepper() dynamo.Stepper { return s.stepper }

// Run advances the system from (q0, u0) at t = 0 until cfg.Duration. The
// context is checked between steps; a cancelled run returns the trajectory
// up to the last accepted step together with the context error.
func (s *Simulator) Run(ctx context.Context, q0, u0 dynamo.State, cfg Config) (*Result, error) {
	if err := s.validate(q0, u0, cfg); err != nil {
		return nil, err
	}
	if c, ok := s.sys.(interface{ SetContext(context.Context) }); ok {
		c.SetContext(ctx)
	}

	result := &Result{Metrics: make(map[string]float64)}
	for _, m := range s.metrics {
		m.Reset()
	}

	q, u := q0.Clone(), u0.Clone()
	t := 0.0
	if init, ok := s.stepper.(dynamo.Initializer); ok {
		var err error
		if u, err = init.Initialize(s.sys, t, q, u); err != nil {
			return nil, &dynamo.SimulationError{Step: 0, Time: t, Wrapped: err}
		}
	}
	if err := s.accept(result, t, q, u, 0); err != nil {
		return nil, err
	}

	end := cfg.Duration - 1e-9*cfg.Dt
	for t < end {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		if cfg.MaxSteps > 0 && result.StepsTaken >= cfg.MaxSteps {
			return result, &dynamo.SimulationError{Step: result.StepsTaken, Time: t,
				Wrapped: fmt.Errorf("%w: step limit %d reached", dynamo.ErrInvalidState, cfg.MaxSteps)}
		}

		dt := math.Min(cfg.Dt, cfg.Duration-t)
		res, err := s.stepper.Step(s.sys, t, q, u, dt)
		if err != nil {
			return result, &dynamo.SimulationError{Step: result.StepsTaken, Time: t, Wrapped: err}
		}
		if cfg.ValidateState && (!res.Q.IsValid() || !res.U.IsValid()) {
			return result, &dynamo.SimulationError{Step: result.StepsTaken, Time: t,
				Wrapped: fmt.Errorf("%w: NaN or Inf in state", dynamo.ErrInvalidState)}
		}

		q, u = res.Q, res.U
		t += res.Dt
		result.StepsTaken++
		if res.Event {
			result.Events = append(result.Events, t)
		}
		if !res.Converged {
			result.Unconverged++
		}
		if err := s.accept(result, t, q, u, res.Dt); err != nil {
			return result, err
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// accept commits a step to the system and records it.
func (s *Simulator) accept(result *Result, t float64, q, u dynamo.State, dt float64) error {
	if c, ok := s.sys.(dynamo.Committer); ok {
		if err := c.Commit(t, q, u, dt); err != nil {
			return &dynamo.SimulationError{Step: result.StepsTaken, Time: t, Wrapped: err}
		}
	}
	for _, m := range s.metrics {
		m.Observe(t, q, u)
	}
	for _, obs := range s.observers {
		obs.OnStep(t, q, u)
	}
	result.Times = append(result.Times, t)
	result.Q = append(result.Q, q.Clone())
	result.U = append(result.U, u.Clone())
	return nil
}

func (s *Simulator) validate(q0, u0 dynamo.State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if len(q0) != s.sys.QSize() || len(u0) != s.sys.USize() {
		return fmt.Errorf("%w: initial state has %d/%d entries, system needs %d/%d",
			dynamo.ErrDimensionMismatch, len(q0), len(u0), s.sys.QSize(), s.sys.USize())
	}
	return nil
}
