package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the infinity norm.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// AddScaled returns s + f*other.
func (s State) AddScaled(other State, f float64) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + f*other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is the view an integration driver has of a constrained mechanical system.
type System interface {
	QSize() int
	USize() int
	// Derivative returns qd and ud with the constraint forces of the current
	// activation state already applied.
	Derivative(t float64, q, u State) (qd, ud State, err error)
}

// EventSystem is implemented by systems that support event-driven integration.
type EventSystem interface {
	System
	// EvalIndicatorFunctions returns one value per potential event; a sign
	// change between two accepted steps signals a discrete transition.
	EvalIndicatorFunctions(t float64, q, u State) (State, error)
	// ResetUponEvent commits the discrete transition located at t and returns
	// the (possibly jumped) velocities.
	ResetUponEvent(t float64, q, u State) (State, error)
}

// TimeSteppingSystem is implemented by systems that support impulse-level
// time-stepping.
type TimeSteppingSystem interface {
	System
	// ComputeImpulses returns the velocity increment over a step of size dt
	// evaluated at the midpoint configuration q.
	ComputeImpulses(t float64, q, u State, dt float64) (du State, converged bool, err error)
}

// Stepper advances a system by one step.
type Stepper interface {
	Step(sys System, t float64, q, u State, dt float64) (StepResult, error)
}

// StepResult is the outcome of one driver step.
type StepResult struct {
	Q, U      State
	Dt        float64 // size of the step actually taken
	Event     bool    // an event was located and committed at the end of the step
	Converged bool
}

type Metric interface {
	Name() string
	Observe(t float64, q, u State)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(t float64, q, u State)
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
	// MaxSteps bounds the number of accepted steps, events included.
	MaxSteps int
}

func DefaultConfig() Config {
	return Config{
		Dt:            1e-3,
		Duration:      1.0,
		ValidateState: true,
		MaxSteps:      10_000_000,
	}
}

// Committer is implemented by systems that hold discrete or auxiliary state
// which must only advance once a step has been accepted.
type Committer interface {
	Commit(t float64, q, u State, dt float64) error
}

// Initializer is implemented by steppers that must see the initial point
// before the first step.
type Initializer interface {
	Initialize(sys System, t float64, q, u State) (State, error)
}
