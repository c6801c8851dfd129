package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/nonsmooth/internal/dynamo"
)

type oscillator struct{}

func (oscillator) QSize() int { return 1 }
func (oscillator) USize() int { return 1 }
func (oscillator) Derivative(t float64, q, u dynamo.State) (dynamo.State, dynamo.State, error) {
	return u.Clone(), dynamo.State{-q[0]}, nil
}

// ball is a point bouncing on the floor q = 0 with restitution e.
type ball struct {
	e       float64
	resting bool
	resets  int
}

func (b *ball) QSize() int { return 1 }
func (b *ball) USize() int { return 1 }
func (b *ball) Derivative(t float64, q, u dynamo.State) (dynamo.State, dynamo.State, error) {
	if b.resting {
		return dynamo.State{0}, dynamo.State{0}, nil
	}
	return u.Clone(), dynamo.State{-9.81}, nil
}

func (b *ball) EvalIndicatorFunctions(t float64, q, u dynamo.State) (dynamo.State, error) {
	if b.resting {
		return dynamo.State{1}, nil
	}
	return dynamo.State{q[0]}, nil
}

func (b *ball) ResetUponEvent(t float64, q, u dynamo.State) (dynamo.State, error) {
	b.resets++
	if q[0] > 0 {
		return u.Clone(), nil
	}
	v := -b.e * u[0]
	if v < 1e-3 {
		b.resting = true
		v = 0
	}
	return dynamo.State{v}, nil
}

// floor is an inelastic floor seen by a time-stepping driver. Steps larger than
// maxDt report non-convergence.
type floor struct {
	maxDt float64
	calls int
}

func (f *floor) QSize() int { return 1 }
func (f *floor) USize() int { return 1 }
func (f *floor) Derivative(t float64, q, u dynamo.State) (dynamo.State, dynamo.State, error) {
	return u.Clone(), dynamo.State{-9.81}, nil
}

func (f *floor) ComputeImpulses(t float64, q, u dynamo.State, dt float64) (dynamo.State, bool, error) {
	f.calls++
	v := u[0] - 9.81*dt
	if q[0] <= 0 {
		v = math.Max(v, 0)
	}
	return dynamo.State{v - u[0]}, dt <= f.maxDt, nil
}

// stiff is an oscillator whose force solves never converge.
type stiff struct {
	oscillator
	unconverged bool
}

func (s *stiff) Derivative(t float64, q, u dynamo.State) (dynamo.State, dynamo.State, error) {
	s.unconverged = true
	return s.oscillator.Derivative(t, q, u)
}

func (s *stiff) ResetSolves()          { s.unconverged = false }
func (s *stiff) SolvesConverged() bool { return !s.unconverged }

func TestEulerStep(t *testing.T) {
	res, err := NewEuler().Step(oscillator{}, 0, dynamo.State{1}, dynamo.State{0}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Q[0] != 1 || math.Abs(res.U[0]+0.1) > 1e-15 {
		t.Errorf("expected (1, -0.1), got (%v, %v)", res.Q[0], res.U[0])
	}
	if res.Dt != 0.1 || !res.Converged {
		t.Errorf("expected a full converged step, got %+v", res)
	}
}

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()
	q, u := dynamo.State{1}, dynamo.State{0}
	dt := 0.01
	steps := 100
	for i := 0; i < steps; i++ {
		res, err := integ.Step(oscillator{}, float64(i)*dt, q, u, dt)
		if err != nil {
			t.Fatal(err)
		}
		q, u = res.Q, res.U
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)
	if math.Abs(q[0]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", q[0], expectedX)
	}
	if math.Abs(u[0]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", u[0], expectedV)
	}
}

func TestEventDrivenLocatesImpact(t *testing.T) {
	b := &ball{e: 0.5}
	ed := NewEventDriven(NewRK4())
	q, u := dynamo.State{1}, dynamo.State{0}
	tm := 0.0
	dt := 0.1

	var hit dynamo.StepResult
	for i := 0; i < 20; i++ {
		res, err := ed.Step(b, tm, q, u, dt)
		if err != nil {
			t.Fatal(err)
		}
		tm += res.Dt
		q, u = res.Q, res.U
		if res.Event {
			hit = res
			break
		}
	}
	if !hit.Event {
		t.Fatal("expected an event")
	}
	want := math.Sqrt(2 / 9.81)
	if math.Abs(tm-want) > 1e-9 {
		t.Errorf("expected impact at %v, got %v", want, tm)
	}
	if q[0] > 0 || q[0] < -1e-8 {
		t.Errorf("expected gap just past zero, got %v", q[0])
	}
	if math.Abs(u[0]-0.5*9.81*want) > 1e-6 {
		t.Errorf("expected rebound speed %v, got %v", 0.5*9.81*want, u[0])
	}
	if b.resets != 1 {
		t.Errorf("expected 1 reset, got %d", b.resets)
	}
}

func TestEventDrivenInitialize(t *testing.T) {
	b := &ball{e: 0}
	u, err := NewEventDriven(NewEuler()).Initialize(b, 0, dynamo.State{0}, dynamo.State{-1})
	if err != nil {
		t.Fatal(err)
	}
	if u[0] != 0 || !b.resting {
		t.Errorf("expected the ball to come to rest, got u = %v", u)
	}
}

func TestEventDrivenWithoutEvents(t *testing.T) {
	res, err := NewEventDriven(NewEuler()).Step(oscillator{}, 0, dynamo.State{1}, dynamo.State{0}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Event || res.Dt != 0.1 {
		t.Errorf("expected a plain step, got %+v", res)
	}
}

func TestUnconvergedSolvesReachTheDriver(t *testing.T) {
	tests := []struct {
		name    string
		stepper dynamo.Stepper
		dt      float64
	}{
		{"euler", NewEuler(), 0.1},
		{"rk4", NewRK4(), 0.1},
		{"event-driven", NewEventDriven(NewRK4()), 0.1 / 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.stepper.Step(&stiff{}, 0, dynamo.State{1}, dynamo.State{0}, 0.1)
			if err != nil {
				t.Fatal(err)
			}
			if res.Converged {
				t.Error("expected an unconverged step")
			}
			if res.Dt != tt.dt {
				t.Errorf("expected step %v, got %v", tt.dt, res.Dt)
			}
		})
	}
}

func TestEventDrivenReportsConvergedSteps(t *testing.T) {
	res, err := NewEventDriven(NewRK4()).Step(&stiff{}, 0, dynamo.State{1}, dynamo.State{0}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := NewEventDriven(NewRK4()).Step(oscillator{}, 0, dynamo.State{1}, dynamo.State{0}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Converged || !ok.Converged {
		t.Errorf("expected only the stiff step to be unconverged, got %v and %v", res.Converged, ok.Converged)
	}
}

func TestMoreauRestsOnFloor(t *testing.T) {
	f := &floor{maxDt: 1}
	m := NewMoreau()
	q, u := dynamo.State{0.05}, dynamo.State{0}
	tm := 0.0
	for i := 0; i < 500; i++ {
		res, err := m.Step(f, tm, q, u, 1e-3)
		if err != nil {
			t.Fatal(err)
		}
		tm += res.Dt
		q, u = res.Q, res.U
	}
	if math.Abs(u[0]) > 1e-9 {
		t.Errorf("expected the ball at rest, got u = %v", u[0])
	}
	// penetration is bounded by half a step at impact speed
	if q[0] > 0 || q[0] < -1e-3 {
		t.Errorf("expected the ball on the floor, got q = %v", q[0])
	}
}

func TestMoreauHalvesUnconvergedSteps(t *testing.T) {
	f := &floor{maxDt: 0.01}
	res, err := NewMoreau().Step(f, 0, dynamo.State{1}, dynamo.State{0}, 0.04)
	if err != nil {
		t.Fatal(err)
	}
	if res.Dt != 0.01 || !res.Converged {
		t.Errorf("expected a converged step of 0.01, got %+v", res)
	}
	if f.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", f.calls)
	}
}

func TestMoreauRequiresTimeStepping(t *testing.T) {
	_, err := NewMoreau().Step(oscillator{}, 0, dynamo.State{1}, dynamo.State{0}, 0.1)
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func BenchmarkEuler(b *testing.B) {
	integ := NewEuler()
	q, u := dynamo.State{1}, dynamo.State{0}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, _ := integ.Step(oscillator{}, 0, q, u, 0.01)
		q, u = res.Q, res.U
	}
}

func BenchmarkRK4(b *testing.B) {
	integ := NewRK4()
	q, u := dynamo.State{1}, dynamo.State{0}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, _ := integ.Step(oscillator{}, 0, q, u, 0.01)
		q, u = res.Q, res.U
	}
}
