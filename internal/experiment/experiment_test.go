package experiment

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/nonsmooth/internal/config"
)

func TestRegistryIntegrators(t *testing.T) {
	reg := NewRegistry()
	want := []string{"euler", "event-euler", "event-rk4", "moreau", "rk4"}
	got := reg.ListIntegrators()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %s at %d, got %s", want[i], i, got[i])
		}
	}
}

func TestGetIntegratorChecksMode(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		integrator string
		mode       string
		wantErr    bool
	}{
		{"event-rk4", "event", false},
		{"moreau", "timestepping", false},
		{"moreau", "event", true},
		{"event-euler", "timestepping", true},
		{"leapfrog", "event", true},
	}
	for _, tt := range tests {
		cfg := config.DefaultConfig()
		cfg.Integrator = tt.integrator
		cfg.Event.Mode = tt.mode
		_, err := reg.GetIntegrator(cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s/%s: expected error %v, got %v", tt.integrator, tt.mode, tt.wantErr, err)
		}
	}
}

func TestRunBeforeSetup(t *testing.T) {
	if _, err := New(config.DefaultConfig()).Run(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestRunPreset(t *testing.T) {
	cfg := config.GetPreset("drop", "rest")
	cfg.Duration = 0.3

	exp := New(cfg)
	if err := exp.Setup(NewRegistry(), nil); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Events) == 0 {
		t.Error("expected the impact event")
	}
	if res.Metrics["max_penetration"] > cfg.Solver.GTol {
		t.Errorf("expected penetration below gTol, got %g", res.Metrics["max_penetration"])
	}
	// the inelastic impact dissipates the fall energy
	if want := -9.81 * 0.1; math.Abs(res.Metrics["energy_change"]-want) > 1e-6 {
		t.Errorf("expected energy change %f, got %f", want, res.Metrics["energy_change"])
	}
	if exp.Model().System.Recorder().Len() != len(res.Times) {
		t.Errorf("expected %d rows, got %d", len(res.Times), exp.Model().System.Recorder().Len())
	}
}

func TestSetupUnknownModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model = "pendulum"
	if err := New(cfg).Setup(NewRegistry(), nil); err == nil {
		t.Error("expected error, got nil")
	}
}
