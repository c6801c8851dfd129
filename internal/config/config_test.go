package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/nonsmooth/internal/event"
	"github.com/san-kum/nonsmooth/internal/solver"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "drop" {
		t.Errorf("expected model drop, got %s", cfg.Model)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid defaults, got %v", err)
	}
}

func TestSolverConfigMatchesSolverDefaults(t *testing.T) {
	got, err := DefaultConfig().SolverConfig()
	if err != nil {
		t.Fatalf("solver config failed: %v", err)
	}
	want := solver.DefaultConfig()
	if got.Strategy != want.Strategy || got.MaxIter != want.MaxIter || got.GTol != want.GTol || got.RMax != want.RMax {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if len(got.DecreaseLevels) != len(want.DecreaseLevels) {
		t.Errorf("expected %d decrease levels, got %d", len(want.DecreaseLevels), len(got.DecreaseLevels))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no model", func(c *Config) { c.Model = "" }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"zero max iter", func(c *Config) { c.Solver.MaxIter = 0 }},
		{"negative g tol", func(c *Config) { c.Solver.GTol = -1e-8 }},
		{"unknown strategy", func(c *Config) { c.Solver.Strategy = "jacobi" }},
		{"unknown mode", func(c *Config) { c.Event.Mode = "hybrid" }},
		{"zero newton tol", func(c *Config) { c.ContactSearch.NewtonTol = 0 }},
		{"zero bisection", func(c *Config) { c.Event.MaxBisect = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := DefaultConfig()
	cfg.Model = "slider"
	cfg.Solver.Strategy = "gaussseidel"
	cfg.Event.Mode = "timestepping"
	cfg.Params["mu"] = 0.4

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Model != "slider" {
		t.Errorf("expected model slider, got %s", loaded.Model)
	}
	if loaded.Params["mu"] != 0.4 {
		t.Errorf("expected mu 0.4, got %f", loaded.Params["mu"])
	}

	opts, err := loaded.SystemOptions(nil)
	if err != nil {
		t.Fatalf("options failed: %v", err)
	}
	if opts.Solver.Strategy != solver.GaussSeidel {
		t.Errorf("expected gaussseidel, got %s", opts.Solver.Strategy)
	}
	if opts.Mode != event.TimeStepping {
		t.Errorf("expected timestepping, got %s", opts.Mode)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "model: chain\nsolver:\n  strategy: gaussseidel\nparams:\n  theta: 1.1\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Solver.MaxIter != solver.DefaultConfig().MaxIter {
		t.Errorf("expected default max_iter, got %d", loaded.Solver.MaxIter)
	}
	if loaded.Solver.Strategy != "gaussseidel" {
		t.Errorf("expected gaussseidel, got %s", loaded.Solver.Strategy)
	}
	if loaded.Params["theta"] != 1.1 {
		t.Errorf("expected theta 1.1, got %f", loaded.Params["theta"])
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("drop", "bounce")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Params["e"] != 0.5 {
		t.Errorf("expected e 0.5, got %f", cfg.Params["e"])
	}

	cfg.Params["e"] = 0.9
	if Presets["drop"]["bounce"].Params["e"] != 0.5 {
		t.Error("expected preset to be unaffected by changes to the copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("drop", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "rest"); cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("drop")
	if len(presets) == 0 {
		t.Fatal("expected presets for drop")
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("expected sorted names, got %v", presets)
		}
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestPresetsAreValid(t *testing.T) {
	for model, presets := range Presets {
		for name, cfg := range presets {
			if cfg.Model != model {
				t.Errorf("%s/%s: expected model %s, got %s", model, name, model, cfg.Model)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", model, name, err)
			}
			if cfg.Integrator == "moreau" && cfg.Event.Mode != "timestepping" {
				t.Errorf("%s/%s: moreau needs timestepping mode, got %s", model, name, cfg.Event.Mode)
			}
		}
	}
}
