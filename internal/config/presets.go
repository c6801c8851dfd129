package config

import "sort"

// preset derives a configuration from the defaults.
func preset(model, integrator string, dt, duration float64, params map[string]float64) *Config {
	c := DefaultConfig()
	c.Model = model
	c.Integrator = integrator
	c.Dt = dt
	c.Duration = duration
	if integrator == "moreau" {
		c.Event.Mode = "timestepping"
	}
	for k, v := range params {
		c.Params[k] = v
	}
	return c
}

var Presets = map[string]map[string]*Config{
	"drop": {
		"rest":   preset("drop", "event-rk4", 1e-3, 1.0, map[string]float64{"height": 0.1}),
		"bounce": preset("drop", "event-rk4", 1e-3, 2.0, map[string]float64{"height": 0.5, "e": 0.5}),
		"moreau": preset("drop", "moreau", 1e-3, 1.0, map[string]float64{"height": 0.1, "regularized": 1}),
		"spin":   preset("drop", "event-rk4", 1e-3, 1.0, map[string]float64{"height": 0.1, "mu": 0.2, "vx": 1}),
	},
	"slider": {
		"push":  preset("slider", "event-rk4", 1e-3, 1.0, map[string]float64{"v0": 2, "mu": 0.3}),
		"icy":   preset("slider", "event-rk4", 1e-3, 3.0, map[string]float64{"v0": 2, "mu": 0.1}),
		"steps": preset("slider", "moreau", 1e-3, 1.0, map[string]float64{"v0": 2, "mu": 0.3}),
	},
	"chain": {
		"swing":  preset("chain", "event-rk4", 1e-3, 2.0, map[string]float64{"theta": 0.8}),
		"impact": preset("chain", "event-rk4", 1e-3, 2.0, map[string]float64{"theta": 1.2, "ground": -0.6}),
	},
	"cylinder": {
		"drum":     preset("cylinder", "event-rk4", 1e-3, 2.0, nil),
		"friction": preset("cylinder", "event-rk4", 1e-3, 2.0, map[string]float64{"mu": 0.2}),
		"moreau":   preset("cylinder", "moreau", 1e-3, 2.0, map[string]float64{"regularized": 1}),
	},
	"hydraulic": {
		"steady":   preset("hydraulic", "rk4", 1e-3, 1.0, nil),
		"backflow": preset("hydraulic", "rk4", 1e-3, 1.0, map[string]float64{"q1": 0, "q2": -2e-4}),
	},
	"wavy": {
		"roll":     preset("wavy", "event-rk4", 1e-3, 2.0, nil),
		"friction": preset("wavy", "event-rk4", 1e-3, 2.0, map[string]float64{"mu": 0.3}),
	},
	"seesaw": {
		"fall":   preset("seesaw", "event-rk4", 1e-3, 1.0, nil),
		"moreau": preset("seesaw", "moreau", 1e-3, 1.0, map[string]float64{"regularized": 1}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, name string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
