package analysis

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/nonsmooth/internal/config"
)

func TestSpectrumFindsTone(t *testing.T) {
	const (
		dt = 1e-3
		n  = 1000
		f0 = 50.0
	)
	x := make([]float64, n)
	for i := range x {
		x[i] = 3 + 2*math.Sin(2*math.Pi*f0*float64(i)*dt)
	}

	s, err := Spectrum(x, dt)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	freq, amp := s.Peak()
	if math.Abs(freq-f0) > 1e-9 {
		t.Errorf("expected peak at %f Hz, got %f", f0, freq)
	}
	if math.Abs(amp-2) > 1e-9 {
		t.Errorf("expected amplitude 2, got %f", amp)
	}
	if s.Amp[0] > 1e-9 {
		t.Errorf("expected mean removed, got DC %g", s.Amp[0])
	}
}

func TestSpectrumChatter(t *testing.T) {
	// alternating samples put all power at the Nyquist frequency
	x := make([]float64, 64)
	for i := range x {
		x[i] = float64(i%2) * 9.81
	}
	s, err := Spectrum(x, 1e-3)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	if f := s.HighFraction(0.5); math.Abs(f-1) > 1e-9 {
		t.Errorf("expected all power above half Nyquist, got %f", f)
	}
}

func TestSpectrumInvalid(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		dt      float64
	}{
		{"zero dt", []float64{1, 2, 3}, 0},
		{"single sample", []float64{1}, 1e-3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Spectrum(tt.samples, tt.dt); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSpectrumIgnoresPadding(t *testing.T) {
	x := []float64{math.NaN(), math.NaN(), 1, 1, 1, 1, 1, 1}
	s, err := Spectrum(x, 0.1)
	if err != nil {
		t.Fatalf("spectrum failed: %v", err)
	}
	for k, a := range s.Amp {
		if math.IsNaN(a) {
			t.Fatalf("expected finite amplitude at %d, got NaN", k)
		}
	}
}

func TestPhasePortrait(t *testing.T) {
	x := []float64{0, 1, math.NaN(), 0, -1}
	y := []float64{1, 0, 5, -1, 0}
	p, err := PhasePortrait("q0", x, "u0", y)
	if err != nil {
		t.Fatalf("portrait failed: %v", err)
	}
	if len(p.Points) != 4 {
		t.Errorf("expected 4 points, got %d", len(p.Points))
	}

	art := PhasePortraitToASCII(p, 21, 11)
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if len(lines) != 11 {
		t.Errorf("expected 11 lines, got %d", len(lines))
	}
	if strings.Count(art, "•") != 4 {
		t.Errorf("expected 4 points drawn, got %d", strings.Count(art, "•"))
	}

	if _, err := PhasePortrait("a", []float64{1}, "b", nil); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestSection(t *testing.T) {
	trigger := []float64{-1, 1, -1, 3}
	x := []float64{0, 2, 0, 4}
	y := []float64{10, 10, 10, 10}

	pts := Section(trigger, x, y, 0)
	if len(pts) != 2 {
		t.Fatalf("expected 2 crossings, got %d", len(pts))
	}
	if pts[0].X != 1 || pts[1].X != 1 {
		t.Errorf("expected interpolated x = 1, got %v", pts)
	}
	if SectionToASCII(nil, 10, 5) != "No crossings detected" {
		t.Error("expected placeholder for empty section")
	}
}

func TestSweepRestitution(t *testing.T) {
	base := config.GetPreset("drop", "bounce")
	base.Duration = 0.4

	points, err := Sweep(context.Background(), base, "e", []float64{0, 0.5}, 2, nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	// a plastic impact loses more energy than a partially elastic one
	if points[0].Metrics["energy_change"] >= points[1].Metrics["energy_change"] {
		t.Errorf("expected e=0 to dissipate more: %f vs %f",
			points[0].Metrics["energy_change"], points[1].Metrics["energy_change"])
	}
}

func TestLinspace(t *testing.T) {
	v := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if math.Abs(v[i]-want[i]) > 1e-15 {
			t.Errorf("expected %v, got %v", want, v)
			break
		}
	}
	if len(Linspace(2, 3, 1)) != 1 {
		t.Error("expected a single value")
	}
}
