package contour

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// near compares component-wise with an absolute tolerance.
func near(a, b mgl64.Vec3, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindPoint, "point"},
		{KindPlane, "plane"},
		{KindCylinder, "cylinder"},
		{KindSurface, "surface"},
		{Kind(42), "kind(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestPlaneNormalIsFrameX(t *testing.T) {
	p := NewPlane("ground", 0)
	A := mgl64.HomogRotate3D(math.Pi/2, mgl64.Vec3{0, 0, 1}).Mat3()
	n := p.Normal(A)
	if !near(n, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("expected normal (0,1,0), got %v", n)
	}
}

func TestSegmentEndpoints(t *testing.T) {
	s := NewSegment("bar", 0, 2)
	a, b := s.Endpoints(mgl64.Vec3{1, 1, 0}, mgl64.Ident3())
	if !near(a, mgl64.Vec3{1, 0, 0}, 1e-10) || !near(b, mgl64.Vec3{1, 2, 0}, 1e-10) {
		t.Errorf("expected (1,0,0)-(1,2,0), got %v-%v", a, b)
	}
}

func TestWaveDerivatives(t *testing.T) {
	w := Wave{Amplitude: 0.1, Wavelength: 1, Lo: -2, Hi: 2}
	f := Func{F: func(x float64) float64 { return w.Position(x)[1] }, Lo: -2, Hi: 2, Step: 1e-4}

	for _, s := range []float64{-1.3, 0, 0.2, 0.77} {
		if !near(w.Tangent(s), f.Tangent(s), 1e-6) {
			t.Errorf("tangent at %v: expected %v, got %v", s, f.Tangent(s), w.Tangent(s))
		}
		if !near(w.Curvature(s), f.Curvature(s), 1e-3) {
			t.Errorf("curvature at %v: expected %v, got %v", s, f.Curvature(s), w.Curvature(s))
		}
	}
}

func TestSurfaceNormalPointsUp(t *testing.T) {
	s := NewSurface("wave", 0, Wave{Amplitude: 0.1, Wavelength: 1, Lo: -1, Hi: 1})
	for _, p := range []float64{-0.4, 0, 0.3} {
		n := s.Normal(p)
		if n[1] <= 0 {
			t.Errorf("expected upward normal at %v, got %v", p, n)
		}
		if math.Abs(n.Dot(s.Profile.Tangent(p))) > 1e-12 {
			t.Errorf("expected normal orthogonal to tangent at %v", p)
		}
	}
}
