package contour

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/kinematics"
)

// Profile is a planar curve r(s) in the xy plane of a frame.
type Profile interface {
	Position(s float64) mgl64.Vec3
	// Tangent is dr/ds.
	Tangent(s float64) mgl64.Vec3
	// Curvature is d2r/ds2.
	Curvature(s float64) mgl64.Vec3
	Range() (lo, hi float64)
}

// Surface is a profile extruded along the frame z axis. The outward normal
// lies to the left of the tangent.
type Surface struct {
	base
	Profile Profile
}

func NewSurface(name string, frame kinematics.FrameID, p Profile) *Surface {
	return &Surface{base{name, frame}, p}
}

func (*Surface) Kind() Kind { return KindSurface }

// Normal returns the unit outward normal at s in frame coordinates.
func (s *Surface) Normal(param float64) mgl64.Vec3 {
	t := s.Profile.Tangent(param)
	return mgl64.Vec3{-t[1], t[0], 0}.Normalize()
}

// Wave is y = Amplitude*sin(2*pi*x/Wavelength) over x in [Lo, Hi].
type Wave struct {
	Amplitude  float64
	Wavelength float64
	Lo, Hi     float64
}

func (w Wave) k() float64 { return 2 * math.Pi / w.Wavelength }

func (w Wave) Position(s float64) mgl64.Vec3 {
	return mgl64.Vec3{s, w.Amplitude * math.Sin(w.k()*s), 0}
}

func (w Wave) Tangent(s float64) mgl64.Vec3 {
	return mgl64.Vec3{1, w.Amplitude * w.k() * math.Cos(w.k()*s), 0}
}

func (w Wave) Curvature(s float64) mgl64.Vec3 {
	k := w.k()
	return mgl64.Vec3{0, -w.Amplitude * k * k * math.Sin(k*s), 0}
}

func (w Wave) Range() (float64, float64) { return w.Lo, w.Hi }

// Func adapts a height function y = F(x) with central-difference
// derivatives.
type Func struct {
	F      func(x float64) float64
	Lo, Hi float64
	Step   float64
}

func (f Func) h() float64 {
	if f.Step > 0 {
		return f.Step
	}
	return 1e-5
}

func (f Func) Position(s float64) mgl64.Vec3 {
	return mgl64.Vec3{s, f.F(s), 0}
}

func (f Func) Tangent(s float64) mgl64.Vec3 {
	h := f.h()
	return mgl64.Vec3{1, (f.F(s+h) - f.F(s-h)) / (2 * h), 0}
}

func (f Func) Curvature(s float64) mgl64.Vec3 {
	h := f.h()
	return mgl64.Vec3{0, (f.F(s+h) - 2*f.F(s) + f.F(s-h)) / (h * h), 0}
}

func (f Func) Range() (float64, float64) { return f.Lo, f.Hi }
