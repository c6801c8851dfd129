package contact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/contour"
	"github.com/san-kum/nonsmooth/internal/kinematics"
)

// Geometry is the purely geometric result of a pairing for one slot, in
// world coordinates. Normal points from contour A towards contour B and
// Gap = Normal.(PosB - PosA).
type Geometry struct {
	Valid  bool
	Gap    float64
	PosA   mgl64.Vec3
	PosB   mgl64.Vec3
	Normal mgl64.Vec3
	// Tangent is a preferred first tangent direction; zero means any.
	Tangent mgl64.Vec3
	// NormalRate is the time derivative of Normal at the current velocity.
	NormalRate mgl64.Vec3
	Param      float64
}

type key struct{ a, b contour.Kind }

// pairing evaluates the slots of one contour pair. params holds the warm
// start of every slot and is updated in place.
type pairing struct {
	slots int
	eval  func(a, b contour.Contour, sa, sb kinematics.FrameState, params []float64, s *searcher) ([]Geometry, error)
}

var table = map[key]pairing{
	{contour.KindPlane, contour.KindPoint}:    {1, planePoint},
	{contour.KindPlane, contour.KindSphere}:   {1, planeSphere},
	{contour.KindLine, contour.KindPoint}:     {1, linePoint},
	{contour.KindCylinder, contour.KindPoint}: {1, cylinderPoint},
	{contour.KindSphere, contour.KindSphere}:  {1, sphereSphere},
	{contour.KindPlane, contour.KindSegment}:  {2, planeSegment},
	{contour.KindSurface, contour.KindPoint}:  {1, surfacePoint},
	{contour.KindSurface, contour.KindSphere}: {1, surfaceSphere},
}

// lookup finds the pairing for (a, b), trying the reversed order as well.
func lookup(a, b contour.Kind) (pairing, bool, bool) {
	if p, ok := table[key{a, b}]; ok {
		return p, false, true
	}
	if p, ok := table[key{b, a}]; ok {
		return p, true, true
	}
	return pairing{}, false, false
}

// Supported reports whether a pairing exists for the two kinds in either order.
func Supported(a, b contour.Kind) bool {
	_, _, ok := lookup(a, b)
	return ok
}

func pointOnPlane(r, n, p mgl64.Vec3, w mgl64.Vec3, A mgl64.Mat3) Geometry {
	g := n.Dot(p.Sub(r))
	return Geometry{
		Valid:      true,
		Gap:        g,
		PosA:       p.Sub(n.Mul(g)),
		PosB:       p,
		Normal:     n,
		Tangent:    A.Col(1),
		NormalRate: w.Cross(n),
	}
}

func planePoint(a, b contour.Contour, sa, sb kinematics.FrameState, _ []float64, _ *searcher) ([]Geometry, error) {
	n := sa.Orientation.Col(0)
	return []Geometry{pointOnPlane(sa.Position, n, sb.Position, sa.AngularVelocity, sa.Orientation)}, nil
}

func planeSphere(a, b contour.Contour, sa, sb kinematics.FrameState, _ []float64, _ *searcher) ([]Geometry, error) {
	R := b.(*contour.Sphere).Radius
	n := sa.Orientation.Col(0)
	g := pointOnPlane(sa.Position, n, sb.Position.Sub(n.Mul(R)), sa.AngularVelocity, sa.Orientation)
	return []Geometry{g}, nil
}

// linePoint is the planar variant of planePoint: the normal is the line's x
// axis and the only meaningful tangent is its y axis.
func linePoint(a, b contour.Contour, sa, sb kinematics.FrameState, _ []float64, _ *searcher) ([]Geometry, error) {
	n := sa.Orientation.Col(0)
	p := sb.Position
	// ignore the out-of-plane offset
	z := sa.Orientation.Col(2)
	p = p.Sub(z.Mul(z.Dot(p.Sub(sa.Position))))
	g := pointOnPlane(sa.Position, n, p, sa.AngularVelocity, sa.Orientation)
	g.PosB = sb.Position
	return []Geometry{g}, nil
}

func cylinderPoint(a, b contour.Contour, sa, sb kinematics.FrameState, _ []float64, _ *searcher) ([]Geometry, error) {
	cyl := a.(*contour.Cylinder)
	axis := sa.Orientation.Col(2)
	d := sb.Position.Sub(sa.Position)
	axial := axis.Mul(axis.Dot(d))
	radial := d.Sub(axial)
	dist := radial.Len()

	var e mgl64.Vec3
	if dist < 1e-14 {
		// on the axis the radial direction is undefined; use the frame x axis
		e = sa.Orientation.Col(0)
	} else {
		e = radial.Mul(1 / dist)
	}

	surface := sa.Position.Add(axial).Add(e.Mul(cyl.Radius))
	vrel := sb.Velocity.Sub(sa.Velocity.Add(sa.AngularVelocity.Cross(d)))
	vperp := vrel.Sub(axis.Mul(axis.Dot(vrel)))
	var edot mgl64.Vec3
	if dist >= 1e-14 {
		edot = vperp.Sub(e.Mul(e.Dot(vperp))).Mul(1 / dist)
	}
	edot = edot.Add(sa.AngularVelocity.Cross(e))

	g := Geometry{Valid: true, PosA: surface, PosB: sb.Position, Tangent: axis}
	if cyl.Solid {
		g.Normal = e
		g.NormalRate = edot
		g.Gap = dist - cyl.Radius
	} else {
		g.Normal = e.Mul(-1)
		g.NormalRate = edot.Mul(-1)
		g.Gap = cyl.Radius - dist
	}
	return []Geometry{g}, nil
}

func sphereSphere(a, b contour.Contour, sa, sb kinematics.FrameState, _ []float64, _ *searcher) ([]Geometry, error) {
	ra := a.(*contour.Sphere).Radius
	rb := b.(*contour.Sphere).Radius
	d := sb.Position.Sub(sa.Position)
	dist := d.Len()
	n := mgl64.Vec3{1, 0, 0}
	var ndot mgl64.Vec3
	if dist > 1e-14 {
		n = d.Mul(1 / dist)
		vrel := sb.Velocity.Sub(sa.Velocity)
		ndot = vrel.Sub(n.Mul(n.Dot(vrel))).Mul(1 / dist)
	}
	return []Geometry{{
		Valid:      true,
		Gap:        dist - ra - rb,
		PosA:       sa.Position.Add(n.Mul(ra)),
		PosB:       sb.Position.Sub(n.Mul(rb)),
		Normal:     n,
		NormalRate: ndot,
	}}, nil
}

// planeSegment reports each segment end as its own slot. Ends farther away
// than the search horizon are reported as absent.
func planeSegment(a, b contour.Contour, sa, sb kinematics.FrameState, _ []float64, s *searcher) ([]Geometry, error) {
	seg := b.(*contour.Segment)
	n := sa.Orientation.Col(0)
	p0, p1 := seg.Endpoints(sb.Position, sb.Orientation)
	out := make([]Geometry, 2)
	for i, p := range []mgl64.Vec3{p0, p1} {
		g := pointOnPlane(sa.Position, n, p, sa.AngularVelocity, sa.Orientation)
		if g.Gap > s.cfg.Horizon {
			g.Valid = false
		}
		out[i] = g
	}
	return out, nil
}

func surfacePoint(a, b contour.Contour, sa, sb kinematics.FrameState, params []float64, s *searcher) ([]Geometry, error) {
	return surfaceContact(a.(*contour.Surface), 0, sa, sb, params, s)
}

func surfaceSphere(a, b contour.Contour, sa, sb kinematics.FrameState, params []float64, s *searcher) ([]Geometry, error) {
	return surfaceContact(a.(*contour.Surface), b.(*contour.Sphere).Radius, sa, sb, params, s)
}

func surfaceContact(surf *contour.Surface, radius float64, sa, sb kinematics.FrameState, params []float64, s *searcher) ([]Geometry, error) {
	A := sa.Orientation
	// point in surface frame coordinates, projected onto the profile plane
	local := A.Transpose().Mul3x1(sb.Position.Sub(sa.Position))
	local[2] = 0

	alpha, err := s.closestParameter(surf.Profile, local, params[0])
	if err != nil {
		return []Geometry{{Valid: false, Param: params[0]}}, err
	}
	params[0] = alpha

	nLocal := surf.Normal(alpha)
	rLocal := surf.Profile.Position(alpha)
	n := A.Mul3x1(nLocal)
	onSurface := sa.Position.Add(A.Mul3x1(rLocal))
	gap := nLocal.Dot(local.Sub(rLocal)) - radius

	// normal rate from the body rotation and from the foot point sliding
	// along the profile; a point at distance d off a profile of curvature
	// kappa drags its foot point at v_t/(1 - kappa*d)
	t := surf.Profile.Tangent(alpha)
	c := surf.Profile.Curvature(alpha)
	vrel := A.Transpose().Mul3x1(sb.Velocity.Sub(sa.Velocity.Add(sa.AngularVelocity.Cross(sb.Position.Sub(sa.Position)))))
	var ndot mgl64.Vec3
	if tt := t.Dot(t); tt > 0 {
		kappa := (t[0]*c[1] - t[1]*c[0]) / math.Pow(tt, 1.5)
		if den := 1 - kappa*(gap+radius); math.Abs(den) > 1e-12 {
			speed := vrel.Dot(t.Normalize()) / den
			ndot = A.Mul3x1(t.Normalize().Mul(-kappa * speed))
		}
	}
	ndot = ndot.Add(sa.AngularVelocity.Cross(n))

	return []Geometry{{
		Valid:      true,
		Gap:        gap,
		PosA:       onSurface,
		PosB:       sb.Position.Sub(n.Mul(radius)),
		Normal:     n,
		Tangent:    A.Mul3x1(t).Normalize(),
		NormalRate: ndot,
		Param:      alpha,
	}}, nil
}
