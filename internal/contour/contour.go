// Package contour defines the geometric primitives contact search pairs up.
// Contours are attached to kinematic frames and are never mutated by the
// solver.
package contour

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/kinematics"
)

type Kind int

const (
	KindPoint Kind = iota
	KindPlane
	KindSphere
	KindCylinder
	KindLine
	KindSegment
	KindSurface
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindPlane:
		return "plane"
	case KindSphere:
		return "sphere"
	case KindCylinder:
		return "cylinder"
	case KindLine:
		return "line"
	case KindSegment:
		return "segment"
	case KindSurface:
		return "surface"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Contour is any primitive attached to a frame.
type Contour interface {
	Kind() Kind
	Name() string
	Frame() kinematics.FrameID
}

type base struct {
	ContourName string
	On          kinematics.FrameID
}

func (b base) Name() string              { return b.ContourName }
func (b base) Frame() kinematics.FrameID { return b.On }

// Point is the origin of its frame.
type Point struct{ base }

func NewPoint(name string, frame kinematics.FrameID) *Point {
	return &Point{base{name, frame}}
}

func (*Point) Kind() Kind { return KindPoint }

// Plane passes through the frame origin; its outward normal is the frame x
// axis and the y and z axes span it.
type Plane struct{ base }

func NewPlane(name string, frame kinematics.FrameID) *Plane {
	return &Plane{base{name, frame}}
}

func (*Plane) Kind() Kind { return KindPlane }

// Normal returns the outward normal for a frame orientation.
func (*Plane) Normal(A mgl64.Mat3) mgl64.Vec3 { return A.Col(0) }

// Sphere is centered at the frame origin.
type Sphere struct {
	base
	Radius float64
}

func NewSphere(name string, frame kinematics.FrameID, radius float64) *Sphere {
	return &Sphere{base{name, frame}, radius}
}

func (*Sphere) Kind() Kind { return KindSphere }

// Cylinder is an infinite circular cylinder around the frame z axis. Solid
// cylinders are touched from outside; hollow ones (Outer false) contain the
// contacting contour.
type Cylinder struct {
	base
	Radius float64
	Solid  bool
}

func NewCylinder(name string, frame kinematics.FrameID, radius float64, solid bool) *Cylinder {
	return &Cylinder{base{name, frame}, radius, solid}
}

func (*Cylinder) Kind() Kind { return KindCylinder }

// Axis returns the cylinder axis for a frame orientation.
func (*Cylinder) Axis(A mgl64.Mat3) mgl64.Vec3 { return A.Col(2) }

// Line is a planar line through the frame origin with outward normal along
// the frame x axis and tangent along the frame y axis. Contacts with lines
// live in the frame xy plane.
type Line struct{ base }

func NewLine(name string, frame kinematics.FrameID) *Line {
	return &Line{base{name, frame}}
}

func (*Line) Kind() Kind { return KindLine }

// Segment runs along the frame y axis from -Length/2 to Length/2.
type Segment struct {
	base
	Length float64
}

func NewSegment(name string, frame kinematics.FrameID, length float64) *Segment {
	return &Segment{base{name, frame}, length}
}

func (*Segment) Kind() Kind { return KindSegment }

// Endpoints returns both ends in world coordinates.
func (s *Segment) Endpoints(r mgl64.Vec3, A mgl64.Mat3) (mgl64.Vec3, mgl64.Vec3) {
	h := A.Col(1).Mul(s.Length / 2)
	return r.Sub(h), r.Add(h)
}
