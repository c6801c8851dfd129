package link

import (
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"gonum.org/v1/gonum/mat"
)

// Connection is a bilateral joint between two frames. Forces and Moments are
// the constrained translational and rotational directions in frame A
// coordinates. The frames coincide in the consistent configuration.
type Connection struct {
	base
	A, B    kinematics.FrameID
	Forces  []mgl64.Vec3
	Moments []mgl64.Vec3

	// x accumulates the transmitted impulse per direction.
	x []float64
}

func NewConnection(name string, a, b kinematics.FrameID, forces, moments []mgl64.Vec3) *Connection {
	return &Connection{base: base{name: name}, A: a, B: b, Forces: forces, Moments: moments}
}

func (c *Connection) Kind() Kind { return KindConnection }

func (c *Connection) Init(n int, tol Tolerances) error {
	dirs := len(c.Forces) + len(c.Moments)
	if dirs == 0 {
		return &dynamo.ConfigurationError{Link: c.name, Reason: "connection without constrained directions"}
	}
	if c.A == c.B {
		return &dynamo.ConfigurationError{Link: c.name, Reason: "connection between a frame and itself"}
	}
	for _, d := range append(append([]mgl64.Vec3{}, c.Forces...), c.Moments...) {
		if d.Len() < 1e-12 {
			return &dynamo.ConfigurationError{Link: c.name, Reason: "zero direction"}
		}
	}
	c.tol = tol
	c.slots = []Slot{newSlot(dirs, n)}
	c.slots[0].Present = true
	c.slots[0].Status = Active
	c.slots[0].committed = Active
	c.x = make([]float64, dirs)
	return nil
}

// IsActive is unconditionally true for bilateral links.
func (c *Connection) IsActive(int) bool { return true }

func (c *Connection) directions(A mgl64.Mat3) ([]mgl64.Vec3, []mgl64.Vec3) {
	f := make([]mgl64.Vec3, len(c.Forces))
	for i, d := range c.Forces {
		f[i] = A.Mul3x1(d.Normalize())
	}
	m := make([]mgl64.Vec3, len(c.Moments))
	for i, d := range c.Moments {
		m[i] = A.Mul3x1(d.Normalize())
	}
	return f, m
}

// rotationVector returns the axis-angle vector of R.
func rotationVector(R mgl64.Mat3) mgl64.Vec3 {
	q := mgl64.Mat4ToQuat(R.Mat4()).Normalize()
	if q.W < 0 {
		q = q.Scale(-1)
	}
	s := q.V.Len()
	if s < 1e-12 {
		return q.V.Mul(2)
	}
	return q.V.Mul(2 * math.Atan2(s, q.W) / s)
}

func (c *Connection) UpdateG(tree *kinematics.Tree) {
	sa, sb := tree.Frame(c.A), tree.Frame(c.B)
	f, _ := c.directions(sa.Orientation)
	s := &c.slots[0]
	d := sb.Position.Sub(sa.Position)
	for i, dir := range f {
		s.G[i] = dir.Dot(d)
	}
	rv := rotationVector(sa.Orientation.Transpose().Mul3(sb.Orientation))
	for i, m := range c.Moments {
		s.G[len(f)+i] = m.Normalize().Dot(rv)
	}
}

func (c *Connection) UpdateGd(tree *kinematics.Tree) {
	sa, sb := tree.Frame(c.A), tree.Frame(c.B)
	a := sa.Shift(sb.Position)
	f, m := c.directions(sa.Orientation)
	s := &c.slots[0]
	vrel := sb.Velocity.Sub(a.Velocity)
	wrel := sb.AngularVelocity.Sub(sa.AngularVelocity)
	for i, dir := range f {
		s.Gd[i] = dir.Dot(vrel)
	}
	for i, dir := range m {
		s.Gd[len(f)+i] = dir.Dot(wrel)
	}
}

func (c *Connection) UpdateW(tree *kinematics.Tree) {
	sa, sb := tree.Frame(c.A), tree.Frame(c.B)
	a := sa.Shift(sb.Position)
	f, m := c.directions(sa.Orientation)
	s := &c.slots[0]

	JT := mat.DenseCopyOf(sb.JT)
	JT.Sub(JT, a.JT)
	JR := mat.DenseCopyOf(sb.JR)
	JR.Sub(JR, sa.JR)
	w := sa.AngularVelocity
	vrel := sb.Velocity.Sub(a.Velocity)
	wrel := sb.AngularVelocity.Sub(sa.AngularVelocity)

	for i, dir := range f {
		setColumn(s.W, i, kinematics.ApplyT(JT, dir))
		s.Wb[i] = dir.Dot(sb.BiasT.Sub(a.BiasT)) + w.Cross(dir).Dot(vrel)
	}
	for i, dir := range m {
		setColumn(s.W, len(f)+i, kinematics.ApplyT(JR, dir))
		s.Wb[len(f)+i] = dir.Dot(sb.BiasR.Sub(sa.BiasR)) + w.Cross(dir).Dot(wrel)
	}
}

// XSize is the number of auxiliary coordinates.
func (c *Connection) XSize() int { return len(c.x) }

// X returns the accumulated impulse per direction.
func (c *Connection) X() []float64 { return c.x }

// UpdateXd returns the time derivative of the auxiliary state for the
// continuous force la.
func (c *Connection) UpdateXd(la []float64) []float64 {
	xd := make([]float64, len(la))
	copy(xd, la)
	return xd
}

// UpdateDx returns the increment of the auxiliary state for the impulse
// transmitted over one time step.
func (c *Connection) UpdateDx(La []float64) []float64 {
	dx := make([]float64, len(La))
	copy(dx, La)
	return dx
}

// Advance adds an increment to the auxiliary state.
func (c *Connection) Advance(dx []float64) {
	for i := range c.x {
		if i < len(dx) {
			c.x[i] += dx[i]
		}
	}
}

func (c *Connection) Outputs(dst []Output) []Output {
	s := &c.slots[0]
	for i := range s.G {
		idx := strconv.Itoa(i)
		dst = append(dst,
			Output{c.name + ".g" + idx, s.G[i]},
			Output{c.name + ".gd" + idx, s.Gd[i]},
			Output{c.name + ".la" + idx, s.La[i]},
		)
	}
	return dst
}
