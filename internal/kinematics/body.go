package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// BodyID indexes a body in the tree arena.
type BodyID int

// NoBody marks frames fixed in the inertial system.
const NoBody BodyID = -1

// Body is a rigid body connected to a parent frame through translational
// axes followed by successive rotations about body-fixed axes. Its own
// generalized coordinates are the translations followed by the angles, and
// qdot = u for every coordinate.
type Body struct {
	Name   string
	Parent FrameID
	// Offset and Orientation give the reference frame relative to the parent
	// frame at q = 0.
	Offset      mgl64.Vec3
	Orientation mgl64.Mat3
	// TransAxes are expressed in the parent frame.
	TransAxes []mgl64.Vec3
	// RotAxes are expressed in the body frame, each after the previous
	// rotations have been applied.
	RotAxes []mgl64.Vec3
	Mass    float64
	// Inertia about the reference frame origin in body coordinates. The
	// reference frame origin is the center of mass.
	Inertia mgl64.Mat3

	frame    FrameID
	qInd     int
	uInd     int
	children []BodyID
	frames   []FrameID
	dirty    bool
}

// Frame returns the body reference frame.
func (b *Body) Frame() FrameID { return b.frame }

// DOF returns the number of own generalized coordinates.
func (b *Body) DOF() int { return len(b.TransAxes) + len(b.RotAxes) }

// relative holds the kinematics of the reference frame relative to its
// parent frame, expressed in parent coordinates.
type relative struct {
	position mgl64.Vec3
	rotation mgl64.Mat3
	velocity mgl64.Vec3
	omega    mgl64.Vec3
	// axes are the columns of the relative Jacobians, parent coordinates.
	transAxes []mgl64.Vec3
	rotAxes   []mgl64.Vec3
	biasR     mgl64.Vec3
}

func (b *Body) relative(q, u []float64) relative {
	nT := len(b.TransAxes)
	rel := relative{
		position: b.Offset,
		rotation: b.Orientation,
	}
	for i, a := range b.TransAxes {
		rel.position = rel.position.Add(a.Mul(q[b.qInd+i]))
		rel.velocity = rel.velocity.Add(a.Mul(u[b.uInd+i]))
		rel.transAxes = append(rel.transAxes, a)
	}
	for k, axis := range b.RotAxes {
		e := rel.rotation.Mul3x1(axis.Normalize())
		ud := u[b.uInd+nT+k]
		// omega so far is the angular velocity of the frame carrying e
		rel.biasR = rel.biasR.Add(rel.omega.Cross(e).Mul(ud))
		rel.omega = rel.omega.Add(e.Mul(ud))
		rel.rotAxes = append(rel.rotAxes, e)
		rel.rotation = rel.rotation.Mul3(mgl64.HomogRotate3D(q[b.qInd+nT+k], axis.Normalize()).Mat3())
	}
	return rel
}

// propagate returns the reference frame state given the parent frame state.
func (b *Body) propagate(p FrameState, q, u []float64) FrameState {
	rel := b.relative(q, u)
	A := p.Orientation
	w := p.AngularVelocity
	rPC := A.Mul3x1(rel.position)
	vRel := A.Mul3x1(rel.velocity)
	wRel := A.Mul3x1(rel.omega)

	JT := shiftJacobian(p.JT, p.JR, rPC)
	for i, a := range rel.transAxes {
		AddColumn(JT, b.uInd+i, A.Mul3x1(a))
	}
	JR := mat.DenseCopyOf(p.JR)
	for k, e := range rel.rotAxes {
		AddColumn(JR, b.uInd+len(rel.transAxes)+k, A.Mul3x1(e))
	}

	return FrameState{
		Position:        p.Position.Add(rPC),
		Orientation:     A.Mul3(rel.rotation),
		Velocity:        p.Velocity.Add(w.Cross(rPC)).Add(vRel),
		AngularVelocity: w.Add(wRel),
		JT:              JT,
		JR:              JR,
		BiasT: p.BiasT.
			Add(p.BiasR.Cross(rPC)).
			Add(w.Cross(w.Cross(rPC))).
			Add(w.Cross(vRel).Mul(2)),
		BiasR: p.BiasR.Add(A.Mul3x1(rel.biasR)).Add(w.Cross(wRel)),
	}
}
