package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// FrameID indexes a frame in the tree arena. The inertial frame is always 0.
type FrameID int

// World is the inertial frame.
const World FrameID = 0

// Frame is a coordinate system rigidly attached to a body (or to the world).
type Frame struct {
	Name string
	Body BodyID // NoBody for frames fixed in the inertial system
	// Position and Orientation relative to the body reference frame.
	Position    mgl64.Vec3
	Orientation mgl64.Mat3

	dirty bool
	state FrameState
}

// FrameState holds everything the contact and link layers read from a frame
// at the current context.
type FrameState struct {
	Position        mgl64.Vec3
	Orientation     mgl64.Mat3
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	// JT and JR are 3 x uSize; v = JT*u and omega = JR*u.
	JT, JR *mat.Dense
	// BiasT and BiasR are the accelerations at zero udot (Jdot*u).
	BiasT, BiasR mgl64.Vec3
}

func inertialState(n int) FrameState {
	return FrameState{
		Orientation: mgl64.Ident3(),
		JT:          NewJacobian(n),
		JR:          NewJacobian(n),
	}
}

// Shift returns the kinematic state of the point at world position r moving
// rigidly with fs. The orientation is kept.
func (fs FrameState) Shift(r mgl64.Vec3) FrameState {
	s := r.Sub(fs.Position)
	w := fs.AngularVelocity
	return FrameState{
		Position:        r,
		Orientation:     fs.Orientation,
		Velocity:        fs.Velocity.Add(w.Cross(s)),
		AngularVelocity: w,
		JT:              shiftJacobian(fs.JT, fs.JR, s),
		JR:              fs.JR,
		BiasT:           fs.BiasT.Add(fs.BiasR.Cross(s)).Add(w.Cross(w.Cross(s))),
		BiasR:           fs.BiasR,
	}
}

// Rotate returns fs with its orientation replaced by A. Jacobians are unchanged.
func (fs FrameState) Rotate(A mgl64.Mat3) FrameState {
	fs.Orientation = A
	return fs
}

// attach computes the state of a frame displaced by s and rotated by O in the
// coordinates of the body reference frame described by ref.
func attach(ref FrameState, s mgl64.Vec3, O mgl64.Mat3) FrameState {
	out := ref.Shift(ref.Position.Add(ref.Orientation.Mul3x1(s)))
	out.Orientation = ref.Orientation.Mul3(O)
	return out
}
