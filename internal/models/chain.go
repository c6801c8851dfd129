package models

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/contact"
	"github.com/san-kum/nonsmooth/internal/contour"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/system"
)

// Chain is a carriage on a spring with an arm and a forearm, each relative
// to its predecessor. A bob hangs from the forearm tip through a pin joint
// and may hit the ground.
// Parameters: theta (initial arm angle), ground (floor height), e, regularized.
func Chain(opts system.Options, p Params) (*Model, error) {
	const (
		armLength     = 0.5
		forearmLength = 0.4
	)
	tree := kinematics.NewTree()
	anchor := tree.AddFrame(kinematics.NoBody, "anchor", origin, mgl64.Ident3())
	base := particle(tree, "base", 2, axisX)
	arm := tree.AddBody(kinematics.Body{
		Name:    "arm",
		Parent:  tree.Body(base).Frame(),
		RotAxes: []mgl64.Vec3{axisZ},
		Mass:    1,
		Inertia: rod(1, armLength),
	})
	elbow := tree.AddFrame(arm, "arm.end", mgl64.Vec3{0, -armLength, 0}, mgl64.Ident3())
	forearm := tree.AddBody(kinematics.Body{
		Name:    "forearm",
		Parent:  elbow,
		RotAxes: []mgl64.Vec3{axisZ},
		Mass:    0.5,
		Inertia: rod(0.5, forearmLength),
	})
	tip := tree.AddFrame(forearm, "forearm.tip", mgl64.Vec3{0, -forearmLength / 2, 0}, mgl64.Ident3())
	bob := particle(tree, "bob", 0.5, axisX, axisY)
	ground := tree.AddFrame(kinematics.NoBody, "ground", mgl64.Vec3{0, p.get("ground", -0.65), 0}, horizontal())

	pair, err := contact.NewPair("ground-bob",
		contour.NewPlane("plane", ground),
		contour.NewPoint("bob", tree.Body(bob).Frame()))
	if err != nil {
		return nil, err
	}

	sys := system.New("chain", tree, opts)
	sys.AddLink(link.NewSpringDamper("spring", anchor, tree.Body(base).Frame(), 50, 2, 0))
	sys.AddLink(link.NewConnection("joint", tip, tree.Body(bob).Frame(), []mgl64.Vec3{axisX, axisY}, nil))
	sys.AddLink(link.NewContact("contact", pair, link.ContactOptions{
		Restitution: p.get("e", 0),
		Mode:        p.mode(),
	}))
	if err := sys.Init(); err != nil {
		return nil, err
	}

	q0 := make(dynamo.State, tree.QSize())
	qa, _, _ := tree.Indices(arm)
	q0[qa] = p.get("theta", 0.8)
	if err := tree.SetState(kinematics.Context{Q: q0, U: make(dynamo.State, tree.USize())}); err != nil {
		return nil, err
	}
	// the bob starts where the joint is closed
	qb, _, _ := tree.Indices(bob)
	pos := tree.Frame(tip).Position
	q0[qb], q0[qb+1] = pos[0], pos[1]

	return &Model{System: sys, Q0: q0, U0: make(dynamo.State, tree.USize())}, nil
}
