package models

import (
	"github.com/san-kum/nonsmooth/internal/contact"
	"github.com/san-kum/nonsmooth/internal/contour"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/system"
)

// Drop is a point mass released at height above a horizontal plane.
// Parameters: height, mass, e (restitution), mu, vx, regularized.
func Drop(opts system.Options, p Params) (*Model, error) {
	tree := kinematics.NewTree()
	ball := particle(tree, "ball", p.get("mass", 1), axisX, axisY, axisZ)
	ground := tree.AddFrame(kinematics.NoBody, "ground", origin, horizontal())

	pair, err := contact.NewPair("ground-ball",
		contour.NewPlane("plane", ground),
		contour.NewPoint("ball", tree.Body(ball).Frame()))
	if err != nil {
		return nil, err
	}
	mu := p.get("mu", 0)
	dirs := 0
	if mu > 0 {
		dirs = 2
	}
	sys := system.New("drop", tree, opts)
	sys.AddLink(link.NewContact("contact", pair, link.ContactOptions{
		Mu:           mu,
		FrictionDirs: dirs,
		Restitution:  p.get("e", 0),
		Mode:         p.mode(),
	}))
	if err := sys.Init(); err != nil {
		return nil, err
	}
	return &Model{
		System: sys,
		Q0:     dynamo.State{0, p.get("height", 0.1), 0},
		U0:     dynamo.State{p.get("vx", 0), 0, 0},
	}, nil
}

// Slider is a block pushed across a plane with Coulomb friction. It slides
// until friction stops it and sticks afterwards.
// Parameters: mass, mu, v0, regularized.
func Slider(opts system.Options, p Params) (*Model, error) {
	tree := kinematics.NewTree()
	block := particle(tree, "block", p.get("mass", 1), axisX, axisY)
	ground := tree.AddFrame(kinematics.NoBody, "ground", origin, horizontal())

	pair, err := contact.NewPair("ground-block",
		contour.NewPlane("plane", ground),
		contour.NewPoint("block", tree.Body(block).Frame()))
	if err != nil {
		return nil, err
	}
	sys := system.New("slider", tree, opts)
	sys.AddLink(link.NewContact("contact", pair, link.ContactOptions{
		Mu:           p.get("mu", 0.3),
		FrictionDirs: 1,
		Mode:         p.mode(),
	}))
	if err := sys.Init(); err != nil {
		return nil, err
	}
	return &Model{
		System: sys,
		Q0:     dynamo.State{0, 0},
		U0:     dynamo.State{p.get("v0", 2), 0},
	}, nil
}
