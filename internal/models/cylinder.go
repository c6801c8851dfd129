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

// Cylinder releases a particle inside a hollow drum whose axis is world z.
// Parameters: radius, x0, mu, e, regularized.
func Cylinder(opts system.Options, p Params) (*Model, error) {
	tree := kinematics.NewTree()
	drum := tree.AddFrame(kinematics.NoBody, "drum", origin, mgl64.Ident3())
	ball := particle(tree, "ball", 1, axisX, axisY)

	pair, err := contact.NewPair("drum-ball",
		contour.NewCylinder("drum", drum, p.get("radius", 0.5), false),
		contour.NewPoint("ball", tree.Body(ball).Frame()))
	if err != nil {
		return nil, err
	}
	mu := p.get("mu", 0)
	dirs := 0
	if mu > 0 {
		dirs = 1
	}
	sys := system.New("cylinder", tree, opts)
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
		Q0:     dynamo.State{p.get("x0", 0.3), 0},
		U0:     dynamo.State{0, 0},
	}, nil
}
