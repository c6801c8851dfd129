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

// Wavy drops a ball onto a sinusoidal surface; the contact point is found by
// a parametric search.
// Parameters: amplitude, wavelength, radius, x0, drop, mu, regularized.
func Wavy(opts system.Options, p Params) (*Model, error) {
	wave := contour.Wave{
		Amplitude:  p.get("amplitude", 0.05),
		Wavelength: p.get("wavelength", 0.5),
		Lo:         -1,
		Hi:         1,
	}
	radius := p.get("radius", 0.05)

	tree := kinematics.NewTree()
	floor := tree.AddFrame(kinematics.NoBody, "floor", origin, mgl64.Ident3())
	ball := particle(tree, "ball", 1, axisX, axisY)

	pair, err := contact.NewPair("floor-ball",
		contour.NewSurface("wave", floor, wave),
		contour.NewSphere("ball", tree.Body(ball).Frame(), radius))
	if err != nil {
		return nil, err
	}
	mu := p.get("mu", 0)
	dirs := 0
	if mu > 0 {
		dirs = 1
	}
	sys := system.New("wavy", tree, opts)
	sys.AddLink(link.NewContact("contact", pair, link.ContactOptions{
		Mu:           mu,
		FrictionDirs: dirs,
		Mode:         p.mode(),
	}))
	if err := sys.Init(); err != nil {
		return nil, err
	}
	x0 := p.get("x0", 0.1)
	y0 := wave.Position(x0)[1] + radius + p.get("drop", 0.02)
	return &Model{
		System: sys,
		Q0:     dynamo.State{x0, y0},
		U0:     dynamo.State{0, 0},
	}, nil
}
