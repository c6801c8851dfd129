package models

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/contact"
	"github.com/san-kum/nonsmooth/internal/contour"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/system"
)

// Seesaw drops a tilted plank onto a plane. Each plank end is a contact slot
// of the same segment-plane pair.
// Parameters: length, height, tilt, e, regularized.
func Seesaw(opts system.Options, p Params) (*Model, error) {
	length := p.get("length", 1)

	tree := kinematics.NewTree()
	plank := tree.AddBody(kinematics.Body{
		Name:      "plank",
		Parent:    kinematics.World,
		TransAxes: []mgl64.Vec3{axisX, axisY},
		RotAxes:   []mgl64.Vec3{axisZ},
		Mass:      1,
		Inertia:   rod(1, length),
	})
	ground := tree.AddFrame(kinematics.NoBody, "ground", origin, horizontal())

	pair, err := contact.NewPair("ground-plank",
		contour.NewPlane("plane", ground),
		contour.NewSegment("plank", tree.Body(plank).Frame(), length))
	if err != nil {
		return nil, err
	}
	sys := system.New("seesaw", tree, opts)
	sys.AddLink(link.NewContact("contact", pair, link.ContactOptions{
		Restitution: p.get("e", 0),
		Mode:        p.mode(),
	}))
	if err := sys.Init(); err != nil {
		return nil, err
	}
	// the segment runs along body y; a quarter turn lays it flat
	return &Model{
		System: sys,
		Q0:     dynamo.State{0, p.get("height", 0.3), math.Pi/2 + p.get("tilt", 0.2)},
		U0:     dynamo.State{0, 0, 0},
	}, nil
}
