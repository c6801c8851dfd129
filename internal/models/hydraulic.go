package models

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/system"
)

// Hydraulic is two supply lines feeding a collector that drains into an
// outlet. Only the supply lines own a coordinate.
// Parameters: density, q1, q2 (initial supply flows).
func Hydraulic(opts system.Options, p Params) (*Model, error) {
	rho := p.get("density", 850)
	down := mgl64.Vec3{0, -1, 0}

	tree := kinematics.NewTree()
	s1 := tree.AddLine(kinematics.FlowLine{Name: "supply1", Length: 1, Diameter: 0.02, Density: rho, Direction: down})
	s2 := tree.AddLine(kinematics.FlowLine{Name: "supply2", Length: 2, Diameter: 0.03, Density: rho, Direction: axisX})
	collector := tree.AddLine(kinematics.FlowLine{
		Name: "collector", Length: 1.5, Diameter: 0.04, Density: rho, Direction: down,
		DependsOn: []kinematics.Dependency{
			{Line: s1, Direction: kinematics.Inflow},
			{Line: s2, Direction: kinematics.Inflow},
		},
	})
	tree.AddLine(kinematics.FlowLine{
		Name: "outlet", Length: 0.5, Diameter: 0.05, Density: rho, Direction: axisX,
		DependsOn: []kinematics.Dependency{{Line: collector, Direction: kinematics.Inflow}},
	})

	sys := system.New("hydraulic", tree, opts)
	if err := sys.Init(); err != nil {
		return nil, err
	}
	return &Model{
		System: sys,
		Q0:     make(dynamo.State, tree.QSize()),
		U0:     dynamo.State{p.get("q1", 1e-4), p.get("q2", 0)},
	}, nil
}
