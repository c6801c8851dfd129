// Package models builds the scenario systems that ship with the CLI.
package models

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/system"
)

// Model is an initialized system together with its initial state.
type Model struct {
	Name        string
	Description string
	System      *system.System
	Q0, U0      dynamo.State
}

// Params are scalar model parameters; missing keys take defaults.
type Params map[string]float64

func (p Params) get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

func (p Params) mode() link.Mode {
	if p.get("regularized", 0) != 0 {
		return link.Regularized
	}
	return link.Strict
}

// Builder constructs a model from system options and parameters.
type Builder func(opts system.Options, p Params) (*Model, error)

type entry struct {
	description string
	build       Builder
}

var builders = map[string]entry{
	"drop":      {"point mass dropped onto a plane", Drop},
	"slider":    {"block sliding on a plane with Coulomb friction", Slider},
	"chain":     {"three relative bodies with a pendulum joint and a ground contact", Chain},
	"cylinder":  {"particle inside a hollow drum", Cylinder},
	"hydraulic": {"flow network with a dependent collector line", Hydraulic},
	"wavy":      {"ball on a sinusoidal surface", Wavy},
	"seesaw":    {"plank falling onto a plane at both ends", Seesaw},
}

// Names lists the built-in models in alphabetical order.
func Names() []string {
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func Describe(name string) string { return builders[name].description }

// Build constructs and initializes a model by name.
func Build(name string, opts system.Options, p Params) (*Model, error) {
	e, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	m, err := e.build(opts, p)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	m.Name = name
	m.Description = e.description
	return m, nil
}

// horizontal is the orientation of a plane contour whose normal is world y.
func horizontal() mgl64.Mat3 {
	return mgl64.HomogRotate3D(math.Pi/2, mgl64.Vec3{0, 0, 1}).Mat3()
}

var (
	axisX  = mgl64.Vec3{1, 0, 0}
	axisY  = mgl64.Vec3{0, 1, 0}
	axisZ  = mgl64.Vec3{0, 0, 1}
	origin = mgl64.Vec3{}
)

// particle adds a point mass translating in the given axes.
func particle(tree *kinematics.Tree, name string, mass float64, axes ...mgl64.Vec3) kinematics.BodyID {
	return tree.AddBody(kinematics.Body{
		Name:      name,
		Parent:    kinematics.World,
		TransAxes: axes,
		Mass:      mass,
	})
}

// rod is the inertia of a slender rod of length l about its center.
func rod(m, l float64) mgl64.Mat3 {
	j := m * l * l / 12
	return mgl64.Diag3(mgl64.Vec3{j, 1e-6 * m, j})
}
