package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// LineID indexes a flow line in the tree arena.
type LineID int

// Direction of a dependency, seen from the dependent line.
type Direction int

const (
	// Inflow adds the upstream flow: the upstream line discharges into the
	// dependent line.
	Inflow Direction = 1
	// Outflow subtracts the upstream flow: the dependent line feeds the
	// upstream line.
	Outflow Direction = -1
)

// Dependency couples a dependent line to an upstream line.
type Dependency struct {
	Line      LineID
	Direction Direction
}

// FlowLine is a rigid hydraulic line. A line without dependencies owns one
// coordinate (its volume flow). A line with dependencies owns none; its flow
// is the signed sum of the upstream flows.
type FlowLine struct {
	Name      string
	Length    float64
	Diameter  float64
	Density   float64
	Direction mgl64.Vec3 // unit vector from inlet to outlet, for gravity pressure
	DependsOn []Dependency

	qInd, uInd int
	uSize      int
	J          *mat.Dense // 1 x uSize(tree)
	ready      bool
}

// Area returns the cross section.
func (l *FlowLine) Area() float64 {
	return 0.25 * math.Pi * l.Diameter * l.Diameter
}

// USize is the number of own coordinates; valid after assembly.
func (l *FlowLine) USize() int { return l.uSize }

// Jacobian returns the 1 x n flow Jacobian; valid after assembly.
func (l *FlowLine) Jacobian() *mat.Dense { return l.J }

// Flow returns J*u.
func (l *FlowLine) Flow(u []float64) float64 {
	_, n := l.J.Dims()
	Q := 0.0
	for j := 0; j < n; j++ {
		Q += l.J.At(0, j) * u[j]
	}
	return Q
}

// inertance is the line mass rho*l/A.
func (l *FlowLine) inertance() float64 {
	A := l.Area()
	if A == 0 {
		return 0
	}
	return l.Density * l.Length / A
}
