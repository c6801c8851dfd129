// Package link models the force elements of a system: bilateral
// connections, unilateral contacts with optional Coulomb friction and smooth
// spring-dampers. Links expose their gaps, gap rates, force directions and
// activation state per slot; the solver and the event controller operate on
// these slots and never own them.
package link

import (
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"gonum.org/v1/gonum/mat"
)

// Kind is the closed set of link variants.
type Kind int

const (
	KindConnection Kind = iota
	KindUnilateral
	KindFrictional
	KindSmooth
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindUnilateral:
		return "unilateral"
	case KindFrictional:
		return "frictional"
	default:
		return "smooth"
	}
}

// Mode decides how a unilateral link treats small penetrations.
type Mode int

const (
	// Strict links are active iff g <= 0 and drive penetration back to zero.
	Strict Mode = iota
	// Regularized links are active within the gap tolerance band and
	// tolerate penetration up to it.
	Regularized
)

func (m Mode) String() string {
	if m == Regularized {
		return "regularized"
	}
	return "strict"
}

// Status is the discrete state of one slot.
type Status int

const (
	Inactive Status = iota
	Active
	Sticking
	Sliding
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Sticking:
		return "sticking"
	case Sliding:
		return "sliding"
	default:
		return "inactive"
	}
}

// Closed reports whether the normal direction carries force.
func (s Status) Closed() bool { return s != Inactive }

// Tolerances are set once at initialization.
type Tolerances struct {
	G         float64
	Gd        float64
	Gdd       float64
	La        float64
	LaImpulse float64
}

func DefaultTolerances() Tolerances {
	return Tolerances{G: 1e-8, Gd: 1e-10, Gdd: 1e-12, La: 1e-12, LaImpulse: 1e-12}
}

// Slot is one force element: the constraint of a connection or one contact
// point of a contact. Directions are ordered normal first, then tangents.
type Slot struct {
	Present bool
	G       []float64
	Gd      []float64
	// W is n x directions; force contribution to the equations of motion is W*la.
	W  *mat.Dense
	Wb []float64
	// Gdd is the normal and tangential acceleration after the last solve.
	Gdd []float64
	// La is the last committed force; Impulse the last committed impulse.
	La      []float64
	Impulse []float64
	Status  Status
	// SlideDir is the unit tangential velocity direction when sliding.
	SlideDir  []float64
	committed Status
}

func newSlot(dirs, n int) Slot {
	return Slot{
		G:       make([]float64, dirs),
		Gd:      make([]float64, dirs),
		W:       mat.NewDense(n, dirs, nil),
		Wb:      make([]float64, dirs),
		Gdd:     make([]float64, dirs),
		La:      make([]float64, dirs),
		Impulse: make([]float64, dirs),
	}
}

// Directions is the number of force components.
func (s *Slot) Directions() int { return len(s.La) }

// Link is the capability interface every variant implements.
type Link interface {
	Name() string
	Kind() Kind
	// Init sizes the slots for a tree with n generalized velocities.
	Init(n int, tol Tolerances) error
	Slots() []*Slot
	UpdateG(tree *kinematics.Tree)
	UpdateGd(tree *kinematics.Tree)
	UpdateW(tree *kinematics.Tree)
	// UpdateH adds the smooth forces of the link to h.
	UpdateH(tree *kinematics.Tree, h *mat.VecDense)
	IsActive(slot int) bool
	// ActiveChanged reports a status change of any slot since Commit.
	ActiveChanged() bool
	Commit()
	Outputs(dst []Output) []Output
}

// Output is one named plot value.
type Output struct {
	Column string
	Value  float64
}

// base carries the slot bookkeeping shared by the variants.
type base struct {
	name  string
	slots []Slot
	tol   Tolerances
}

func (b *base) Name() string { return b.name }

func (b *base) Slots() []*Slot {
	out := make([]*Slot, len(b.slots))
	for i := range b.slots {
		out[i] = &b.slots[i]
	}
	return out
}

func (b *base) IsActive(i int) bool { return b.slots[i].Status.Closed() }

func (b *base) ActiveChanged() bool {
	for i := range b.slots {
		if b.slots[i].Status != b.slots[i].committed {
			return true
		}
	}
	return false
}

func (b *base) Commit() {
	for i := range b.slots {
		b.slots[i].committed = b.slots[i].Status
	}
}

func (b *base) UpdateH(*kinematics.Tree, *mat.VecDense) {}

func setColumn(W *mat.Dense, j int, col []float64) {
	for i, v := range col {
		W.Set(i, j, v)
	}
}
