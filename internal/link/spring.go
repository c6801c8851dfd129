package link

import (
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"gonum.org/v1/gonum/mat"
)

// SpringDamper is a smooth point-to-point force element. It has no slots.
type SpringDamper struct {
	base
	A, B       kinematics.FrameID
	Stiffness  float64
	Damping    float64
	FreeLength float64

	length, rate, force float64
}

func NewSpringDamper(name string, a, b kinematics.FrameID, k, d, l0 float64) *SpringDamper {
	return &SpringDamper{base: base{name: name}, A: a, B: b, Stiffness: k, Damping: d, FreeLength: l0}
}

func (s *SpringDamper) Kind() Kind { return KindSmooth }

func (s *SpringDamper) Init(_ int, tol Tolerances) error {
	if s.Stiffness < 0 || s.Damping < 0 || s.FreeLength < 0 {
		return &dynamo.ConfigurationError{Link: s.name, Reason: "negative spring parameter"}
	}
	s.tol = tol
	return nil
}

func (s *SpringDamper) UpdateG(tree *kinematics.Tree) {
	sa, sb := tree.Frame(s.A), tree.Frame(s.B)
	s.length = sb.Position.Sub(sa.Position).Len()
}

func (s *SpringDamper) UpdateGd(tree *kinematics.Tree) {
	sa, sb := tree.Frame(s.A), tree.Frame(s.B)
	d := sb.Position.Sub(sa.Position)
	if d.Len() == 0 {
		s.rate = 0
		return
	}
	s.rate = d.Normalize().Dot(sb.Velocity.Sub(sa.Velocity))
}

func (s *SpringDamper) UpdateW(*kinematics.Tree) {}

// UpdateH adds the force along the line of action to h.
func (s *SpringDamper) UpdateH(tree *kinematics.Tree, h *mat.VecDense) {
	sa, sb := tree.Frame(s.A), tree.Frame(s.B)
	d := sb.Position.Sub(sa.Position)
	if d.Len() == 0 {
		return
	}
	n := d.Normalize()
	s.length = d.Len()
	s.rate = n.Dot(sb.Velocity.Sub(sa.Velocity))
	s.force = -(s.Stiffness*(s.length-s.FreeLength) + s.Damping*s.rate)

	f := n.Mul(s.force)
	fb := kinematics.ApplyT(sb.JT, f)
	fa := kinematics.ApplyT(sa.JT, f)
	for i := range fb {
		h.SetVec(i, h.AtVec(i)+fb[i]-fa[i])
	}
}

func (s *SpringDamper) Force() float64 { return s.force }

func (s *SpringDamper) Outputs(dst []Output) []Output {
	return append(dst,
		Output{s.name + ".l", s.length},
		Output{s.name + ".ld", s.rate},
		Output{s.name + ".f", s.force},
	)
}
