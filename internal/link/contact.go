package link

import (
	"fmt"
	"math"

	"github.com/san-kum/nonsmooth/internal/contact"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/solver"
)

// ContactOptions configures a unilateral contact.
type ContactOptions struct {
	Mu           float64
	FrictionDirs int
	Restitution  float64
	Mode         Mode
}

// Contact is a unilateral constraint between two contours with one slot per
// potential contact point of the pairing.
type Contact struct {
	base
	Pair *contact.Pair
	opts ContactOptions

	points []contact.Point
}

func NewContact(name string, pair *contact.Pair, opts ContactOptions) *Contact {
	return &Contact{base: base{name: name}, Pair: pair, opts: opts}
}

func (c *Contact) Kind() Kind {
	if c.opts.FrictionDirs > 0 {
		return KindFrictional
	}
	return KindUnilateral
}

func (c *Contact) Options() ContactOptions { return c.opts }

func (c *Contact) Mode() Mode { return c.opts.Mode }

func (c *Contact) Init(n int, tol Tolerances) error {
	o := c.opts
	switch {
	case c.Pair == nil:
		return &dynamo.ConfigurationError{Link: c.name, Reason: "contact without contour pair"}
	case o.Mu < 0:
		return &dynamo.ConfigurationError{Link: c.name, Reason: fmt.Sprintf("negative friction coefficient %g", o.Mu)}
	case o.FrictionDirs < 0 || o.FrictionDirs > 2:
		return &dynamo.ConfigurationError{Link: c.name, Reason: fmt.Sprintf("%d friction directions", o.FrictionDirs)}
	case o.Mu > 0 && o.FrictionDirs == 0:
		return &dynamo.ConfigurationError{Link: c.name, Reason: "friction coefficient without tangent directions"}
	case o.Restitution < 0 || o.Restitution > 1:
		return &dynamo.ConfigurationError{Link: c.name, Reason: fmt.Sprintf("restitution %g outside [0, 1]", o.Restitution)}
	}
	c.tol = tol
	dirs := 1 + o.FrictionDirs
	c.slots = make([]Slot, c.Pair.Slots())
	for i := range c.slots {
		c.slots[i] = newSlot(dirs, n)
		c.slots[i].G = c.slots[i].G[:1]
		c.slots[i].G[0] = math.Inf(1)
	}
	return nil
}

// SetPoints hands the resolved contact points of the current context to the
// link. It must precede the Update calls.
func (c *Contact) SetPoints(pts []contact.Point) { c.points = pts }

func (c *Contact) Points() []contact.Point { return c.points }

func (c *Contact) UpdateG(*kinematics.Tree) {
	for i := range c.slots {
		s := &c.slots[i]
		if i < len(c.points) && c.points[i].Valid {
			s.Present = true
			s.G[0] = c.points[i].Gap
		} else {
			s.Present = false
			s.G[0] = math.Inf(1)
		}
	}
}

func (c *Contact) UpdateGd(*kinematics.Tree) {
	for i := range c.slots {
		s := &c.slots[i]
		for d := range s.Gd {
			s.Gd[d] = 0
			if s.Present {
				s.Gd[d] = c.points[i].Velocity[d]
			}
		}
	}
}

func (c *Contact) UpdateW(*kinematics.Tree) {
	for i := range c.slots {
		s := &c.slots[i]
		s.W.Zero()
		for d := range s.Wb {
			s.Wb[d] = 0
			if !s.Present {
				continue
			}
			p := c.points[i]
			setColumn(s.W, d, p.J.RawRowView(d))
			s.Wb[d] = p.Bias[d]
		}
	}
}

// GapClosed is the activation predicate on the gap: g <= 0 for strict links,
// g <= gTol for regularized ones.
func (c *Contact) GapClosed(i int) bool {
	s := &c.slots[i]
	if !s.Present {
		return false
	}
	if c.opts.Mode == Regularized {
		return s.G[0] <= c.tol.G
	}
	return s.G[0] <= 0
}

// StepClosed is the time-stepping activation predicate. A strict slot closes
// when its gap, carried over the remaining step h along the current
// approach velocity, falls within gTol; a slot resting at a roundoff gap
// therefore stays closed. Regularized slots use GapClosed.
func (c *Contact) StepClosed(i int, h float64) bool {
	s := &c.slots[i]
	if !s.Present {
		return false
	}
	if c.opts.Mode == Regularized {
		return s.G[0] <= c.tol.G
	}
	return s.G[0]+h*math.Min(s.Gd[0], 0) <= c.tol.G
}

// RemainsClosed is the activation predicate on the normal gap rate.
func (c *Contact) RemainsClosed(i int) bool {
	return c.slots[i].Gd[0] <= c.tol.Gd
}

// Sticks reports whether the tangential velocity lies within gdTol.
func (c *Contact) Sticks(i int) bool {
	if c.opts.FrictionDirs == 0 {
		return false
	}
	return norm(c.slots[i].Gd[1:]) <= c.tol.Gd
}

// TangentialDirection returns gdT/|gdT|, or nil when the contact sticks.
func (c *Contact) TangentialDirection(i int) []float64 {
	gdT := c.slots[i].Gd[1:]
	n := norm(gdT)
	if n == 0 {
		return nil
	}
	out := make([]float64, len(gdT))
	for k, v := range gdT {
		out[k] = v / n
	}
	return out
}

// NormalLaw and TangentLaw return the laws for the given level and status.
func (c *Contact) NormalLaw(level solver.Level) solver.Law {
	if level == solver.Velocity {
		return NewtonImpact{E: c.opts.Restitution, Threshold: c.tol.Gd}
	}
	return Unilateral{}
}

func (c *Contact) TangentLaw(level solver.Level, s *Slot) solver.Law {
	if level == solver.Velocity {
		return CoulombImpact{Mu: c.opts.Mu}
	}
	if s.Status == Sliding && s.SlideDir != nil {
		return SlidingFriction{Mu: c.opts.Mu, Dir: s.SlideDir}
	}
	return Coulomb{Mu: c.opts.Mu}
}

// Stabilization returns the extra velocity-level bias of slot i for a time
// step dt. Strict contacts push any penetration out within one step;
// regularized contacts settle half a gap tolerance inside the band.
func (c *Contact) Stabilization(i int, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	g := c.slots[i].G[0]
	if c.opts.Mode == Regularized {
		return (g + c.tol.G/2) / dt
	}
	if g < 0 {
		return g / dt
	}
	return 0
}

func (c *Contact) Outputs(dst []Output) []Output {
	for i := range c.slots {
		s := &c.slots[i]
		prefix := c.name
		if len(c.slots) > 1 {
			prefix = fmt.Sprintf("%s[%d]", c.name, i)
		}
		g := s.G[0]
		if !s.Present {
			g = math.NaN()
		}
		dst = append(dst,
			Output{prefix + ".g", g},
			Output{prefix + ".gdN", s.Gd[0]},
			Output{prefix + ".laN", s.La[0]},
			Output{prefix + ".status", float64(s.Status)},
		)
		if len(s.La) > 1 {
			dst = append(dst, Output{prefix + ".laT", norm(s.La[1:])})
		}
	}
	return dst
}
