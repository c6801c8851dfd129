package metrics

import (
	"math"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/link"
)

type contactSource interface {
	Contacts() []*link.Contact
}

// Penetration is the deepest negative gap of any present contact slot.
type Penetration struct {
	name     string
	sys      contactSource
	deepest  float64
	deepestT float64
}

func NewPenetration(sys contactSource) *Penetration {
	return &Penetration{name: "max_penetration", sys: sys}
}

func (p *Penetration) Name() string { return p.name }

func (p *Penetration) Observe(t float64, q, u dynamo.State) {
	for _, ct := range p.sys.Contacts() {
		for _, sl := range ct.Slots() {
			if !sl.Present {
				continue
			}
			if d := -sl.G[0]; d > p.deepest {
				p.deepest, p.deepestT = d, t
			}
		}
	}
}

func (p *Penetration) Value() float64 { return p.deepest }

// At returns the time of the deepest penetration.
func (p *Penetration) At() float64 { return p.deepestT }

func (p *Penetration) Reset() {
	p.deepest, p.deepestT = 0, 0
}

// Complementarity is the largest violation of 0 <= la _|_ gdd >= 0 over the
// normal directions of all closed slots; open slots must carry no force.
type Complementarity struct {
	name  string
	sys   contactSource
	worst float64
}

func NewComplementarity(sys contactSource) *Complementarity {
	return &Complementarity{name: "complementarity", sys: sys}
}

func (c *Complementarity) Name() string { return c.name }

func (c *Complementarity) Observe(t float64, q, u dynamo.State) {
	for _, ct := range c.sys.Contacts() {
		for _, sl := range ct.Slots() {
			if !sl.Present {
				continue
			}
			r := math.Abs(sl.La[0])
			if sl.Status.Closed() {
				r = math.Abs(math.Min(sl.La[0], sl.Gdd[0]))
			}
			c.worst = math.Max(c.worst, r)
		}
	}
}

func (c *Complementarity) Value() float64 { return c.worst }
func (c *Complementarity) Reset()         { c.worst = 0 }
