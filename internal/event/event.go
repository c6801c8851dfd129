// Package event tracks the discrete state of unilateral links across time.
//
// In event-driven mode the controller supplies indicator functions that are
// positive while the current discrete state is valid; a sign change tells
// the driver to locate the event, after which ResetUponEvent on the system
// asks the controller to classify and commit the transition. In
// time-stepping mode activation is simply re-evaluated at every step.
package event

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/logging"
)

type Mode int

const (
	EventDriven Mode = iota
	TimeStepping
)

func (m Mode) String() string {
	if m == TimeStepping {
		return "timestepping"
	}
	return "event"
}

func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "event", "eventdriven", "event-driven", "":
		return EventDriven, nil
	case "timestepping", "time-stepping", "ts":
		return TimeStepping, nil
	default:
		return 0, fmt.Errorf("unknown event mode: %s", name)
	}
}

// Decision is the step control answer for the driver.
type Decision int

const (
	Accept Decision = iota
	// Relocate means an indicator changed sign inside the step.
	Relocate
	// Reject means the step must be repeated with a smaller size.
	Reject
)

func (d Decision) String() string {
	switch d {
	case Relocate:
		return "relocate"
	case Reject:
		return "reject"
	default:
		return "accept"
	}
}

// Transition records one status change.
type Transition struct {
	Link   string
	Slot   int
	From   link.Status
	To     link.Status
	Impact bool
}

type Controller struct {
	mode     Mode
	tol      link.Tolerances
	contacts []*link.Contact
	links    []link.Link
	logger   *log.Logger
}

func New(mode Mode, links []link.Link, tol link.Tolerances, logger *log.Logger) *Controller {
	c := &Controller{mode: mode, tol: tol, links: links, logger: logging.OrDiscard(logger)}
	for _, l := range links {
		if ct, ok := l.(*link.Contact); ok {
			c.contacts = append(c.contacts, ct)
		}
	}
	return c
}

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) closedStatus(ct *link.Contact, i int) link.Status {
	s := ct.Slots()[i]
	if ct.Kind() != link.KindFrictional {
		s.SlideDir = nil
		return link.Active
	}
	if ct.Sticks(i) {
		s.SlideDir = nil
		return link.Sticking
	}
	s.SlideDir = ct.TangentialDirection(i)
	return link.Sliding
}

func (c *Controller) set(ct *link.Contact, i int, to link.Status, impact bool, out []Transition) []Transition {
	s := ct.Slots()[i]
	if s.Status == to {
		return out
	}
	out = append(out, Transition{Link: ct.Name(), Slot: i, From: s.Status, To: to, Impact: impact})
	s.Status = to
	return out
}

// UpdateActivation sets every slot from the gap predicates and, for closed
// frictional slots, from the tangential velocity. In time-stepping mode h is
// the part of the step still ahead of the evaluated state.
func (c *Controller) UpdateActivation(h float64) []Transition {
	var out []Transition
	for _, ct := range c.contacts {
		for i, s := range ct.Slots() {
			closed := ct.GapClosed(i)
			if c.mode == TimeStepping {
				closed = ct.StepClosed(i, h)
			}
			if !closed {
				out = c.set(ct, i, link.Inactive, false, out)
				if !s.Status.Closed() {
					for k := range s.La {
						s.La[k] = 0
					}
				}
				continue
			}
			out = c.set(ct, i, c.closedStatus(ct, i), false, out)
		}
	}
	return out
}

// InForceProblem reports whether a slot takes part in the acceleration
// level problem: closed and not separating.
func (c *Controller) InForceProblem(ct *link.Contact, i int) bool {
	s := ct.Slots()[i]
	return s.Present && s.Status.Closed() && ct.RemainsClosed(i)
}

// IndicatorSize is one normal indicator per slot plus one friction
// indicator per frictional slot.
func (c *Controller) IndicatorSize() int {
	n := 0
	for _, ct := range c.contacts {
		per := 1
		if ct.Kind() == link.KindFrictional {
			per = 2
		}
		n += per * len(ct.Slots())
	}
	return n
}

// Indicators evaluates the indicator functions from the current slot data.
// Every value is positive while the committed discrete state remains valid.
func (c *Controller) Indicators() []float64 {
	out := make([]float64, 0, c.IndicatorSize())
	for _, ct := range c.contacts {
		frictional := ct.Kind() == link.KindFrictional
		for _, s := range ct.Slots() {
			out = append(out, c.normalIndicator(ct, s))
			if frictional {
				out = append(out, c.frictionIndicator(ct, s))
			}
		}
	}
	return out
}

func (c *Controller) normalIndicator(ct *link.Contact, s *link.Slot) float64 {
	if !s.Present {
		return 1
	}
	if !s.Status.Closed() {
		if ct.Mode() == link.Regularized {
			return s.G[0] - c.tol.G
		}
		return s.G[0]
	}
	return s.La[0] - s.Gdd[0]
}

func (c *Controller) frictionIndicator(ct *link.Contact, s *link.Slot) float64 {
	switch s.Status {
	case link.Sticking:
		mu := ct.Options().Mu
		return mu*s.La[0] - norm(s.La[1:]) - norm(s.Gdd[1:])
	case link.Sliding:
		if s.SlideDir == nil {
			return 1
		}
		v := 0.0
		for k, d := range s.SlideDir {
			v += d * s.Gd[1+k]
		}
		return v
	default:
		return 1
	}
}

func norm(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return math.Sqrt(s)
}

// Decide compares the indicators at the start and end of a step.
func (c *Controller) Decide(before, after []float64, converged bool) Decision {
	if !converged {
		return Reject
	}
	if c.mode == TimeStepping {
		return Accept
	}
	for i := range before {
		if i < len(after) && before[i] > 0 && after[i] <= 0 {
			return Relocate
		}
	}
	return Accept
}

// Classify decides the transitions at a located event from the slot data of
// the event instant. It reports whether an impact must be resolved before
// the new state is committed.
func (c *Controller) Classify() ([]Transition, bool) {
	var out []Transition
	impact := false
	for _, ct := range c.contacts {
		for i, s := range ct.Slots() {
			if !s.Present {
				out = c.set(ct, i, link.Inactive, false, out)
				continue
			}
			switch {
			case !s.Status.Closed():
				if !ct.GapClosed(i) {
					continue
				}
				hit := s.Gd[0] < -c.tol.Gd
				// a touching slot only closes if it would otherwise penetrate
				pressing := s.Gd[0] <= c.tol.Gd && s.Gdd[0] < -c.tol.Gdd
				if !hit && !pressing {
					continue
				}
				impact = impact || hit
				out = c.set(ct, i, c.closedStatus(ct, i), hit, out)
			case c.normalIndicator(ct, s) <= c.tol.La:
				out = c.set(ct, i, link.Inactive, false, out)
			case s.Status == link.Sticking && c.frictionIndicator(ct, s) <= 0:
				dir := unit(s.Gdd[1:])
				if dir == nil {
					dir = ct.TangentialDirection(i)
				}
				out = c.set(ct, i, link.Sliding, false, out)
				s.SlideDir = dir
			case s.Status == link.Sliding && c.frictionIndicator(ct, s) <= c.tol.Gd:
				out = c.set(ct, i, link.Sticking, false, out)
				s.SlideDir = nil
			}
		}
	}
	for _, tr := range out {
		c.logger.Debug("event", "link", tr.Link, "slot", tr.Slot, "from", tr.From, "to", tr.To, "impact", tr.Impact)
	}
	return out, impact
}

// AfterImpact re-evaluates closed slots from the post-impact velocities:
// separating slots open, frictional ones pick stick or slip.
func (c *Controller) AfterImpact() []Transition {
	var out []Transition
	for _, ct := range c.contacts {
		for i, s := range ct.Slots() {
			if !s.Status.Closed() {
				continue
			}
			if s.Gd[0] > c.tol.Gd {
				out = c.set(ct, i, link.Inactive, false, out)
				continue
			}
			out = c.set(ct, i, c.closedStatus(ct, i), false, out)
		}
	}
	return out
}

// Pending reports whether any link changed status since the last commit.
func (c *Controller) Pending() bool {
	for _, l := range c.links {
		if l.ActiveChanged() {
			return true
		}
	}
	return false
}

// Commit makes the current statuses the reference for Pending.
func (c *Controller) Commit() {
	for _, l := range c.links {
		l.Commit()
	}
}

func unit(x []float64) []float64 {
	n := norm(x)
	if n == 0 {
		return nil
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v / n
	}
	return out
}
