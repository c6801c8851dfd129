package system

import (
	"fmt"

	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/event"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/link"
)

// Commit is called by the driver once a step ending at t has been accepted.
// It advances the auxiliary state of the connections, commits activation
// and appends one row of plot output.
func (s *System) Commit(t float64, q, u dynamo.State, dt float64) error {
	if !s.ready {
		return fmt.Errorf("system %s: %w", s.name, dynamo.ErrNotInitialized)
	}
	for _, c := range s.connections {
		sl := c.Slots()[0]
		if s.opts.Mode == event.TimeStepping {
			c.Advance(c.UpdateDx(sl.Impulse))
			continue
		}
		xd := c.UpdateXd(sl.La)
		for i := range xd {
			xd[i] *= dt
		}
		c.Advance(xd)
	}
	s.events.Commit()
	s.record(t, q, u)
	return nil
}

func (s *System) record(t float64, q, u dynamo.State) {
	r := s.recorder
	r.Append("t", t)
	for i := range q {
		r.Append(fmt.Sprintf("q%d", i), q[i])
	}
	for i := range u {
		r.Append(fmt.Sprintf("u%d", i), u[i])
	}
	var outs []link.Output
	for _, l := range s.links {
		outs = l.Outputs(outs)
	}
	for _, o := range outs {
		r.Append(o.Column, o.Value)
	}
	for i := 0; i < s.tree.NumLines(); i++ {
		l := s.tree.Line(kinematics.LineID(i))
		r.Append(l.Name+".Q", l.Flow(u))
	}
	r.Append("solver.iter", float64(s.stats.Iterations))
	r.EndRow()
}

// Outputs returns the current plot values of every link.
func (s *System) Outputs() []link.Output {
	var outs []link.Output
	for _, l := range s.links {
		outs = l.Outputs(outs)
	}
	return outs
}
