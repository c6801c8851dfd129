package system

import (
	"fmt"

	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/solver"
	"gonum.org/v1/gonum/mat"
)

// segment maps a range of slot directions to a range of problem rows.
type segment struct {
	slot   *link.Slot
	from   int
	size   int
	offset int
}

// assembly is the stacked view of every slot that takes part in one
// constraint problem, in link declaration order.
type assembly struct {
	level    solver.Level
	n        int
	segments []segment
	blocks   []solver.Block
	cols     [][]float64
	wb       []float64
	extra    []float64
	seed     []float64
}

func (a *assembly) size() int { return len(a.wb) }

func (a *assembly) add(sl *link.Slot, from, size int, b solver.Block, extra func(d int) float64) {
	b.Offset = a.size()
	b.Size = size
	a.segments = append(a.segments, segment{slot: sl, from: from, size: size, offset: b.Offset})
	a.blocks = append(a.blocks, b)
	prev := sl.La
	if a.level == solver.Velocity {
		prev = sl.Impulse
	}
	for d := from; d < from+size; d++ {
		col := make([]float64, a.n)
		mat.Col(col, d, sl.W)
		a.cols = append(a.cols, col)
		a.wb = append(a.wb, sl.Wb[d])
		a.seed = append(a.seed, prev[d])
		e := 0.0
		if extra != nil {
			e = extra(d)
		}
		a.extra = append(a.extra, e)
	}
}

// W returns the n x m force direction matrix, or nil for an empty problem.
func (a *assembly) W() *mat.Dense {
	m := a.size()
	if m == 0 {
		return nil
	}
	W := mat.NewDense(a.n, m, nil)
	for j, col := range a.cols {
		W.SetCol(j, col)
	}
	return W
}

// scatter writes a solution back into the slots.
func (a *assembly) scatter(la []float64, into func(*link.Slot) []float64) {
	for _, sg := range a.segments {
		dst := into(sg.slot)
		copy(dst[sg.from:sg.from+sg.size], la[sg.offset:sg.offset+sg.size])
	}
}

// gather collects the problem rows of a slot-wide vector.
func (a *assembly) gather(of func(*link.Slot) []float64) []float64 {
	out := make([]float64, a.size())
	for _, sg := range a.segments {
		copy(out[sg.offset:sg.offset+sg.size], of(sg.slot)[sg.from:sg.from+sg.size])
	}
	return out
}

// assemble collects the slots of a problem level. include selects contact
// slots; connections always take part. dt > 0 adds the time-stepping
// position stabilization to velocity problems.
func (s *System) assemble(level solver.Level, include func(*link.Contact, int) bool, dt float64) *assembly {
	a := &assembly{level: level, n: s.tree.USize()}
	for _, l := range s.links {
		switch l := l.(type) {
		case *link.Connection:
			sl := l.Slots()[0]
			var extra func(int) float64
			if level == solver.Velocity && dt > 0 {
				extra = func(d int) float64 { return sl.G[d] / dt }
			}
			a.add(sl, 0, sl.Directions(), solver.Block{Name: l.Name(), Law: link.Bilateral{}, Normal: -1}, extra)
		case *link.Contact:
			for i, sl := range l.Slots() {
				i := i
				if !include(l, i) {
					continue
				}
				name := fmt.Sprintf("%s[%d]", l.Name(), i)
				normal := a.size()
				nb := solver.Block{Name: name + ".n", Law: l.NormalLaw(level), Normal: -1}
				var extra func(int) float64
				if level == solver.Velocity {
					nb.Pre = []float64{sl.Gd[0]}
					extra = func(int) float64 { return l.Stabilization(i, dt) }
				}
				a.add(sl, 0, 1, nb, extra)
				if dirs := sl.Directions() - 1; dirs > 0 {
					tb := solver.Block{Name: name + ".t", Law: l.TangentLaw(level, sl), Normal: normal}
					a.add(sl, 1, dirs, tb, nil)
				}
			}
		}
	}
	return a
}

// problem builds the solver problem of an assembly.
func (s *System) problem(a *assembly, u *mat.VecDense, dt float64) (*solver.Problem, *mat.Dense, error) {
	W := a.W()
	if W == nil {
		return &solver.Problem{Level: a.level}, nil, nil
	}
	var (
		p     *solver.Problem
		MinvW *mat.Dense
		err   error
	)
	if a.level == solver.Velocity {
		var h *mat.VecDense
		if dt > 0 {
			h = s.h
		}
		p, MinvW, err = s.factor.ImpulseProblem(W, u, h, dt, a.extra)
	} else {
		p, MinvW, err = s.factor.ForceProblem(W, s.h, a.wb)
	}
	if err != nil {
		return nil, nil, err
	}
	p.Blocks = a.blocks
	return p, MinvW, nil
}

// solve runs the solver on an assembly and records the statistics.
func (s *System) solve(a *assembly, p *solver.Problem) (solver.Result, error) {
	var seed []float64
	if s.opts.Solver.UseOldLa {
		seed = a.seed
	}
	res, err := s.solver.Solve(p, seed)
	s.stats = Stats{Level: a.level, Size: p.Size(), Iterations: res.Iterations, Converged: res.Converged}
	if !res.Converged {
		s.unconverged = true
	}
	return res, err
}
