package solver

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/logging"
	"gonum.org/v1/gonum/mat"
)

// Result is the outcome of one solve. La is the best iterate even when
// Converged is false.
type Result struct {
	La         []float64
	Iterations int
	Converged  bool
}

type Solver struct {
	cfg    Config
	logger *log.Logger
}

func New(cfg Config, logger *log.Logger) *Solver {
	return &Solver{cfg: cfg, logger: logging.OrDiscard(logger)}
}

func (s *Solver) Config() Config { return s.cfg }

// Solve iterates from seed (nil or wrong length means zeros) until every
// block is fulfilled or MaxIter is reached. Non-convergence is reported in
// the result; with StopIfNoConvergence it is also returned as an error.
func (s *Solver) Solve(p *Problem, seed []float64) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	m := p.Size()
	la := make([]float64, m)
	if len(seed) == m {
		copy(la, seed)
	}
	if m == 0 {
		return Result{La: la, Converged: true}, nil
	}

	r := RFactors(p.G, s.cfg.RMax)
	tol := s.cfg.Tol(p.Level)
	if p.Fulfilled(la, tol) {
		return Result{La: la, Converged: true}, nil
	}

	res := Result{}
	level := 0
	for iter := 1; iter <= s.cfg.MaxIter; iter++ {
		if level < len(s.cfg.DecreaseLevels) && iter > s.cfg.DecreaseLevels[level] {
			level++
			for i := range r {
				r[i] *= 0.9
			}
			s.logger.Warn("decreasing r-factors", "iter", iter, "level", p.Level)
		}
		la = s.Sweep(p, la, r)
		res.Iterations = iter
		if p.Fulfilled(la, tol) {
			res.Converged = true
			break
		}
	}
	res.La = la

	if s.cfg.HighIter > 0 && res.Iterations > s.cfg.HighIter {
		s.logger.Warn("high number of iterations", "iter", res.Iterations, "level", p.Level)
	}
	if !res.Converged {
		if s.cfg.StopIfNoConvergence {
			return res, fmt.Errorf("%w: %s level after %d iterations", dynamo.ErrSolverNonConvergence, p.Level, res.Iterations)
		}
		s.logger.Warn("no convergence, continuing integration", "iter", res.Iterations, "level", p.Level)
	}
	return res, nil
}

// Sweep performs one pass over the blocks in declaration order and returns
// the new iterate. la is not modified. Each block sees the values already
// updated earlier in the same sweep.
func (s *Solver) Sweep(p *Problem, la, r []float64) []float64 {
	next := make([]float64, len(la))
	copy(next, la)
	for _, b := range p.Blocks {
		lo, hi := b.Offset, b.Offset+b.Size
		gdd := make([]float64, b.Size)
		for i := lo; i < hi; i++ {
			v := p.B[i]
			for j := range next {
				v += p.G.At(i, j) * next[j]
			}
			gdd[i-lo] = v
		}
		l := Local{La: next[lo:hi], Gdd: gdd, Pre: b.Pre}
		if b.Normal >= 0 {
			l.LaN = next[b.Normal]
		}

		var upd []float64
		switch s.cfg.Strategy {
		case GaussSeidel:
			// residual without the block's own contribution
			rest := make([]float64, b.Size)
			for i := lo; i < hi; i++ {
				v := gdd[i-lo]
				for j := lo; j < hi; j++ {
					v -= p.G.At(i, j) * next[j]
				}
				rest[i-lo] = v
			}
			Gkk := mat.DenseCopyOf(p.G.Slice(lo, hi, lo, hi))
			sol := b.Law.Solve(Gkk, rest, l)
			upd = make([]float64, b.Size)
			for i := range upd {
				upd[i] = next[lo+i] + s.cfg.Omega*(sol[i]-next[lo+i])
			}
		default:
			upd = b.Law.Project(l, r[lo:hi])
		}
		copy(next[lo:hi], upd)
	}
	return next
}

// Fulfilled checks every block against its law at la.
func (p *Problem) Fulfilled(la []float64, tol Tol) bool {
	gdd := p.Residual(la)
	for _, b := range p.Blocks {
		if !b.Law.Fulfilled(p.local(b, la, gdd), tol) {
			return false
		}
	}
	return true
}

// RFactors returns 1/G_ii for diagonally dominant rows and rMax/G_ii
// otherwise. Rows with a vanishing diagonal get 0 and are never updated.
func RFactors(G *mat.Dense, rMax float64) []float64 {
	m, _ := G.Dims()
	r := make([]float64, m)
	for i := 0; i < m; i++ {
		d := G.At(i, i)
		if d <= 0 {
			continue
		}
		off := 0.0
		for j := 0; j < m; j++ {
			if j != i {
				v := G.At(i, j)
				if v < 0 {
					v = -v
				}
				off += v
			}
		}
		if d > off {
			r[i] = 1 / d
		} else {
			r[i] = rMax / d
		}
	}
	return r
}
