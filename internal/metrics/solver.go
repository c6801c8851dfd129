package metrics

import (
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/system"
)

type statsSource interface {
	Stats() system.Stats
}

// SolverEffort averages the iterations of the last constraint solve of every
// step.
type SolverEffort struct {
	name        string
	sys         statsSource
	total       int
	peak        int
	unconverged int
	samples     int
}

func NewSolverEffort(sys statsSource) *SolverEffort {
	return &SolverEffort{name: "solver_iterations", sys: sys}
}

func (s *SolverEffort) Name() string { return s.name }

func (s *SolverEffort) Observe(t float64, q, u dynamo.State) {
	st := s.sys.Stats()
	s.total += st.Iterations
	s.peak = max(s.peak, st.Iterations)
	if st.Size > 0 && !st.Converged {
		s.unconverged++
	}
	s.samples++
}

func (s *SolverEffort) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.total) / float64(s.samples)
}

func (s *SolverEffort) Peak() int        { return s.peak }
func (s *SolverEffort) Unconverged() int { return s.unconverged }

func (s *SolverEffort) Reset() {
	s.total, s.peak, s.unconverged, s.samples = 0, 0, 0, 0
}
