package solver

import (
	"fmt"
	"strings"

	"github.com/san-kum/nonsmooth/internal/dynamo"
)

type Strategy int

const (
	// Fixpoint projects each block with its own rFactor.
	Fixpoint Strategy = iota
	// GaussSeidel solves each block exactly and relaxes with Omega.
	GaussSeidel
)

func (s Strategy) String() string {
	switch s {
	case GaussSeidel:
		return "gaussseidel"
	default:
		return "fixpoint"
	}
}

// ParseStrategy accepts the names used in configuration files.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "fixpoint", "":
		return Fixpoint, nil
	case "gaussseidel", "gauss-seidel", "gs":
		return GaussSeidel, nil
	default:
		return 0, fmt.Errorf("unknown solver strategy: %s", name)
	}
}

// Config is read once at initialization.
type Config struct {
	Strategy Strategy
	MaxIter  int
	// HighIter triggers a warning when exceeded.
	HighIter int
	GTol     float64
	GdTol    float64
	GddTol   float64
	LaTol    float64
	// LaImpulseTol is the impulse tolerance of velocity-level problems.
	LaImpulseTol float64
	RMax         float64
	Omega        float64
	// DecreaseLevels are iteration counts after which every rFactor is
	// scaled by 0.9.
	DecreaseLevels      []int
	UseOldLa            bool
	StopIfNoConvergence bool
}

func DefaultConfig() Config {
	return Config{
		Strategy:       Fixpoint,
		MaxIter:        10000,
		HighIter:       1000,
		GTol:           1e-8,
		GdTol:          1e-10,
		GddTol:         1e-12,
		LaTol:          1e-12,
		LaImpulseTol:   1e-12,
		RMax:           1,
		Omega:          1,
		DecreaseLevels: []int{500, 1000, 5000},
		UseOldLa:       true,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MaxIter <= 0:
		return fmt.Errorf("%w: max_iter must be positive", dynamo.ErrInvalidState)
	case c.GTol <= 0 || c.GdTol <= 0 || c.GddTol <= 0:
		return fmt.Errorf("%w: gap tolerances must be positive", dynamo.ErrInvalidState)
	case c.LaTol <= 0 || c.LaImpulseTol <= 0:
		return fmt.Errorf("%w: force tolerances must be positive", dynamo.ErrInvalidState)
	case c.RMax <= 0 || c.RMax >= 2:
		return fmt.Errorf("%w: r_max must lie in (0, 2)", dynamo.ErrInvalidState)
	case c.Omega <= 0 || c.Omega >= 2:
		return fmt.Errorf("%w: omega must lie in (0, 2)", dynamo.ErrInvalidState)
	}
	return nil
}

// Tol returns the tolerances of a problem level.
func (c Config) Tol(l Level) Tol {
	if l == Velocity {
		return Tol{Residual: c.GdTol, Force: c.LaImpulseTol}
	}
	return Tol{Residual: c.GddTol, Force: c.LaTol}
}
