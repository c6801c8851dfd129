package contact

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/contour"
	"github.com/san-kum/nonsmooth/internal/dynamo"
)

// SearchConfig bounds the local closest-point search.
type SearchConfig struct {
	NewtonTol     float64
	MaxIter       int
	Workers       int
	FallbackNodes int
	// Horizon is the largest gap a multi-slot pairing still reports.
	Horizon float64
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		NewtonTol:     1e-10,
		MaxIter:       25,
		Workers:       4,
		FallbackNodes: 64,
		Horizon:       math.Inf(1),
	}
}

func (c SearchConfig) Validate() error {
	if c.NewtonTol <= 0 {
		return fmt.Errorf("%w: newton tolerance must be positive", dynamo.ErrInvalidState)
	}
	if c.MaxIter <= 0 {
		return fmt.Errorf("%w: newton iteration cap must be positive", dynamo.ErrInvalidState)
	}
	if c.FallbackNodes < 2 {
		return fmt.Errorf("%w: fallback needs at least 2 nodes", dynamo.ErrInvalidState)
	}
	return nil
}

const maxBracketIter = 200

type searcher struct {
	cfg  SearchConfig
	pair string
}

// residual of the orthogonality condition (p - r(s)).t(s) and its derivative.
func residual(p contour.Profile, x mgl64.Vec3, s float64) (f, df float64) {
	d := x.Sub(p.Position(s))
	t := p.Tangent(s)
	return d.Dot(t), -t.Dot(t) + d.Dot(p.Curvature(s))
}

// closestParameter finds s with (x - r(s)).t(s) = 0. Newton starts from the
// warm start guess; when it diverges or leaves the profile range, a grid scan
// brackets every root and regula falsi refines the closest one.
func (s *searcher) closestParameter(p contour.Profile, x mgl64.Vec3, guess float64) (float64, error) {
	lo, hi := p.Range()
	if guess < lo || guess > hi || math.IsNaN(guess) {
		guess = 0.5 * (lo + hi)
	}

	alpha := guess
	for i := 0; i < s.cfg.MaxIter; i++ {
		f, df := residual(p, x, alpha)
		if math.Abs(f) <= s.cfg.NewtonTol {
			return alpha, nil
		}
		if df == 0 || math.IsNaN(df) {
			break
		}
		alpha -= f / df
		if alpha < lo || alpha > hi || math.IsNaN(alpha) {
			break
		}
	}

	if a, ok := s.fallback(p, x, lo, hi); ok {
		return a, nil
	}
	f, _ := residual(p, x, alpha)
	return guess, &dynamo.SearchError{Pair: s.pair, Iterations: s.cfg.MaxIter, Residual: math.Abs(f)}
}

func (s *searcher) fallback(p contour.Profile, x mgl64.Vec3, lo, hi float64) (float64, bool) {
	n := s.cfg.FallbackNodes
	h := (hi - lo) / float64(n-1)
	best, bestDist := 0.0, math.Inf(1)
	found := false

	a := lo
	fa, _ := residual(p, x, a)
	for i := 1; i < n; i++ {
		b := lo + float64(i)*h
		fb, _ := residual(p, x, b)
		if fa == 0 || fa*fb < 0 {
			root := s.regulaFalsi(p, x, a, b, fa, fb)
			if d := x.Sub(p.Position(root)).Len(); d < bestDist {
				best, bestDist, found = root, d, true
			}
		}
		a, fa = b, fb
	}
	return best, found
}

// regulaFalsi uses the Illinois modification to avoid one-sided stagnation.
func (s *searcher) regulaFalsi(p contour.Profile, x mgl64.Vec3, a, b, fa, fb float64) float64 {
	if fa == 0 {
		return a
	}
	side := 0
	c := a
	for i := 0; i < maxBracketIter; i++ {
		c = (a*fb - b*fa) / (fb - fa)
		fc, _ := residual(p, x, c)
		if math.Abs(fc) <= s.cfg.NewtonTol || math.Abs(b-a) <= s.cfg.NewtonTol {
			return c
		}
		if fc*fb > 0 {
			b, fb = c, fc
			if side == -1 {
				fa /= 2
			}
			side = -1
		} else {
			a, fa = c, fc
			if side == 1 {
				fb /= 2
			}
			side = 1
		}
	}
	return c
}
