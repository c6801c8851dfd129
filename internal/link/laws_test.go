package link

import (
	"math"
	"testing"

	"github.com/san-kum/nonsmooth/internal/solver"
	"gonum.org/v1/gonum/mat"
)

var tol = solver.Tol{Residual: 1e-9, Force: 1e-9}

func TestUnilateralProject(t *testing.T) {
	tests := []struct {
		name      string
		la, gdd   float64
		r, expect float64
	}{
		{"separating", 0, 2, 0.5, 0},
		{"pushing", 0, -2, 0.5, 1},
		{"releasing", 3, 4, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unilateral{}.Project(solver.Local{La: []float64{tt.la}, Gdd: []float64{tt.gdd}}, []float64{tt.r})
			if got[0] != tt.expect {
				t.Errorf("expected %v, got %v", tt.expect, got[0])
			}
		})
	}
}

func TestUnilateralFulfilled(t *testing.T) {
	tests := []struct {
		name    string
		la, gdd float64
		want    bool
	}{
		{"open", 0, 1, true},
		{"closed", 5, 0, true},
		{"pulling", -1, 0, false},
		{"penetrating", 0, -1, false},
		{"both positive", 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unilateral{}.Fulfilled(solver.Local{La: []float64{tt.la}, Gdd: []float64{tt.gdd}}, tol)
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCoulombProjectClipsToCone(t *testing.T) {
	c := Coulomb{Mu: 0.5}
	got := c.Project(solver.Local{La: []float64{0, 0}, Gdd: []float64{-3, -4}, LaN: 2}, []float64{1, 1})
	if math.Abs(norm(got)-1) > 1e-12 {
		t.Errorf("expected force on the cone boundary |la| = 1, got %v", norm(got))
	}
	if math.Abs(got[0]-0.6) > 1e-12 || math.Abs(got[1]-0.8) > 1e-12 {
		t.Errorf("expected (0.6, 0.8), got %v", got)
	}

	inside := c.Project(solver.Local{La: []float64{0.1}, Gdd: []float64{0}, LaN: 2}, []float64{1})
	if inside[0] != 0.1 {
		t.Errorf("expected sticking force to be kept, got %v", inside[0])
	}
}

func TestCoulombFulfilled(t *testing.T) {
	c := Coulomb{Mu: 0.5}
	tests := []struct {
		name    string
		la, gdd []float64
		want    bool
	}{
		{"sticking inside cone", []float64{0.5}, []float64{0}, true},
		{"sticking outside cone", []float64{1.5}, []float64{0}, false},
		{"sliding opposing", []float64{-1}, []float64{2}, true},
		{"sliding wrong sign", []float64{1}, []float64{2}, false},
		{"spatial sliding", []float64{-0.6, -0.8}, []float64{3, 4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Fulfilled(solver.Local{La: tt.la, Gdd: tt.gdd, LaN: 2}, tol)
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSlidingFollowsNormalForce(t *testing.T) {
	s := SlidingFriction{Mu: 0.3, Dir: []float64{1}}
	got := s.Project(solver.Local{La: []float64{0}, Gdd: []float64{1}, LaN: 10}, nil)
	if math.Abs(got[0]+3) > 1e-12 {
		t.Errorf("expected -3, got %v", got[0])
	}
	if !s.Fulfilled(solver.Local{La: got, LaN: 10}, tol) {
		t.Error("expected projected force to be fulfilled")
	}
}

func TestNewtonImpactRestitution(t *testing.T) {
	n := NewtonImpact{E: 0.5, Threshold: 1e-6}
	// pre-impact velocity -2: the post-impact velocity must reach +1
	l := solver.Local{La: []float64{0}, Gdd: []float64{-2}, Pre: []float64{-2}}
	G := mat.NewDense(1, 1, []float64{1})
	got := n.Solve(G, []float64{-2}, l)
	if math.Abs(got[0]-3) > 1e-12 {
		t.Errorf("expected impulse 3, got %v", got[0])
	}
	if !n.Fulfilled(solver.Local{La: got, Gdd: []float64{1}, Pre: []float64{-2}}, tol) {
		t.Error("expected restitution target to be fulfilled")
	}

	slow := solver.Local{La: []float64{0}, Gdd: []float64{1e-8}, Pre: []float64{-1e-8}}
	if !n.Fulfilled(slow, solver.Tol{Residual: 1e-6, Force: 1e-9}) {
		t.Error("expected restitution to be ignored below the threshold")
	}
}

func TestBilateralSolve(t *testing.T) {
	G := mat.NewDense(2, 2, []float64{2, 1, 1, 3})
	got := Bilateral{}.Solve(G, []float64{-3, -4}, solver.Local{})
	if math.Abs(got[0]-1) > 1e-12 || math.Abs(got[1]-1) > 1e-12 {
		t.Errorf("expected (1, 1), got %v", got)
	}
}
