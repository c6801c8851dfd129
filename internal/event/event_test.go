package event

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/contact"
	"github.com/san-kum/nonsmooth/internal/contour"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/link"
)

// dropped builds a particle above a plane and evaluates the contact at (q, u).
func dropped(t *testing.T, q, u dynamo.State, opts link.ContactOptions) (*Controller, *link.Contact) {
	t.Helper()
	tree := kinematics.NewTree()
	b := tree.AddBody(kinematics.Body{
		Name:      "p",
		Parent:    kinematics.World,
		TransAxes: []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Mass:      1,
	})
	ground := tree.AddFrame(kinematics.NoBody, "ground", mgl64.Vec3{}, mgl64.HomogRotate3D(math.Pi/2, mgl64.Vec3{0, 0, 1}).Mat3())
	if err := tree.Assemble(); err != nil {
		t.Fatal(err)
	}
	if err := tree.SetState(kinematics.Context{Q: q, U: u}); err != nil {
		t.Fatal(err)
	}
	pair, err := contact.NewPair("ground-p", contour.NewPlane("plane", ground), contour.NewPoint("pt", tree.Body(b).Frame()))
	if err != nil {
		t.Fatal(err)
	}
	c := link.NewContact("c", pair, opts)
	if err := c.Init(tree.USize(), link.DefaultTolerances()); err != nil {
		t.Fatal(err)
	}
	pts, _ := pair.Resolve(tree.Frame(ground), tree.Frame(tree.Body(b).Frame()), contact.DefaultSearchConfig())
	c.SetPoints(pts)
	c.UpdateG(tree)
	c.UpdateGd(tree)
	c.UpdateW(tree)
	return New(EventDriven, []link.Link{c}, link.DefaultTolerances(), nil), c
}

func TestUpdateActivation(t *testing.T) {
	tests := []struct {
		name string
		q, u dynamo.State
		opts link.ContactOptions
		want link.Status
	}{
		{"open", dynamo.State{0, 0.1, 0}, dynamo.State{0, -1, 0}, link.ContactOptions{}, link.Inactive},
		{"closed frictionless", dynamo.State{0, -1e-3, 0}, dynamo.State{0, 0, 0}, link.ContactOptions{}, link.Active},
		{"sticking", dynamo.State{0, 0, 0}, dynamo.State{0, 0, 0}, link.ContactOptions{Mu: 0.5, FrictionDirs: 1}, link.Sticking},
		{"sliding", dynamo.State{0, 0, 0}, dynamo.State{2, 0, 0}, link.ContactOptions{Mu: 0.5, FrictionDirs: 1}, link.Sliding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, c := dropped(t, tt.q, tt.u, tt.opts)
			ctrl.UpdateActivation(0)
			if got := c.Slots()[0].Status; got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTimeSteppingKeepsRestingContactClosed(t *testing.T) {
	_, c := dropped(t, dynamo.State{0, 1e-20, 0}, dynamo.State{0, 0, 0}, link.ContactOptions{})

	ts := New(TimeStepping, []link.Link{c}, link.DefaultTolerances(), nil)
	ts.UpdateActivation(5e-4)
	if got := c.Slots()[0].Status; got != link.Active {
		t.Errorf("expected %v, got %v", link.Active, got)
	}

	ev := New(EventDriven, []link.Link{c}, link.DefaultTolerances(), nil)
	ev.UpdateActivation(0)
	if got := c.Slots()[0].Status; got != link.Inactive {
		t.Errorf("expected strict gap predicate to open the slot, got %v", got)
	}
}

func TestSlidingKeepsDirection(t *testing.T) {
	ctrl, c := dropped(t, dynamo.State{0, 0, 0}, dynamo.State{2, 0, 0}, link.ContactOptions{Mu: 0.5, FrictionDirs: 1})
	ctrl.UpdateActivation(0)
	s := c.Slots()[0]
	if len(s.SlideDir) != 1 || math.Abs(math.Abs(s.SlideDir[0])-1) > 1e-12 {
		t.Fatalf("expected unit slide direction, got %v", s.SlideDir)
	}
	ind := ctrl.Indicators()
	if len(ind) != 2 || ctrl.IndicatorSize() != 2 {
		t.Fatalf("expected 2 indicators, got %d", len(ind))
	}
	if math.Abs(ind[1]-2) > 1e-12 {
		t.Errorf("expected slip speed 2 as indicator, got %v", ind[1])
	}
}

func TestIndicatorsFollowState(t *testing.T) {
	ctrl, c := dropped(t, dynamo.State{0, 0.25, 0}, dynamo.State{0, -1, 0}, link.ContactOptions{})
	ctrl.UpdateActivation(0)
	if got := ctrl.Indicators()[0]; math.Abs(got-0.25) > 1e-12 {
		t.Errorf("expected gap 0.25 as indicator, got %v", got)
	}

	s := c.Slots()[0]
	s.Status = link.Active
	s.La[0] = 9.81
	s.Gdd[0] = 0
	if got := ctrl.Indicators()[0]; got != 9.81 {
		t.Errorf("expected normal force as indicator, got %v", got)
	}
	s.La[0] = 0
	s.Gdd[0] = 3
	if got := ctrl.Indicators()[0]; got != -3 {
		t.Errorf("expected separating acceleration to flip the sign, got %v", got)
	}
}

func TestDecide(t *testing.T) {
	ev := New(EventDriven, nil, link.DefaultTolerances(), nil)
	ts := New(TimeStepping, nil, link.DefaultTolerances(), nil)

	tests := []struct {
		name          string
		ctrl          *Controller
		before, after []float64
		converged     bool
		want          Decision
	}{
		{"no change", ev, []float64{1, 2}, []float64{0.5, 2}, true, Accept},
		{"gap crossing", ev, []float64{1, 2}, []float64{-0.1, 2}, true, Relocate},
		{"already negative", ev, []float64{-1}, []float64{-2}, true, Accept},
		{"not converged", ev, []float64{1}, []float64{1}, false, Reject},
		{"time stepping ignores crossings", ts, []float64{1}, []float64{-1}, true, Accept},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ctrl.Decide(tt.before, tt.after, tt.converged); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestClassifyImpact(t *testing.T) {
	ctrl, c := dropped(t, dynamo.State{0, -1e-12, 0}, dynamo.State{0, -3, 0}, link.ContactOptions{})
	trans, impact := ctrl.Classify()
	if !impact {
		t.Error("expected an impact")
	}
	if len(trans) != 1 || trans[0].To != link.Active || !trans[0].Impact {
		t.Errorf("expected one impact transition to active, got %+v", trans)
	}
	if !ctrl.Pending() {
		t.Error("expected pending transition before commit")
	}
	ctrl.Commit()
	if ctrl.Pending() {
		t.Error("expected no pending transition after commit")
	}

	// the impact resolved the approach velocity and the body lifts off
	c.Slots()[0].Gd[0] = 1
	trans = ctrl.AfterImpact()
	if len(trans) != 1 || trans[0].To != link.Inactive {
		t.Errorf("expected lift-off, got %+v", trans)
	}
}

func TestClassifyOpening(t *testing.T) {
	ctrl, c := dropped(t, dynamo.State{0, 0, 0}, dynamo.State{0, 0, 0}, link.ContactOptions{})
	ctrl.UpdateActivation(0)
	s := c.Slots()[0]
	s.La[0] = 0
	s.Gdd[0] = 2

	trans, impact := ctrl.Classify()
	if impact {
		t.Error("expected no impact")
	}
	if len(trans) != 1 || trans[0].To != link.Inactive {
		t.Errorf("expected contact to open, got %+v", trans)
	}
}

func TestClassifyStickToSlip(t *testing.T) {
	ctrl, c := dropped(t, dynamo.State{0, 0, 0}, dynamo.State{0, 0, 0}, link.ContactOptions{Mu: 0.2, FrictionDirs: 1})
	ctrl.UpdateActivation(0)
	s := c.Slots()[0]
	s.La[0], s.La[1] = 10, 2
	s.Gdd[0], s.Gdd[1] = 0, 0.5

	trans, _ := ctrl.Classify()
	if len(trans) != 1 || trans[0].To != link.Sliding {
		t.Fatalf("expected stick to slip, got %+v", trans)
	}
	if s.SlideDir[0] != 1 {
		t.Errorf("expected slide along the acceleration, got %v", s.SlideDir)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("timestepping"); err != nil || m != TimeStepping {
		t.Errorf("expected TimeStepping, got %v (%v)", m, err)
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestClassifyTouchingContact(t *testing.T) {
	tests := []struct {
		name string
		gdd  float64
		want link.Status
	}{
		{"pressed by gravity", -9.81, link.Active},
		{"lifting off", 1, link.Inactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, c := dropped(t, dynamo.State{0, 0, 0}, dynamo.State{0, 0, 0}, link.ContactOptions{})
			s := c.Slots()[0]
			s.Gdd[0] = tt.gdd
			_, impact := ctrl.Classify()
			if impact {
				t.Error("expected no impact at rest")
			}
			if s.Status != tt.want {
				t.Errorf("expected %v, got %v", tt.want, s.Status)
			}
		})
	}
}
