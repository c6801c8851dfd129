package system_test

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/contact"
	"github.com/san-kum/nonsmooth/internal/contour"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/event"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/models"
	"github.com/san-kum/nonsmooth/internal/system"
)

func groundPair(t *testing.T, tree *kinematics.Tree, name string) *contact.Pair {
	t.Helper()
	ball := tree.AddBody(kinematics.Body{
		Name:      name,
		Parent:    kinematics.World,
		TransAxes: []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}},
		Mass:      1,
	})
	ground := tree.AddFrame(kinematics.NoBody, name+".ground", mgl64.Vec3{},
		mgl64.HomogRotate3D(math.Pi/2, mgl64.Vec3{0, 0, 1}).Mat3())
	pair, err := contact.NewPair(name, contour.NewPlane("plane", ground), contour.NewPoint(name, tree.Body(ball).Frame()))
	if err != nil {
		t.Fatalf("pair failed: %v", err)
	}
	return pair
}

func TestInitRejectsDuplicateLinkNames(t *testing.T) {
	tree := kinematics.NewTree()
	sys := system.New("dup", tree, system.DefaultOptions())
	sys.AddLink(link.NewContact("contact", groundPair(t, tree, "a"), link.ContactOptions{}))
	sys.AddLink(link.NewContact("contact", groundPair(t, tree, "b"), link.ContactOptions{}))

	err := sys.Init()
	var cfgErr *dynamo.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Link != "contact" {
		t.Errorf("expected link contact, got %s", cfgErr.Link)
	}
	if sys.Initialized() {
		t.Error("expected system to stay uninitialized")
	}
}

func TestInitRejectsInvalidSolverConfig(t *testing.T) {
	opts := system.DefaultOptions()
	opts.Solver.MaxIter = 0
	sys := system.New("bad", kinematics.NewTree(), opts)
	if err := sys.Init(); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestEvaluationBeforeInit(t *testing.T) {
	tree := kinematics.NewTree()
	sys := system.New("lazy", tree, system.DefaultOptions())
	sys.AddLink(link.NewContact("contact", groundPair(t, tree, "a"), link.ContactOptions{}))

	_, _, err := sys.Derivative(0, dynamo.State{0, 1}, dynamo.State{0, 0})
	if !errors.Is(err, dynamo.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestRestingContactCarriesWeight(t *testing.T) {
	m, err := models.Build("drop", system.DefaultOptions(), models.Params{"height": 0, "mass": 2})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	sys := m.System

	u, err := sys.ResetUponEvent(0, m.Q0, m.U0)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	sl := sys.Contacts()[0].Slots()[0]
	if sl.Status != link.Active {
		t.Fatalf("expected active contact, got %s", sl.Status)
	}
	if u.MaxAbs() != 0 {
		t.Errorf("expected no velocity jump, got %v", u)
	}

	la, converged, err := sys.ComputeConstraintForces(0, m.Q0, u)
	if err != nil || !converged {
		t.Fatalf("force solve failed: converged=%v err=%v", converged, err)
	}
	if len(la) != 1 || math.Abs(la[0]-2*9.81) > 1e-9 {
		t.Errorf("expected la = [19.62], got %v", la)
	}

	_, ud, err := sys.Derivative(0, m.Q0, u)
	if err != nil {
		t.Fatalf("derivative failed: %v", err)
	}
	if ud.MaxAbs() > 1e-9 {
		t.Errorf("expected zero acceleration, got %v", ud)
	}
}

func TestOpenContactIsNotInForceProblem(t *testing.T) {
	m, err := models.Build("drop", system.DefaultOptions(), models.Params{"height": 1})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	la, _, err := m.System.ComputeConstraintForces(0, m.Q0, m.U0)
	if err != nil {
		t.Fatalf("force solve failed: %v", err)
	}
	if len(la) != 0 {
		t.Errorf("expected empty force vector, got %v", la)
	}
	sl := m.System.Contacts()[0].Slots()[0]
	if math.Abs(sl.Gdd[0]+9.81) > 1e-12 {
		t.Errorf("expected free fall gdd = -9.81, got %f", sl.Gdd[0])
	}
}

func TestComputeImpulsesBalancesGravity(t *testing.T) {
	opts := system.DefaultOptions()
	opts.Mode = event.TimeStepping
	m, err := models.Build("drop", opts, models.Params{"height": 0})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	dt := 0.01
	du, converged, err := m.System.ComputeImpulses(0, m.Q0, m.U0, dt)
	if err != nil || !converged {
		t.Fatalf("impulse solve failed: converged=%v err=%v", converged, err)
	}
	if du.MaxAbs() > 1e-12 {
		t.Errorf("expected no velocity increment, got %v", du)
	}
	sl := m.System.Contacts()[0].Slots()[0]
	if math.Abs(sl.Impulse[0]-9.81*dt) > 1e-12 {
		t.Errorf("expected impulse %f, got %f", 9.81*dt, sl.Impulse[0])
	}
	if math.Abs(sl.La[0]-9.81) > 1e-9 {
		t.Errorf("expected la 9.81, got %f", sl.La[0])
	}
}

func TestComputeImpulsesRejectsNonPositiveStep(t *testing.T) {
	opts := system.DefaultOptions()
	opts.Mode = event.TimeStepping
	m, err := models.Build("drop", opts, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if _, _, err := m.System.ComputeImpulses(0, m.Q0, m.U0, 0); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestProjectionClosesJoint(t *testing.T) {
	m, err := models.Build("chain", system.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	sys := m.System
	n := len(m.Q0)

	q := m.Q0.Clone()
	q[n-2] += 0.02
	q[n-1] -= 0.01
	q, err = sys.ProjectPositions(0, q, m.U0)
	if err != nil {
		t.Fatalf("position projection failed: %v", err)
	}

	u := m.U0.Clone()
	u[n-1] = 0.3
	u, err = sys.ProjectVelocities(0, q, u)
	if err != nil {
		t.Fatalf("velocity projection failed: %v", err)
	}

	if _, _, err := sys.ComputeConstraintForces(0, q, u); err != nil {
		t.Fatalf("force solve failed: %v", err)
	}
	joint := sys.Link("joint").Slots()[0]
	for d := range joint.G {
		if math.Abs(joint.G[d]) > sys.Options().Solver.GTol {
			t.Errorf("direction %d: expected |g| <= gTol, got %g", d, joint.G[d])
		}
		if math.Abs(joint.Gd[d]) > 1e-9 {
			t.Errorf("direction %d: expected gd = 0, got %g", d, joint.Gd[d])
		}
	}
}

func TestCommitRecordsOutputs(t *testing.T) {
	m, err := models.Build("hydraulic", system.DefaultOptions(), models.Params{"q1": 2e-4, "q2": 1e-4})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	sys := m.System
	if sys.QSize() != 2 || sys.USize() != 2 {
		t.Fatalf("expected 2 coordinates, got q=%d u=%d", sys.QSize(), sys.USize())
	}
	if err := sys.Commit(0, m.Q0, m.U0, 0); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	tests := []struct {
		column string
		want   float64
	}{
		{"supply1.Q", 2e-4},
		{"supply2.Q", 1e-4},
		{"collector.Q", 3e-4},
		{"outlet.Q", 3e-4},
	}
	for _, tt := range tests {
		col, err := sys.Recorder().Column(tt.column)
		if err != nil {
			t.Errorf("%s: %v", tt.column, err)
			continue
		}
		if math.Abs(col[0]-tt.want) > 1e-15 {
			t.Errorf("%s: expected %g, got %g", tt.column, tt.want, col[0])
		}
	}
}

func TestCommitBeforeInit(t *testing.T) {
	sys := system.New("lazy", kinematics.NewTree(), system.DefaultOptions())
	if err := sys.Commit(0, nil, nil, 0); !errors.Is(err, dynamo.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}
