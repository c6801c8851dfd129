// Package system ties the kinematic tree, the contact resolver, the links,
// the force solver and the event controller into the dynamic system an
// integration driver advances. It implements dynamo.EventSystem,
// dynamo.TimeSteppingSystem and dynamo.Committer.
package system

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/contact"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/event"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/logging"
	"github.com/san-kum/nonsmooth/internal/plot"
	"github.com/san-kum/nonsmooth/internal/solver"
	"gonum.org/v1/gonum/mat"
)

// maxResets bounds the re-classification loop of ResetUponEvent.
const maxResets = 10

type Options struct {
	Gravity mgl64.Vec3
	Solver  solver.Config
	Search  contact.SearchConfig
	Mode    event.Mode
	Logger  *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Gravity: mgl64.Vec3{0, -9.81, 0},
		Solver:  solver.DefaultConfig(),
		Search:  contact.DefaultSearchConfig(),
		Mode:    event.EventDriven,
	}
}

// Tolerances derives the link tolerances from the solver configuration.
func Tolerances(cfg solver.Config) link.Tolerances {
	return link.Tolerances{
		G:         cfg.GTol,
		Gd:        cfg.GdTol,
		Gdd:       cfg.GddTol,
		La:        cfg.LaTol,
		LaImpulse: cfg.LaImpulseTol,
	}
}

// Stats describes the last constraint solve.
type Stats struct {
	Level      solver.Level
	Size       int
	Iterations int
	Converged  bool
}

type System struct {
	name   string
	tree   *kinematics.Tree
	opts   Options
	logger *log.Logger

	links       []link.Link
	contacts    []*link.Contact
	connections []*link.Connection
	pairs       []*contact.Pair

	resolver *contact.Resolver
	solver   *solver.Solver
	events   *event.Controller
	recorder *plot.Recorder
	ctx      context.Context
	ready    bool

	// evaluation of the current context
	M      *mat.SymDense
	h      *mat.VecDense
	factor *solver.Factor
	udot   *mat.VecDense
	stats  Stats
	// unconverged latches any solve that stopped at its iteration limit
	// since the last ResetSolves.
	unconverged bool
}

func New(name string, tree *kinematics.Tree, opts Options) *System {
	return &System{
		name:     name,
		tree:     tree,
		opts:     opts,
		logger:   logging.OrDiscard(opts.Logger),
		recorder: plot.NewRecorder(),
		ctx:      context.Background(),
	}
}

// AddLink appends l. Declaration order is the solver sweep order.
func (s *System) AddLink(l link.Link) {
	s.links = append(s.links, l)
	s.ready = false
}

// Init assembles the tree, sizes every link and freezes the configuration.
func (s *System) Init() error {
	if err := s.opts.Solver.Validate(); err != nil {
		return fmt.Errorf("system %s: %w", s.name, err)
	}
	if err := s.opts.Search.Validate(); err != nil {
		return fmt.Errorf("system %s: %w", s.name, err)
	}
	if err := s.tree.Assemble(); err != nil {
		return fmt.Errorf("system %s: %w", s.name, err)
	}

	tol := Tolerances(s.opts.Solver)
	n := s.tree.USize()
	names := make(map[string]bool)
	s.contacts, s.connections, s.pairs = nil, nil, nil
	for _, l := range s.links {
		if names[l.Name()] {
			return &dynamo.ConfigurationError{Link: l.Name(), Reason: "duplicate link name"}
		}
		names[l.Name()] = true
		if err := l.Init(n, tol); err != nil {
			return err
		}
		switch l := l.(type) {
		case *link.Contact:
			s.contacts = append(s.contacts, l)
			s.pairs = append(s.pairs, l.Pair)
		case *link.Connection:
			s.connections = append(s.connections, l)
		}
	}

	s.resolver = contact.NewResolver(s.tree, s.opts.Search, s.logger)
	s.solver = solver.New(s.opts.Solver, s.logger)
	s.events = event.New(s.opts.Mode, s.links, tol, s.logger)
	s.ready = true

	s.logger.Info("system assembled", "name", s.name, "qSize", s.tree.QSize(), "uSize", n,
		"links", len(s.links), "contacts", len(s.contacts), "mode", s.opts.Mode)
	return nil
}

// SetContext sets the context contact resolution runs under.
func (s *System) SetContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
}

func (s *System) Name() string               { return s.name }
func (s *System) Tree() *kinematics.Tree     { return s.tree }
func (s *System) Links() []link.Link         { return s.links }
func (s *System) Events() *event.Controller  { return s.events }
func (s *System) Recorder() *plot.Recorder   { return s.recorder }
func (s *System) Options() Options           { return s.opts }
func (s *System) Stats() Stats               { return s.stats }

// ResetSolves clears the convergence latch. SolvesConverged reports whether
// every constraint solve since then converged.
func (s *System) ResetSolves()          { s.unconverged = false }
func (s *System) SolvesConverged() bool { return !s.unconverged }
func (s *System) Initialized() bool          { return s.ready }
func (s *System) QSize() int                 { return s.tree.QSize() }
func (s *System) USize() int                 { return s.tree.USize() }
func (s *System) Link(name string) link.Link { return s.find(name) }
func (s *System) Contacts() []*link.Contact  { return s.contacts }

func (s *System) find(name string) link.Link {
	for _, l := range s.links {
		if l.Name() == name {
			return l
		}
	}
	return nil
}

// update evaluates kinematics, contact geometry, link data and the smooth
// dynamics at (t, q, u).
func (s *System) update(t float64, q, u dynamo.State) error {
	if !s.ready {
		return fmt.Errorf("system %s: %w", s.name, dynamo.ErrNotInitialized)
	}
	if err := s.tree.SetState(kinematics.Context{T: t, Q: q, U: u}); err != nil {
		return err
	}
	points, err := s.resolver.Resolve(s.ctx, s.pairs)
	if err != nil {
		return err
	}
	for i, ct := range s.contacts {
		ct.SetPoints(points[i])
	}
	for _, l := range s.links {
		l.UpdateG(s.tree)
		l.UpdateGd(s.tree)
		l.UpdateW(s.tree)
	}

	M, h := s.tree.Dynamics(s.opts.Gravity)
	for _, l := range s.links {
		l.UpdateH(s.tree, h)
	}
	f, err := solver.Factorize(M)
	if err != nil {
		return fmt.Errorf("system %s at t=%g: %w", s.name, t, err)
	}
	s.M, s.h, s.factor = M, h, f
	return nil
}
