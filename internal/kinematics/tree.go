package kinematics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Context is the per-step view of the time and state the tree evaluates at.
type Context struct {
	T float64
	Q dynamo.State
	U dynamo.State
}

// Tree is the arena of bodies, frames and flow lines of one system.
type Tree struct {
	bodies []*Body
	frames []*Frame
	lines  []*FlowLine

	order     []int // topological order of graph nodes
	qSize     int
	uSize     int
	assembled bool

	ctx         Context
	world       FrameState
	evaluations int
}

// NewTree returns a tree holding only the inertial frame.
func NewTree() *Tree {
	return &Tree{
		frames: []*Frame{{Name: "I", Body: NoBody, Orientation: mgl64.Ident3()}},
	}
}

// AddBody adds b and its reference frame and returns its handle.
func (t *Tree) AddBody(b Body) BodyID {
	id := BodyID(len(t.bodies))
	if b.Orientation == (mgl64.Mat3{}) {
		b.Orientation = mgl64.Ident3()
	}
	nb := b
	nb.children = nil
	nb.frames = nil
	t.bodies = append(t.bodies, &nb)
	nb.frame = t.AddFrame(id, b.Name+".C", mgl64.Vec3{}, mgl64.Ident3())
	t.assembled = false
	return id
}

// AddFrame attaches a frame to body (NoBody for the inertial system).
func (t *Tree) AddFrame(body BodyID, name string, pos mgl64.Vec3, orient mgl64.Mat3) FrameID {
	if orient == (mgl64.Mat3{}) {
		orient = mgl64.Ident3()
	}
	id := FrameID(len(t.frames))
	t.frames = append(t.frames, &Frame{Name: name, Body: body, Position: pos, Orientation: orient, dirty: true})
	if body != NoBody && int(body) < len(t.bodies) {
		t.bodies[body].frames = append(t.bodies[body].frames, id)
	}
	return id
}

// AddLine adds a flow line and returns its handle.
func (t *Tree) AddLine(l FlowLine) LineID {
	id := LineID(len(t.lines))
	nl := l
	t.lines = append(t.lines, &nl)
	t.assembled = false
	return id
}

func (t *Tree) Body(id BodyID) *Body       { return t.bodies[id] }
func (t *Tree) FrameDef(id FrameID) *Frame { return t.frames[id] }
func (t *Tree) Line(id LineID) *FlowLine   { return t.lines[id] }
func (t *Tree) NumBodies() int             { return len(t.bodies) }
func (t *Tree) NumLines() int              { return len(t.lines) }
func (t *Tree) QSize() int                 { return t.qSize }
func (t *Tree) USize() int                 { return t.uSize }
func (t *Tree) Assembled() bool            { return t.assembled }
func (t *Tree) Evaluations() int           { return t.evaluations }
func (t *Tree) Context() Context           { return t.ctx }

// FrameByName looks up a frame by its name.
func (t *Tree) FrameByName(name string) (FrameID, bool) {
	for i, f := range t.frames {
		if f.Name == name {
			return FrameID(i), true
		}
	}
	return 0, false
}

// Indices returns the coordinate ranges of a body.
func (t *Tree) Indices(id BodyID) (qInd, uInd, size int) {
	b := t.bodies[id]
	return b.qInd, b.uInd, b.DOF()
}

// LineIndices returns the coordinate ranges of a flow line.
func (t *Tree) LineIndices(id LineID) (qInd, uInd, size int) {
	l := t.lines[id]
	return l.qInd, l.uInd, l.uSize
}

func (t *Tree) bodyNode(id BodyID) int64 { return int64(id) }
func (t *Tree) lineNode(id LineID) int64 { return int64(len(t.bodies) + int(id)) }

func (t *Tree) nodeName(n int64) string {
	if int(n) < len(t.bodies) {
		return t.bodies[n].Name
	}
	return t.lines[int(n)-len(t.bodies)].Name
}

// Assemble validates the dependency graph, assigns index ranges in
// declaration order and computes flow-line Jacobians in topological order.
// Calling it again after the topology changed reassigns everything.
func (t *Tree) Assemble() error {
	g := simple.NewDirectedGraph()
	for i := range t.bodies {
		g.AddNode(simple.Node(t.bodyNode(BodyID(i))))
	}
	for i := range t.lines {
		g.AddNode(simple.Node(t.lineNode(LineID(i))))
	}
	for i := range t.bodies {
		t.bodies[i].children = nil
	}
	for i, b := range t.bodies {
		if int(b.Parent) < 0 || int(b.Parent) >= len(t.frames) {
			return &dynamo.AssemblyError{Element: b.Name, Wrapped: fmt.Errorf("%w: unknown parent frame %d", dynamo.ErrInvalidState, b.Parent)}
		}
		owner := t.frames[b.Parent].Body
		if owner == NoBody {
			continue
		}
		if owner == BodyID(i) {
			return &dynamo.AssemblyError{Element: b.Name, Cycle: []string{b.Name}, Wrapped: dynamo.ErrCyclicDependency}
		}
		g.SetEdge(g.NewEdge(simple.Node(t.bodyNode(owner)), simple.Node(t.bodyNode(BodyID(i)))))
		t.bodies[owner].children = append(t.bodies[owner].children, BodyID(i))
	}
	for i, l := range t.lines {
		for _, d := range l.DependsOn {
			if int(d.Line) < 0 || int(d.Line) >= len(t.lines) {
				return &dynamo.AssemblyError{Element: l.Name, Wrapped: fmt.Errorf("%w: unknown dependency %d", dynamo.ErrInvalidState, d.Line)}
			}
			if d.Line == LineID(i) {
				return &dynamo.AssemblyError{Element: l.Name, Cycle: []string{l.Name}, Wrapped: dynamo.ErrCyclicDependency}
			}
			g.SetEdge(g.NewEdge(simple.Node(t.lineNode(d.Line)), simple.Node(t.lineNode(LineID(i)))))
		}
	}

	sorted, err := topo.SortStabilized(g, byID)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) && len(cycles) > 0 {
			var names []string
			for _, n := range cycles[0] {
				names = append(names, t.nodeName(n.ID()))
			}
			sort.Strings(names)
			return &dynamo.AssemblyError{Element: names[0], Cycle: names, Wrapped: dynamo.ErrCyclicDependency}
		}
		return &dynamo.AssemblyError{Wrapped: err}
	}
	t.order = t.order[:0]
	for _, n := range sorted {
		t.order = append(t.order, int(n.ID()))
	}

	// sizes are known locally for bodies and root lines; dependent lines
	// contribute nothing of their own
	idx := 0
	for _, b := range t.bodies {
		b.qInd, b.uInd = idx, idx
		idx += b.DOF()
	}
	for _, l := range t.lines {
		l.ready = false
		if len(l.DependsOn) == 0 {
			l.uSize = 1
		} else {
			l.uSize = 0
		}
		l.qInd, l.uInd = idx, idx
		idx += l.uSize
	}
	t.qSize, t.uSize = idx, idx
	if t.uSize == 0 {
		return &dynamo.AssemblyError{Element: "tree", Wrapped: fmt.Errorf("%w: no degrees of freedom", dynamo.ErrInvalidState)}
	}

	for _, n := range t.order {
		if n < len(t.bodies) {
			continue
		}
		if err := t.resolveLine(LineID(n - len(t.bodies))); err != nil {
			return err
		}
	}

	t.world = inertialState(t.uSize)
	t.ctx = Context{Q: make(dynamo.State, t.qSize), U: make(dynamo.State, t.uSize)}
	t.assembled = true
	t.invalidateAll()
	return nil
}

func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

// resolveLine aggregates the Jacobian of a line once all upstream lines are
// ready. Topological order guarantees they are.
func (t *Tree) resolveLine(id LineID) error {
	l := t.lines[id]
	J := NewRowJacobian(t.uSize)
	if len(l.DependsOn) == 0 {
		J.Set(0, l.uInd, 1)
	}
	for _, d := range l.DependsOn {
		up := t.lines[d.Line]
		if !up.ready {
			return &dynamo.AssemblyError{Element: l.Name, Wrapped: fmt.Errorf("%w: dependency %s not ready", dynamo.ErrInvalidState, up.Name)}
		}
		for j := 0; j < t.uSize; j++ {
			J.Set(0, j, J.At(0, j)+float64(d.Direction)*up.J.At(0, j))
		}
	}
	l.J = J
	l.ready = true
	return nil
}

// SetState installs a new evaluation context and invalidates every cache.
func (t *Tree) SetState(ctx Context) error {
	if !t.assembled {
		return dynamo.ErrNotInitialized
	}
	if len(ctx.Q) != t.qSize || len(ctx.U) != t.uSize {
		return fmt.Errorf("%w: q %d/%d, u %d/%d", dynamo.ErrDimensionMismatch, len(ctx.Q), t.qSize, len(ctx.U), t.uSize)
	}
	t.ctx = ctx
	t.invalidateAll()
	return nil
}

func (t *Tree) invalidateAll() {
	for _, b := range t.bodies {
		b.dirty = true
	}
	for _, f := range t.frames {
		f.dirty = true
	}
}

// Invalidate marks a body, its frames and every downstream body stale.
func (t *Tree) Invalidate(id BodyID) {
	b := t.bodies[id]
	b.dirty = true
	for _, f := range b.frames {
		t.frames[f].dirty = true
	}
	for _, c := range b.children {
		t.Invalidate(c)
	}
}

// Frame returns the state of frame id at the current context, recomputing
// the owning body chain if it is stale.
func (t *Tree) Frame(id FrameID) FrameState {
	f := t.frames[id]
	if f.Body == NoBody {
		if f.dirty {
			f.state = attach(t.world, f.Position, f.Orientation)
			f.dirty = false
		}
		return f.state
	}
	t.ensureBody(f.Body)
	if f.dirty {
		b := t.bodies[f.Body]
		ref := t.frames[b.frame]
		if id == b.frame {
			f.dirty = false
			return ref.state
		}
		f.state = attach(ref.state, f.Position, f.Orientation)
		f.dirty = false
	}
	return f.state
}

func (t *Tree) ensureBody(id BodyID) {
	b := t.bodies[id]
	if !b.dirty {
		return
	}
	parent := t.Frame(b.Parent)
	ref := t.frames[b.frame]
	ref.state = b.propagate(parent, t.ctx.Q, t.ctx.U)
	ref.dirty = false
	b.dirty = false
	t.evaluations++
}
