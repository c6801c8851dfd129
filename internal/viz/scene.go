package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"github.com/san-kum/nonsmooth/internal/link"
	"github.com/san-kum/nonsmooth/internal/system"
)

// Scene is the drawable geometry of a system at one instant.
type Scene struct {
	Bodies   []mgl64.Vec3
	Bonds    [][2]int // body pairs joined through the tree
	Contacts []ContactMark
}

// ContactMark is one contact slot.
type ContactMark struct {
	Name     string
	Position mgl64.Vec3
	Gap      float64
	Present  bool
	Status   link.Status
}

// Capture evaluates body positions at (t, q, u) and reads the contact slots
// from the last system update.
func Capture(sys *system.System, t float64, q, u dynamo.State) (Scene, error) {
	tree := sys.Tree()
	if err := tree.SetState(kinematics.Context{T: t, Q: q, U: u}); err != nil {
		return Scene{}, err
	}
	var sc Scene
	for i := 0; i < tree.NumBodies(); i++ {
		b := tree.Body(kinematics.BodyID(i))
		sc.Bodies = append(sc.Bodies, tree.Frame(b.Frame()).Position)
		if parent := tree.FrameDef(b.Parent).Body; parent != kinematics.NoBody {
			sc.Bonds = append(sc.Bonds, [2]int{int(parent), i})
		}
	}
	for _, c := range sys.Contacts() {
		pts := c.Points()
		for i, s := range c.Slots() {
			m := ContactMark{Name: c.Name(), Present: s.Present, Status: s.Status, Gap: math.NaN()}
			if s.Present {
				m.Gap = s.G[0]
			}
			if i < len(pts) && pts[i].Valid {
				m.Position = pts[i].Position
			} else {
				m.Present = false
			}
			sc.Contacts = append(sc.Contacts, m)
		}
	}
	return sc, nil
}

// Bounds is an axis-aligned box in the x-y plane.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
	set                    bool
}

func (b *Bounds) Add(p mgl64.Vec3) {
	if !b.set {
		b.MinX, b.MaxX, b.MinY, b.MaxY = p.X(), p.X(), p.Y(), p.Y()
		b.set = true
		return
	}
	b.MinX, b.MaxX = math.Min(b.MinX, p.X()), math.Max(b.MaxX, p.X())
	b.MinY, b.MaxY = math.Min(b.MinY, p.Y()), math.Max(b.MaxY, p.Y())
}

// Include grows b to contain every body and present contact point of sc.
func (b *Bounds) Include(sc Scene) {
	for _, p := range sc.Bodies {
		b.Add(p)
	}
	for _, c := range sc.Contacts {
		if c.Present {
			b.Add(c.Position)
		}
	}
}

func (b Bounds) Empty() bool { return !b.set }

// Draw renders sc on c inside the viewport of box.
func Draw(c *Canvas, sc Scene, box Bounds) {
	if box.Empty() {
		return
	}
	w, h := c.Dots()
	v := Fit(box.MinX, box.MinY, box.MaxX, box.MaxY, w, h)
	for _, bond := range sc.Bonds {
		x0, y0 := v.Project(sc.Bodies[bond[0]].X(), sc.Bodies[bond[0]].Y())
		x1, y1 := v.Project(sc.Bodies[bond[1]].X(), sc.Bodies[bond[1]].Y())
		c.DrawLine(x0, y0, x1, y1)
	}
	for _, p := range sc.Bodies {
		x, y := v.Project(p.X(), p.Y())
		c.DrawCircle(x, y, 2)
	}
	for _, m := range sc.Contacts {
		if !m.Present {
			continue
		}
		x, y := v.Project(m.Position.X(), m.Position.Y())
		c.DrawLine(x-3, y, x+3, y)
		if m.Status.Closed() {
			c.DrawLine(x, y-1, x, y+1)
		}
	}
}
