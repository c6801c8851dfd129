package contact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/nonsmooth/internal/contour"
	"github.com/san-kum/nonsmooth/internal/dynamo"
	"github.com/san-kum/nonsmooth/internal/kinematics"
	"gonum.org/v1/gonum/mat"
)

// Point is one resolved contact between two contours.
type Point struct {
	// Valid is false when the slot has no contact this step.
	Valid    bool
	Gap      float64
	Position mgl64.Vec3 // on contour B
	// Normal, Tangent1 and Tangent2 form a right-handed contact frame; the
	// normal points from A towards B.
	Normal, Tangent1, Tangent2 mgl64.Vec3
	// J maps u to the relative velocity of B with respect to A in contact
	// coordinates (normal, tangent1, tangent2). W = J^T.
	J *mat.Dense
	// Velocity is J*u; Bias is the relative acceleration at zero udot.
	Velocity mgl64.Vec3
	Bias     mgl64.Vec3
}

// Pair binds two contours to the pairing function for their kinds.
type Pair struct {
	Name    string
	A, B    contour.Contour
	p       pairing
	swapped bool
	params  []float64
}

// NewPair looks up the pairing for (A, B). An unsupported combination is a
// configuration error.
func NewPair(name string, a, b contour.Contour) (*Pair, error) {
	p, swapped, ok := lookup(a.Kind(), b.Kind())
	if !ok {
		return nil, &dynamo.ConfigurationError{Link: name, Reason: "no pairing for " + a.Kind().String() + "-" + b.Kind().String()}
	}
	params := make([]float64, p.slots)
	for i := range params {
		params[i] = math.NaN()
	}
	return &Pair{Name: name, A: a, B: b, p: p, swapped: swapped, params: params}, nil
}

// Slots is the maximum number of simultaneous contacts of this pair.
func (p *Pair) Slots() int { return p.p.slots }

// Resolve computes every slot of the pair from the two frame states. A
// search failure marks the affected slot invalid, keeps its warm start and
// is returned as a *dynamo.SearchError alongside the points.
func (p *Pair) Resolve(sa, sb kinematics.FrameState, cfg SearchConfig) ([]Point, error) {
	s := &searcher{cfg: cfg, pair: p.Name}
	var geo []Geometry
	var err error
	if p.swapped {
		geo, err = p.p.eval(p.B, p.A, sb, sa, p.params, s)
		for i := range geo {
			g := &geo[i]
			g.PosA, g.PosB = g.PosB, g.PosA
			g.Normal = g.Normal.Mul(-1)
			g.NormalRate = g.NormalRate.Mul(-1)
		}
	} else {
		geo, err = p.p.eval(p.A, p.B, sa, sb, p.params, s)
	}

	_, n := sa.JT.Dims()
	out := make([]Point, p.p.slots)
	for i := range out {
		if i >= len(geo) || !geo[i].Valid {
			out[i] = Point{J: mat.NewDense(3, n, nil)}
			continue
		}
		out[i] = finish(geo[i], sa, sb)
	}
	return out, err
}

// basis completes n to a right-handed frame, preferring hint as first tangent.
func basis(n, hint mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	t := hint.Sub(n.Mul(n.Dot(hint)))
	if t.Len() < 1e-9 {
		e := mgl64.Vec3{1, 0, 0}
		if math.Abs(n[0]) > 0.9 {
			e = mgl64.Vec3{0, 1, 0}
		}
		t = e.Sub(n.Mul(n.Dot(e)))
	}
	t = t.Normalize()
	return t, n.Cross(t)
}

func finish(g Geometry, sa, sb kinematics.FrameState) Point {
	n := g.Normal.Normalize()
	t1, t2 := basis(n, g.Tangent)

	a := sa.Shift(g.PosA)
	b := sb.Shift(g.PosB)
	rel := mat.DenseCopyOf(b.JT)
	rel.Sub(rel, a.JT)

	_, cols := rel.Dims()
	J := mat.NewDense(3, cols, nil)
	for r, d := range [3]mgl64.Vec3{n, t1, t2} {
		for c := 0; c < cols; c++ {
			J.Set(r, c, d[0]*rel.At(0, c)+d[1]*rel.At(1, c)+d[2]*rel.At(2, c))
		}
	}

	vrel := b.Velocity.Sub(a.Velocity)
	arel := b.BiasT.Sub(a.BiasT)
	bias := mgl64.Vec3{n.Dot(arel) + g.NormalRate.Dot(vrel), t1.Dot(arel), t2.Dot(arel)}

	return Point{
		Valid:    true,
		Gap:      g.Gap,
		Position: g.PosB,
		Normal:   n,
		Tangent1: t1,
		Tangent2: t2,
		J:        J,
		Velocity: mgl64.Vec3{n.Dot(vrel), t1.Dot(vrel), t2.Dot(vrel)},
		Bias:     bias,
	}
}
