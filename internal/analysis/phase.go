package analysis

import (
	"fmt"
	"math"
	"strings"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D holds two recorded columns against each other.
type PhasePortrait2D struct {
	XName, YName string
	Points       []Point
}

// PhasePortrait pairs two columns of equal length. Rows where either value
// is NaN are skipped.
func PhasePortrait(xName string, x []float64, yName string, y []float64) (*PhasePortrait2D, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("columns %s and %s differ in length: %d vs %d", xName, yName, len(x), len(y))
	}
	portrait := &PhasePortrait2D{XName: xName, YName: yName, Points: make([]Point, 0, len(x))}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		portrait.Points = append(portrait.Points, Point{x[i], y[i]})
	}
	return portrait, nil
}

func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)
	col := func(x float64) int { return int((x - minX) / (maxX - minX) * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/(maxY-minY)*float64(height-1)) }

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	// axes first so the trajectory draws over them
	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := range canvas {
			canvas[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := range canvas[r] {
			canvas[r][c] = '─'
		}
	}
	for _, p := range portrait.Points {
		r, c := row(p.Y), col(p.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// pad widens [lo, hi] by a tenth on both sides.
func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - 0.1*span, hi + 0.1*span
}

// Section collects (x, y) at every upward crossing of trigger through
// level, interpolated between the two rows that bracket it. A bouncing
// contact sampled at the rebound gives its return map.
func Section(trigger, x, y []float64, level float64) []Point {
	n := min(len(trigger), len(x), len(y))
	var out []Point
	for i := 1; i < n; i++ {
		prev, curr := trigger[i-1], trigger[i]
		if !(prev < level && curr >= level) {
			continue
		}
		frac := (level - prev) / (curr - prev)
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		out = append(out, Point{
			X: x[i-1] + frac*(x[i]-x[i-1]),
			Y: y[i-1] + frac*(y[i]-y[i-1]),
		})
	}
	return out
}

// SectionToASCII renders section points like a phase portrait.
func SectionToASCII(points []Point, width, height int) string {
	if len(points) == 0 {
		return "No crossings detected"
	}
	return PhasePortraitToASCII(&PhasePortrait2D{Points: points}, width, height)
}
