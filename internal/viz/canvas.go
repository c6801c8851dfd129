package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a Braille dot canvas of Width x Height cells, i.e.
// 2*Width x 4*Height dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (int, int) { return 2 * c.Width, 4 * c.Height }

// Set turns on the dot at (x, y); dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle outlines a circle of radius r dots.
func (c *Canvas) DrawCircle(cx, cy, r int) {
	if r <= 0 {
		c.Set(cx, cy)
		return
	}
	n := 8 * r
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		c.Set(cx+int(math.Round(float64(r)*math.Cos(a))), cy+int(math.Round(float64(r)*math.Sin(a))))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps the world x-y plane onto canvas dots with equal scaling on
// both axes. Braille dots are close to square. World y points up.
type Viewport struct {
	MinX, MinY, MaxX, MaxY float64
	w, h                   int
	scale                  float64
	ox, oy                 float64
}

// Fit returns a viewport showing the box [minX, maxX] x [minY, maxY] with a
// margin of five percent on a canvas of w x h dots.
func Fit(minX, minY, maxX, maxY float64, w, h int) Viewport {
	if maxX-minX < 1e-9 {
		minX, maxX = minX-0.5, maxX+0.5
	}
	if maxY-minY < 1e-9 {
		minY, maxY = minY-0.5, maxY+0.5
	}
	mx, my := 0.05*(maxX-minX), 0.05*(maxY-minY)
	minX, maxX, minY, maxY = minX-mx, maxX+mx, minY-my, maxY+my

	sx := float64(w-1) / (maxX - minX)
	sy := float64(h-1) / (maxY - minY)
	scale := math.Min(sx, sy)
	v := Viewport{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY, w: w, h: h, scale: scale}
	v.ox = (float64(w-1) - scale*(maxX-minX)) / 2
	v.oy = (float64(h-1) - scale*(maxY-minY)) / 2
	return v
}

// Project returns the dot coordinates of the world point (x, y).
func (v Viewport) Project(x, y float64) (int, int) {
	px := v.ox + v.scale*(x-v.MinX)
	py := float64(v.h-1) - v.oy - v.scale*(y-v.MinY)
	return int(math.Round(px)), int(math.Round(py))
}

// Length converts a world length to dots along x.
func (v Viewport) Length(l float64) int { return int(math.Round(v.scale * l)) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
