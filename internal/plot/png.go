package plot

import (
	"fmt"
	"image/color"
	"math"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// SavePNG plots the named columns against x and writes a PNG.
func SavePNG(r *Recorder, x string, ys []string, title, path string) error {
	xs, err := r.Column(x)
	if err != nil {
		return err
	}
	p := gplot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Add(plotter.NewGrid())

	for i, name := range ys {
		vals, err := r.Column(name)
		if err != nil {
			return err
		}
		pts := make(plotter.XYs, 0, len(vals))
		for k := range vals {
			if math.IsNaN(vals[k]) || math.IsInf(vals[k], 0) || math.IsNaN(xs[k]) {
				continue
			}
			pts = append(pts, plotter.XY{X: xs[k], Y: vals[k]})
		}
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("column %s: %w", name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.2)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true
	p.BackgroundColor = color.White

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
