// Package plot collects named output columns row by row and renders them.
package plot

import (
	"fmt"
	"math"
)

// Recorder appends values to named columns. A column that first appears in
// a later row is padded with NaN for the earlier rows.
type Recorder struct {
	columns []string
	index   map[string]int
	rows    [][]float64
	current []float64
	open    bool
}

func NewRecorder() *Recorder {
	return &Recorder{index: make(map[string]int)}
}

// Append sets a value in the current row.
func (r *Recorder) Append(column string, v float64) {
	if !r.open {
		r.current = make([]float64, len(r.columns))
		for i := range r.current {
			r.current[i] = math.NaN()
		}
		r.open = true
	}
	i, ok := r.index[column]
	if !ok {
		i = len(r.columns)
		r.index[column] = i
		r.columns = append(r.columns, column)
		r.current = append(r.current, math.NaN())
	}
	r.current[i] = v
}

// EndRow closes the current row.
func (r *Recorder) EndRow() {
	if !r.open {
		return
	}
	r.rows = append(r.rows, r.current)
	r.current = nil
	r.open = false
}

func (r *Recorder) Columns() []string { return r.columns }

func (r *Recorder) Len() int { return len(r.rows) }

// Row returns row i padded to the current column count.
func (r *Recorder) Row(i int) []float64 {
	row := r.rows[i]
	if len(row) == len(r.columns) {
		return row
	}
	out := make([]float64, len(r.columns))
	copy(out, row)
	for k := len(row); k < len(out); k++ {
		out[k] = math.NaN()
	}
	return out
}

// Column returns a copy of the named column.
func (r *Recorder) Column(name string) ([]float64, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown column: %s", name)
	}
	out := make([]float64, len(r.rows))
	for k, row := range r.rows {
		if i < len(row) {
			out[k] = row[i]
		} else {
			out[k] = math.NaN()
		}
	}
	return out, nil
}

// Rows returns all rows padded to the full width.
func (r *Recorder) Rows() [][]float64 {
	out := make([][]float64, len(r.rows))
	for i := range r.rows {
		out[i] = r.Row(i)
	}
	return out
}
