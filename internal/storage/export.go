package storage

import (
	"encoding/json"
	"io"
	"math"

	"github.com/san-kum/nonsmooth/internal/plot"
)

// ExportData is the JSON form of a run; NaN padding is encoded as null.
type ExportData struct {
	Run     RunMetadata           `json:"run"`
	Columns map[string][]*float64 `json:"columns"`
}

// ExportJSON writes a run and its columns to w.
func ExportJSON(w io.Writer, meta RunMetadata, rec *plot.Recorder) error {
	data := ExportData{Run: meta, Columns: make(map[string][]*float64)}

	for _, name := range rec.Columns() {
		col, err := rec.Column(name)
		if err != nil {
			return err
		}
		out := make([]*float64, len(col))
		for i := range col {
			if !math.IsNaN(col[i]) && !math.IsInf(col[i], 0) {
				out[i] = &col[i]
			}
		}
		data.Columns[name] = out
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
