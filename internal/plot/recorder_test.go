package plot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestRecorderPadsLateColumns(t *testing.T) {
	r := NewRecorder()
	r.Append("t", 0)
	r.Append("g", 1)
	r.EndRow()
	r.Append("t", 0.1)
	r.Append("g", 0.5)
	r.Append("la", 9.81)
	r.EndRow()

	if got := r.Columns(); len(got) != 3 || got[2] != "la" {
		t.Fatalf("expected columns [t g la], got %v", got)
	}
	la, err := r.Column("la")
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(la[0]) || la[1] != 9.81 {
		t.Errorf("expected [NaN 9.81], got %v", la)
	}
	if row := r.Row(0); len(row) != 3 {
		t.Errorf("expected padded row, got %v", row)
	}
	if _, err := r.Column("missing"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestEndRowWithoutValues(t *testing.T) {
	r := NewRecorder()
	r.EndRow()
	if r.Len() != 0 {
		t.Errorf("expected no rows, got %d", r.Len())
	}
}

func TestSavePNG(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < 20; i++ {
		r.Append("t", float64(i)*0.1)
		r.Append("g", math.Sin(float64(i)*0.1))
		r.EndRow()
	}
	path := filepath.Join(t.TempDir(), "g.png")
	if err := SavePNG(r, "t", []string{"g"}, "gap", path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Errorf("expected non-empty png, got %v", err)
	}
}
