package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/nonsmooth/internal/plot"
	"github.com/san-kum/nonsmooth/internal/sim"
)

func sample() (*sim.Result, *plot.Recorder) {
	rec := plot.NewRecorder()
	rec.Append("t", 0)
	rec.Append("q0", 0.1)
	rec.EndRow()
	rec.Append("t", 0.001)
	rec.Append("q0", 0.0999951)
	rec.Append("contact.laN", 9.81)
	rec.EndRow()

	result := &sim.Result{
		Times:      []float64{0, 0.001},
		StepsTaken: 1,
		Events:     []float64{0.001},
		Metrics:    map[string]float64{"max_penetration": 1e-12},
	}
	return result, rec
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result, rec := sample()
	runID, err := st.Save(RunMetadata{Model: "drop", Dt: 0.001, Duration: 1, Integrator: "event-rk4", Mode: "event"}, result, rec)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "drop" {
		t.Errorf("expected model 'drop', got '%s'", meta.Model)
	}
	if meta.Steps != 1 || len(meta.Events) != 1 {
		t.Errorf("expected 1 step and 1 event, got %d and %d", meta.Steps, len(meta.Events))
	}
	if meta.Metrics["max_penetration"] != 1e-12 {
		t.Errorf("expected penetration 1e-12, got %g", meta.Metrics["max_penetration"])
	}

	loaded, err := st.LoadColumns(runID)
	if err != nil {
		t.Fatalf("load columns failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", loaded.Len())
	}
	q, err := loaded.Column("q0")
	if err != nil {
		t.Fatalf("column failed: %v", err)
	}
	if q[1] != 0.0999951 {
		t.Errorf("expected full precision 0.0999951, got %v", q[1])
	}
	la, _ := loaded.Column("contact.laN")
	if !math.IsNaN(la[0]) || la[1] != 9.81 {
		t.Errorf("expected [NaN 9.81], got %v", la)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
	if _, err := st.Latest(); err == nil {
		t.Error("expected error for empty store")
	}

	result, rec := sample()
	first, err := st.Save(RunMetadata{Model: "drop"}, result, rec)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(RunMetadata{Model: "slider"}, result, rec)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first {
		t.Errorf("expected %s first, got %s", first, runs[0].ID)
	}
	latest, err := st.Latest()
	if err != nil || latest != second {
		t.Errorf("expected latest %s, got %s (%v)", second, latest, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	result, rec := sample()

	runID, err := st.Save(RunMetadata{Model: "drop"}, result, rec)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "columns.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExportJSON(t *testing.T) {
	_, rec := sample()
	var buf bytes.Buffer
	if err := ExportJSON(&buf, RunMetadata{Model: "drop"}, rec); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	la := data.Columns["contact.laN"]
	if len(la) != 2 || la[0] != nil || la[1] == nil || *la[1] != 9.81 {
		t.Errorf("expected [null 9.81], got %v", la)
	}
	if data.Run.Model != "drop" {
		t.Errorf("expected model drop, got %s", data.Run.Model)
	}
}
