package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/nonsmooth/internal/plot"
	"github.com/san-kum/nonsmooth/internal/sim"
)

const (
	metadataFile = "metadata.json"
	columnsFile  = "columns.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Timestamp   time.Time          `json:"timestamp"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Mode        string             `json:"mode"`
	Params      map[string]float64 `json:"params,omitempty"`
	Steps       int                `json:"steps"`
	Events      []float64          `json:"events,omitempty"`
	Unconverged int                `json:"unconverged"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and the recorded columns of one run. ID and
// Timestamp of meta are filled in.
func (s *Store) Save(meta RunMetadata, result *sim.Result, rec *plot.Recorder) (string, error) {
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Model, meta.Timestamp.UnixNano())
	if result != nil {
		meta.Steps = result.StepsTaken
		meta.Events = result.Events
		meta.Unconverged = result.Unconverged
		meta.Metrics = result.Metrics
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := WriteCSV(filepath.Join(runDir, columnsFile), rec); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// WriteCSV writes the columns of rec with a header row. Values keep full
// precision.
func WriteCSV(path string, rec *plot.Recorder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(rec.Columns()); err != nil {
		return err
	}
	for i := 0; i < rec.Len(); i++ {
		row := rec.Row(i)
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadColumns reads the recorded columns of a run back into a recorder.
func (s *Store) LoadColumns(runID string) (*plot.Recorder, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, columnsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	rec := plot.NewRecorder()
	if len(records) == 0 {
		return rec, nil
	}
	header := records[0]
	for i, record := range records[1:] {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", columnsFile, i+1, header[j], err)
			}
			rec.Append(header[j], v)
		}
		rec.EndRow()
	}
	return rec, nil
}

// Latest returns the ID of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in %s", s.baseDir)
	}
	return runs[len(runs)-1].ID, nil
}
