// Package storage persists integration runs as one directory per run
// holding metadata.json and states.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/odeiv/internal/ivp"
)

type Store struct {
	baseDir string
	log     *slog.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, log: slog.Default()}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes how a stored trajectory was produced.
type RunMetadata struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Stepper   string    `json:"stepper"`
	Control   string    `json:"control"`
	T0        float64   `json:"t0"`
	T1        float64   `json:"t1"`
	HStart    float64   `json:"hstart"`
	EpsAbs    float64   `json:"eps_abs"`
	EpsRel    float64   `json:"eps_rel"`
	Dim       int       `json:"dim"`
	Steps     uint64    `json:"steps"`
	Failed    uint64    `json:"failed_steps"`
}

// Save writes one run directory and returns its ID, generated from
// the model name and wall clock unless meta.ID is already set. Values
// go to the CSV in full precision so analysis of a reloaded run sees
// the exact computed states.
func (s *Store) Save(meta RunMetadata, traj *ivp.Trajectory) (string, error) {
	runID := meta.ID
	if runID == "" {
		runID = fmt.Sprintf("%s_%d", meta.Model, time.Now().Unix())
	}
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Dim = traj.Dim()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"time"}
	for i := 0; i < traj.Dim(); i++ {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for k := range traj.T {
		row := make([]string, 0, 1+traj.Dim())
		row = append(row, strconv.FormatFloat(traj.T[k], 'g', -1, 64))
		for _, v := range traj.Y[k] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	s.log.Debug("run saved", "id", runID, "samples", len(traj.T))
	return runID, w.Error()
}

// List returns the metadata of every readable run, skipping damaged
// directories.
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
		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			s.log.Warn("skipping run without metadata", "run", entry.Name(), "err", err)
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			s.log.Warn("skipping run with damaged metadata", "run", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrajectory reads states.csv back into memory.
func (s *Store) LoadTrajectory(runID string) (*ivp.Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return &ivp.Trajectory{}, nil
	}

	traj := &ivp.Trajectory{
		T: make([]float64, 0, len(records)-1),
		Y: make([][]float64, 0, len(records)-1),
	}
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("run %s: bad time %q: %w", runID, record[0], err)
		}
		y := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: bad value %q: %w", runID, field, err)
			}
			y[j] = v
		}
		traj.T = append(traj.T, t)
		traj.Y = append(traj.Y, y)
	}
	return traj, nil
}
