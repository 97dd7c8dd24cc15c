package storage

import (
	"encoding/json"
	"os"

	"github.com/san-kum/odeiv/internal/ivp"
)

// ExportData is the single-file JSON form of a stored run.
type ExportData struct {
	RunMetadata
	Samples int         `json:"samples"`
	Times   []float64   `json:"times"`
	States  [][]float64 `json:"states"`
}

// ExportJSON writes a run and its trajectory as one JSON document for
// consumption outside the tool.
func ExportJSON(path string, meta RunMetadata, traj *ivp.Trajectory) error {
	data := ExportData{
		RunMetadata: meta,
		Samples:     len(traj.T),
		Times:       traj.T,
		States:      traj.Y,
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
