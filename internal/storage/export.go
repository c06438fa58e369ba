package storage

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
)

// ExportData is the flat JSON shape handed to external tools.
type ExportData struct {
	Meta      RunMetadata `json:"meta"`
	Times     []float64   `json:"times"`
	States    [][]float64 `json:"states"`
	Controls  [][]float64 `json:"controls"`
	LossCurve []float64   `json:"loss_curve"`
}

// ExportJSON writes a stored run as a single JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	left, right, err := s.LoadControls(runID)
	if err != nil {
		return err
	}
	curve, err := s.LoadLossCurve(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Meta:      meta,
		Times:     make([]float64, len(frames)),
		States:    make([][]float64, len(frames)),
		Controls:  make([][]float64, len(left)),
		LossCurve: curve,
	}
	for i, f := range frames {
		data.Times[i] = f.T
		data.States[i] = []float64{f.X, f.VX, f.Y, f.VY, f.Theta, f.Omega}
	}
	for i := range left {
		data.Controls[i] = []float64{left[i], right[i]}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV streams a run's stored trajectory CSV.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
