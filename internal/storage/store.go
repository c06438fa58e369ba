// Package storage persists optimization runs under a data directory: one
// subdirectory per run holding metadata JSON, the replayed trajectory, the
// optimized control sequences and the per-epoch loss curve as CSV.
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

	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/replay"
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

// RunMetadata carries everything needed to reproduce a run. Config is the
// effective scenario (physics, initial state, target, weights, barrier)
// after presets, config files and flag overrides were applied; re-simulation
// must start from it, not from defaults.
type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Config    *config.Config     `json:"config,omitempty"`
	Dt        float64            `json:"dt"`
	Horizon   int                `json:"horizon"`
	Epochs    int                `json:"epochs"`
	LR        float64            `json:"learning_rate"`
	FinalLoss float64            `json:"final_loss"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Scenario returns the stored effective config, falling back to the preset
// and then the defaults for runs archived before configs were persisted.
func (m RunMetadata) Scenario() *config.Config {
	if m.Config != nil {
		copied := *m.Config
		return &copied
	}
	if m.Preset != "" {
		if cfg := config.GetPreset(m.Preset); cfg != nil {
			return cfg
		}
	}
	return config.DefaultConfig()
}

// Run is everything persisted for one optimization.
type Run struct {
	Meta      RunMetadata
	Frames    []replay.Frame
	Left      []float64
	Right     []float64
	LossCurve []float64
}

func (s *Store) Save(run Run) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	run.Meta.ID = runID
	if run.Meta.Timestamp.IsZero() {
		run.Meta.Timestamp = time.Now()
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), run.Meta); err != nil {
		return "", err
	}
	if err := writeTrajectoryCSV(filepath.Join(runDir, "trajectory.csv"), run.Frames); err != nil {
		return "", err
	}
	if err := writeControlsCSV(filepath.Join(runDir, "controls.csv"), run.Left, run.Right); err != nil {
		return "", err
	}
	if err := writeLossCSV(filepath.Join(runDir, "loss.csv"), run.LossCurve); err != nil {
		return "", err
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (RunMetadata, error) {
	var meta RunMetadata
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

func (s *Store) LoadTrajectory(runID string) ([]replay.Frame, error) {
	rows, err := readCSV(filepath.Join(s.baseDir, runID, "trajectory.csv"), 9)
	if err != nil {
		return nil, err
	}

	frames := make([]replay.Frame, len(rows))
	for i, r := range rows {
		frames[i] = replay.Frame{
			T: r[0], X: r[1], VX: r[2], Y: r[3], VY: r[4],
			Theta: r[5], Omega: r[6], TL: r[7], TR: r[8],
		}
	}
	return frames, nil
}

func (s *Store) LoadControls(runID string) (left, right []float64, err error) {
	rows, err := readCSV(filepath.Join(s.baseDir, runID, "controls.csv"), 2)
	if err != nil {
		return nil, nil, err
	}
	left = make([]float64, len(rows))
	right = make([]float64, len(rows))
	for i, r := range rows {
		left[i], right[i] = r[0], r[1]
	}
	return left, right, nil
}

func (s *Store) LoadLossCurve(runID string) ([]float64, error) {
	rows, err := readCSV(filepath.Join(s.baseDir, runID, "loss.csv"), 1)
	if err != nil {
		return nil, err
	}
	curve := make([]float64, len(rows))
	for i, r := range rows {
		curve[i] = r[0]
	}
	return curve, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrajectoryCSV(path string, frames []replay.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"t", "x", "vx", "y", "vy", "theta", "omega", "thrust_l", "thrust_r"}); err != nil {
		return err
	}
	for _, fr := range frames {
		row := []string{
			formatFloat(fr.T), formatFloat(fr.X), formatFloat(fr.VX),
			formatFloat(fr.Y), formatFloat(fr.VY), formatFloat(fr.Theta),
			formatFloat(fr.Omega), formatFloat(fr.TL), formatFloat(fr.TR),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeControlsCSV(path string, left, right []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"thrust_l", "thrust_r"}); err != nil {
		return err
	}
	for i := range left {
		if err := w.Write([]string{formatFloat(left[i]), formatFloat(right[i])}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeLossCSV(path string, curve []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"loss"}); err != nil {
		return err
	}
	for _, l := range curve {
		if err := w.Write([]string{formatFloat(l)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readCSV(path string, cols int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([][]float64, 0, len(records)-1)
	for _, rec := range records[1:] { // skip header
		if len(rec) < cols {
			return nil, fmt.Errorf("storage: expected %d columns in %s, got %d", cols, path, len(rec))
		}
		row := make([]float64, cols)
		for i := 0; i < cols; i++ {
			row[i], err = strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
