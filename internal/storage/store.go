// Package storage persists finished runs to disk: one directory per
// run holding metadata JSON and the flattened trajectory CSV.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/exolab/exomoon/internal/export"
	"github.com/exolab/exomoon/internal/params"
	"github.com/exolab/exomoon/internal/sim"
	"github.com/exolab/exomoon/internal/stability"
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

// RunMetadata describes one saved run. Report is nil for plain orbit
// runs that were never assessed for escape.
type RunMetadata struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	System    params.System     `json:"system"`
	Dt        float64           `json:"dt"`
	TEnd      float64           `json:"t_end"`
	Steps     int               `json:"steps"`
	Report    *stability.Report `json:"report,omitempty"`
}

// Save writes a run directory and returns its ID.
func (s *Store) Save(res *sim.Result, rep *stability.Report) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		System:    res.Params,
		Dt:        res.Dt,
		TEnd:      res.TEnd,
		Steps:     res.Traj.Steps(),
		Report:    rep,
	}

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

	csvFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := export.Build(res.Traj).WriteCSV(csvFile); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns metadata for every readable run directory. Unreadable
// entries are skipped rather than failing the listing.
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

// LoadFrame reads a saved trajectory CSV back into a frame.
func (s *Store) LoadFrame(runID string) (*export.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return nil, err
	}

	frame := &export.Frame{
		Columns: header,
		Data:    make(map[string][]float64, len(header)),
	}
	for _, col := range header {
		frame.Data[col] = []float64{}
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, col := range header {
			if i >= len(record) {
				continue
			}
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				continue
			}
			frame.Data[col] = append(frame.Data[col], v)
		}
	}
	return frame, nil
}
