package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/KungSimon/VillageOfTesting/internal/sim/tuning"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

// OutputManager writes per-day CSV telemetry for offline analysis.
type OutputManager struct {
	dir string

	mu            sync.Mutex
	daysFile      *os.File
	milestoneFile *os.File

	daysHeaderWritten      bool
	milestoneHeaderWritten bool
}

// NewOutputManager creates dir and the CSV files in it.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "days.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating days.csv: %w", err)
	}
	om.daysFile = f

	f, err = os.Create(filepath.Join(dir, "milestones.csv"))
	if err != nil {
		om.daysFile.Close()
		return nil, fmt.Errorf("creating milestones.csv: %w", err)
	}
	om.milestoneFile = f

	return om, nil
}

// WriteTuning saves the applied tuning as YAML next to the CSVs.
func (om *OutputManager) WriteTuning(t tuning.Tuning) error {
	if om == nil {
		return nil
	}
	b, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling tuning: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "tuning.yaml"), b, 0o644); err != nil {
		return fmt.Errorf("writing tuning.yaml: %w", err)
	}
	return nil
}

// WriteDay appends one row to days.csv and any milestones of the day.
func (om *OutputManager) WriteDay(e village.DayLogEntry) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()

	if err := writeRows(om.daysFile, []DayStats{StatsFromEntry(e)}, &om.daysHeaderWritten); err != nil {
		return fmt.Errorf("writing days: %w", err)
	}
	if ms := MilestonesFromEntry(e); len(ms) > 0 {
		if err := writeRows(om.milestoneFile, ms, &om.milestoneHeaderWritten); err != nil {
			return fmt.Errorf("writing milestones: %w", err)
		}
	}
	return nil
}

func writeRows(f *os.File, rows any, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(rows, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(rows, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()

	var firstErr error
	for _, f := range []*os.File{om.daysFile, om.milestoneFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
