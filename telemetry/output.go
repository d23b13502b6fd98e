package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/dol/components"
	"github.com/pthm-cable/dol/config"
)

// RunSummary is one row of dol.tsv: the parameters of a replicate followed
// by its DoL indices over the post burn-in window.
type RunSummary struct {
	Replicate        int     `csv:"repl"`
	ColonySize       int     `csv:"colony_size"`
	Model            string  `csv:"model"`
	Steepness        float64 `csv:"steepness"`
	ThresholdMean    float64 `csv:"threshold_mean"`
	ThresholdSD      float64 `csv:"threshold_sd"`
	MaxInteractions  int     `csv:"max_interactions"`
	ForagingTime     float64 `csv:"foraging_time"`
	FoodHandlingTime float64 `csv:"food_handling_time"`
	Gautrais         float64 `csv:"gautrais"`
	Duarte           float64 `csv:"duarte"`
	GorelickTasks    float64 `csv:"gorelick_tasks"`
	GorelickIndiv    float64 `csv:"gorelick_indiv"`
	GorelickBoth     float64 `csv:"gorelick_both"`
}

// NewRunSummary combines the recorded parameters with the indices of a run.
func NewRunSummary(replicate int, cfg *config.Config, d DoL) RunSummary {
	return RunSummary{
		Replicate:        replicate,
		ColonySize:       cfg.Colony.Size,
		Model:            cfg.Sharing.Model,
		Steepness:        cfg.Sharing.Steepness,
		ThresholdMean:    cfg.Threshold.Mean,
		ThresholdSD:      cfg.Threshold.SD,
		MaxInteractions:  cfg.Sharing.MaxInteractions,
		ForagingTime:     cfg.Foraging.ForagingTime,
		FoodHandlingTime: cfg.Foraging.FoodHandlingTime,
		Gautrais:         d.Gautrais,
		Duarte:           d.Duarte,
		GorelickTasks:    d.GorelickTasks,
		GorelickIndiv:    d.GorelickIndiv,
		GorelickBoth:     d.GorelickBoth,
	}
}

// AntRecord is one history entry in ants.tsv.
type AntRecord struct {
	Replicate int     `csv:"replicate"`
	ID        int     `csv:"ID"`
	Time      float64 `csv:"time"`
	Task      int     `csv:"task"`
	FatBody   float64 `csv:"fat_body"`
	Dominance float64 `csv:"dominance"`
}

// AntRecords flattens the histories of a replicate. dominance is indexed by
// agent ID, like histories.
func AntRecords(replicate int, histories [][]components.Record, dominance []float64) []AntRecord {
	var n int
	for _, h := range histories {
		n += len(h)
	}
	out := make([]AntRecord, 0, n)
	for id, h := range histories {
		for _, r := range h {
			out = append(out, AntRecord{
				Replicate: replicate,
				ID:        id,
				Time:      r.T,
				Task:      int(r.Task),
				FatBody:   r.FatBody,
				Dominance: dominance[id],
			})
		}
	}
	return out
}

// WindowRecord is one row of window.tsv.
type WindowRecord struct {
	Replicate int `csv:"repl"`
	DoL
}

// table is a tab-separated output file that writes its header once.
type table struct {
	name          string
	file          *os.File
	writer        *gocsv.SafeCSVWriter
	headerWritten bool
}

func openTable(dir, name string) (*table, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	w := csv.NewWriter(f)
	w.Comma = '\t'
	return &table{name: name, file: f, writer: gocsv.NewSafeCSVWriter(w)}, nil
}

func (t *table) write(records any) error {
	if !t.headerWritten {
		// First write includes headers
		if err := gocsv.MarshalCSV(records, t.writer); err != nil {
			return fmt.Errorf("writing %s: %w", t.name, err)
		}
		t.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalCSVWithoutHeaders(records, t.writer); err != nil {
		return fmt.Errorf("writing %s: %w", t.name, err)
	}
	return nil
}

func (t *table) close() error {
	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		t.file.Close()
		return fmt.Errorf("flushing %s: %w", t.name, err)
	}
	return t.file.Close()
}

// OutputManager handles structured experiment output as tab-separated tables.
type OutputManager struct {
	dir string

	dol       *table
	ants      *table
	window    *table
	telemetry *table
	perf      *table
	agents    *table
	closed    bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled). Every method is safe on a
// nil manager.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, spec := range []struct {
		dst  **table
		name string
	}{
		{&om.dol, "dol.tsv"},
		{&om.ants, "ants.tsv"},
		{&om.window, "window.tsv"},
		{&om.telemetry, "telemetry.tsv"},
		{&om.perf, "perf.tsv"},
		{&om.agents, "agents.tsv"},
	} {
		t, err := openTable(dir, spec.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*spec.dst = t
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteSummary appends a replicate's row to dol.tsv.
func (om *OutputManager) WriteSummary(s RunSummary) error {
	if om == nil {
		return nil
	}
	return om.dol.write([]RunSummary{s})
}

// WriteAnts appends history entries to ants.tsv.
func (om *OutputManager) WriteAnts(records []AntRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	return om.ants.write(records)
}

// WriteWindows appends sliding-window indices to window.tsv.
func (om *OutputManager) WriteWindows(replicate int, windows []DoL) error {
	if om == nil || len(windows) == 0 {
		return nil
	}
	records := make([]WindowRecord, len(windows))
	for i, d := range windows {
		records[i] = WindowRecord{Replicate: replicate, DoL: d}
	}
	return om.window.write(records)
}

// WriteTelemetry appends window stats records to telemetry.tsv.
func (om *OutputManager) WriteTelemetry(stats []WindowStats) error {
	if om == nil || len(stats) == 0 {
		return nil
	}
	return om.telemetry.write(stats)
}

// WritePerf appends a performance stats record to perf.tsv.
func (om *OutputManager) WritePerf(row PerfStatsCSV) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{row})
}

// WriteLifetimes appends per-agent lifetime stats to agents.tsv.
func (om *OutputManager) WriteLifetimes(stats []LifetimeStats) error {
	if om == nil || len(stats) == 0 {
		return nil
	}
	return om.agents.write(stats)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files. Closing twice is a no-op.
func (om *OutputManager) Close() error {
	if om == nil || om.closed {
		return nil
	}
	om.closed = true

	var firstErr error
	for _, t := range []*table{om.dol, om.ants, om.window, om.telemetry, om.perf, om.agents} {
		if t == nil {
			continue
		}
		if err := t.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
