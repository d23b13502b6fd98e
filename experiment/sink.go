package experiment

import (
	"fmt"

	"github.com/pthm-cable/dol/config"
	"github.com/pthm-cable/dol/persistence"
	"github.com/pthm-cable/dol/telemetry"
)

// Sink writes replicate results to the output tables and the archive.
// Either destination may be nil.
type Sink struct {
	Config *config.Config
	Out    *telemetry.OutputManager
	DB     *persistence.DB
}

// Write stores one replicate.
func (s *Sink) Write(res Result) error {
	cfg := s.Config
	if err := s.Out.WriteSummary(telemetry.NewRunSummary(res.Replicate, cfg, res.Summary)); err != nil {
		return err
	}
	if cfg.Output.WriteHistory {
		if err := s.Out.WriteAnts(telemetry.AntRecords(res.Replicate, res.Histories, res.Dominance)); err != nil {
			return err
		}
	}
	if err := s.Out.WriteWindows(res.Replicate, res.Windows); err != nil {
		return err
	}
	if err := s.Out.WriteTelemetry(res.Stats); err != nil {
		return err
	}
	if err := s.Out.WriteLifetimes(res.Lifetimes); err != nil {
		return err
	}
	if res.Perf != nil {
		if err := s.Out.WritePerf(*res.Perf); err != nil {
			return err
		}
	}

	if s.DB == nil {
		return nil
	}
	run, err := persistence.NewRun(res.Replicate, res.Seed, cfg, res.Events, res.Wall)
	if err != nil {
		return err
	}
	histories := res.Histories
	if !cfg.Output.WriteHistory {
		histories = nil
	}
	if err := s.DB.SaveRun(run, res.Summary, res.Windows, histories); err != nil {
		return fmt.Errorf("archiving replicate %d: %w", res.Replicate, err)
	}
	return nil
}

// WriteAll stores results in order.
func (s *Sink) WriteAll(results []Result) error {
	for _, res := range results {
		if err := s.Write(res); err != nil {
			return err
		}
	}
	return nil
}
