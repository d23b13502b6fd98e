package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/dol/config"
	"github.com/pthm-cable/dol/experiment"
	"github.com/pthm-cable/dol/persistence"
	"github.com/pthm-cable/dol/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for TSV tables and config snapshot (empty = use config)")
	dbPath := flag.String("db", "", "SQLite archive path (empty = use config)")
	seed := flag.Uint64("seed", 0, "Base RNG seed (0 = use config, then time-based)")
	replicates := flag.Int("replicates", 0, "Number of replicates (0 = use config)")
	workers := flag.Int("workers", 0, "Concurrent replicates (0 = use config)")
	model := flag.String("model", "", "Sharing model: none, fair, dominance, fatbody (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window in simulated time (0 = use config)")
	perf := flag.Bool("perf", false, "Time scheduler phases")
	history := flag.Bool("history", false, "Write every agent's history to ants.tsv")
	lifetimes := flag.Bool("lifetimes", false, "Write per-agent lifetime stats to agents.tsv")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *dbPath != "" {
		cfg.Output.Database = *dbPath
	}
	if *seed != 0 {
		cfg.Colony.Seed = *seed
	}
	if *replicates > 0 {
		cfg.Colony.Replicates = *replicates
	}
	if *workers > 0 {
		cfg.Colony.Workers = *workers
	}
	if *model != "" {
		cfg.Sharing.Model = *model
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *history {
		cfg.Output.WriteHistory = true
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, experiment.Options{
		LogStats:  *logStats,
		Perf:      *perf,
		Lifetimes: *lifetimes,
	}); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts experiment.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := telemetry.NewOutputManager(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer out.Close()

	var db *persistence.DB
	if cfg.Output.Database != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Output.Database), 0755); err != nil {
			return err
		}
		db, err = persistence.Open(cfg.Output.Database)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	baseSeed := experiment.BaseSeed(cfg.Colony.Seed)
	cfg.Colony.Seed = baseSeed
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	slog.Info("starting simulation",
		"seed", baseSeed,
		"model", cfg.Sharing.Model,
		"colony_size", cfg.Colony.Size,
		"simulation_time", cfg.Colony.SimulationTime,
		"replicates", max(cfg.Colony.Replicates, 1),
		"workers", max(cfg.Colony.Workers, 1),
		"output_dir", out.Dir(),
	)

	start := time.Now()
	results, err := experiment.RunAll(ctx, cfg, baseSeed, opts)
	if err != nil {
		return err
	}

	sink := &experiment.Sink{Config: cfg, Out: out, DB: db}
	if err := sink.WriteAll(results); err != nil {
		return err
	}

	var events int
	for _, res := range results {
		events += res.Events
	}
	slog.Info("simulation complete",
		"replicates", len(results),
		"events", humanize.Comma(int64(events)),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return out.Close()
}
