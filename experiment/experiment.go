// Package experiment runs replicates of a colony and gathers their results.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/dol/colony"
	"github.com/pthm-cable/dol/components"
	"github.com/pthm-cable/dol/config"
	"github.com/pthm-cable/dol/random"
	"github.com/pthm-cable/dol/telemetry"
)

// cancelCheckInterval is how many events run between context checks.
const cancelCheckInterval = 4096

// Options controls what a replicate collects beyond its indices.
type Options struct {
	LogStats  bool // Log WindowStats via slog as they are flushed
	Perf      bool // Time scheduler phases
	Lifetimes bool // Track per-agent lifetime stats
}

// Result holds everything one replicate produced.
type Result struct {
	Replicate int
	Seed      uint64
	Events    int
	Wall      time.Duration

	Summary telemetry.DoL   // Indices over the post burn-in window
	Windows []telemetry.DoL // Sliding windows, empty when disabled

	Histories [][]components.Record
	Dominance []float64

	Stats     []telemetry.WindowStats
	Lifetimes []telemetry.LifetimeStats
	Perf      *telemetry.PerfStatsCSV
}

// BaseSeed resolves the configured seed; 0 draws one from the clock.
func BaseSeed(seed uint64) uint64 {
	if seed == 0 {
		return random.TimeSeed()
	}
	return seed
}

// RunReplicate builds a colony for replicate r seeded with seed and runs it
// to the horizon.
func RunReplicate(ctx context.Context, cfg *config.Config, r int, seed uint64, opts Options) (Result, error) {
	start := time.Now()

	var collector *telemetry.Collector
	if cfg.Telemetry.StatsWindow > 0 {
		collector = telemetry.NewCollector(r, cfg.Telemetry.StatsWindow)
	}
	var lifetimes *telemetry.LifetimeTracker
	if opts.Lifetimes {
		lifetimes = telemetry.NewLifetimeTracker(r)
	}
	var perf *telemetry.PerfCollector
	if opts.Perf || cfg.Telemetry.Perf {
		perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	}

	c, err := colony.New(colony.Options{
		Config:    cfg,
		Seed:      seed,
		Replicate: r,
		Collector: collector,
		Lifetimes: lifetimes,
		Perf:      perf,
		LogStats:  opts.LogStats,
	})
	if err != nil {
		return Result{}, err
	}

	for {
		more, err := c.Step()
		if err != nil {
			return Result{}, fmt.Errorf("replicate %d: %w", r, err)
		}
		if !more {
			break
		}
		if c.Events()%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
	}

	res := Analyze(cfg, c.Histories())
	res.Replicate = r
	res.Seed = seed
	res.Events = c.Events()
	res.Dominance = c.Dominance()
	res.Stats = c.Windows()
	if lifetimes != nil {
		res.Lifetimes = lifetimes.All()
	}
	if perf != nil {
		ps := perf.Stats()
		row := ps.ToCSV(r, c.Events())
		res.Perf = &row
	}
	res.Wall = time.Since(start)

	slog.Info("replicate finished",
		"repl", r,
		"seed", seed,
		"events", humanize.Comma(int64(res.Events)),
		"wall", res.Wall.Round(time.Millisecond),
		"gautrais", res.Summary.Gautrais,
		"duarte", res.Summary.Duarte,
		"gorelick_both", res.Summary.GorelickBoth,
	)
	return res, nil
}

// Analyze computes the summary indices after burn-in and the sliding
// windows for a set of histories.
func Analyze(cfg *config.Config, histories [][]components.Record) Result {
	horizon := cfg.Colony.SimulationTime
	return Result{
		Histories: histories,
		Summary:   telemetry.Evaluate(histories, cfg.Statistics.Burnin*horizon, horizon),
		Windows: telemetry.SlidingWindow(histories,
			cfg.Statistics.WindowSize, cfg.Statistics.WindowStep, horizon),
	}
}

// RunAll runs cfg.Colony.Replicates replicates on up to cfg.Colony.Workers
// goroutines. Replicate r is seeded with baseSeed+r and results come back in
// replicate order whatever the worker count.
func RunAll(ctx context.Context, cfg *config.Config, baseSeed uint64, opts Options) ([]Result, error) {
	n := max(cfg.Colony.Replicates, 1)
	results := make([]Result, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Colony.Workers, 1))
	for r := 0; r < n; r++ {
		g.Go(func() error {
			res, err := RunReplicate(ctx, cfg, r, baseSeed+uint64(r), opts)
			if err != nil {
				return err
			}
			results[r] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
