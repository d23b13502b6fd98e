// Package telemetry computes division-of-labor indices, collects run statistics,
// and writes experiment output tables.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated colony statistics for a window of simulated time.
type WindowStats struct {
	Replicate   int     `csv:"repl"`
	WindowStart float64 `csv:"window_start"`
	WindowEnd   float64 `csv:"window_end"`

	// Census at window end
	Nurses       int `csv:"nurses"`
	Foragers     int `csv:"foragers"`
	FoodHandlers int `csv:"food_handlers"`

	// Events during window
	Events       int `csv:"events"`
	Trips        int `csv:"trips"`
	Interactions int `csv:"interactions"`
	TaskSwitches int `csv:"task_switches"`

	// Food flow during window (for conservation checks)
	FoodCollected float64 `csv:"food_collected"`
	FoodOffered   float64 `csv:"food_offered"`
	FoodAccepted  float64 `csv:"food_accepted"`
	FoodReturned  float64 `csv:"food_returned"`
	FoodDiscarded float64 `csv:"food_discarded"`

	// Energy distribution (sampled at window end)
	FatBodyMean float64 `csv:"fat_body_mean"`
	FatBodyP10  float64 `csv:"fat_body_p10"`
	FatBodyP50  float64 `csv:"fat_body_p50"`
	FatBodyP90  float64 `csv:"fat_body_p90"`
	CropTotal   float64 `csv:"crop_total"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("repl", s.Replicate),
		slog.Float64("window_start", s.WindowStart),
		slog.Float64("window_end", s.WindowEnd),
		slog.Int("nurses", s.Nurses),
		slog.Int("foragers", s.Foragers),
		slog.Int("food_handlers", s.FoodHandlers),
		slog.Int("events", s.Events),
		slog.Int("trips", s.Trips),
		slog.Int("interactions", s.Interactions),
		slog.Int("task_switches", s.TaskSwitches),
		slog.Float64("food_collected", s.FoodCollected),
		slog.Float64("food_offered", s.FoodOffered),
		slog.Float64("food_accepted", s.FoodAccepted),
		slog.Float64("food_returned", s.FoodReturned),
		slog.Float64("food_discarded", s.FoodDiscarded),
		slog.Float64("fat_body_mean", s.FatBodyMean),
		slog.Float64("fat_body_p10", s.FatBodyP10),
		slog.Float64("fat_body_p50", s.FatBodyP50),
		slog.Float64("fat_body_p90", s.FatBodyP90),
		slog.Float64("crop_total", s.CropTotal),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
