package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one scheduler event.
const (
	PhaseScan      = "scan"
	PhaseForage    = "forage"
	PhaseShare     = "share"
	PhaseNurse     = "nurse"
	PhaseDecide    = "decide"
	PhaseTelemetry = "telemetry"
)

var phaseOrder = []string{
	PhaseScan, PhaseForage, PhaseShare, PhaseNurse, PhaseDecide, PhaseTelemetry,
}

// PerfSample holds timing data for a single event.
type PerfSample struct {
	EventDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window of events.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	eventStart    time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of events to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 1000
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartEvent begins timing a new scheduler event.
func (p *PerfCollector) StartEvent() {
	p.eventStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndEvent finishes timing the current event and records the sample.
func (p *PerfCollector) EndEvent() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		EventDuration: now.Sub(p.eventStart),
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// WindowFull reports whether every slot of the rolling window holds a sample.
func (p *PerfCollector) WindowFull() bool {
	return p.sampleCount == p.windowSize
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgEventDuration time.Duration
	MinEventDuration time.Duration
	MaxEventDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total event time
	PhasePct map[string]float64

	EventsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg: make(map[string]time.Duration),
			PhasePct: make(map[string]float64),
		}
	}

	var total, minDur, maxDur time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.EventDuration

		if i == 0 || s.EventDuration < minDur {
			minDur = s.EventDuration
		}
		if s.EventDuration > maxDur {
			maxDur = s.EventDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgEventDuration: avg,
		MinEventDuration: minDur,
		MaxEventDuration: maxDur,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		EventsPerSecond:  perSec,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_event_ns", s.AvgEventDuration.Nanoseconds(),
		"min_event_ns", s.MinEventDuration.Nanoseconds(),
		"max_event_ns", s.MaxEventDuration.Nanoseconds(),
		"events_per_sec", int(s.EventsPerSecond),
	}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_event_ns", s.AvgEventDuration.Nanoseconds()),
		slog.Int64("min_event_ns", s.MinEventDuration.Nanoseconds()),
		slog.Int64("max_event_ns", s.MaxEventDuration.Nanoseconds()),
		slog.Float64("events_per_sec", s.EventsPerSecond),
	}
	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Replicate    int     `csv:"repl"`
	Events       int     `csv:"events"`
	AvgEventNS   int64   `csv:"avg_event_ns"`
	MinEventNS   int64   `csv:"min_event_ns"`
	MaxEventNS   int64   `csv:"max_event_ns"`
	EventsPerSec float64 `csv:"events_per_sec"`
	ScanPct      float64 `csv:"scan_pct"`
	ForagePct    float64 `csv:"forage_pct"`
	SharePct     float64 `csv:"share_pct"`
	NursePct     float64 `csv:"nurse_pct"`
	DecidePct    float64 `csv:"decide_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(replicate, events int) PerfStatsCSV {
	return PerfStatsCSV{
		Replicate:    replicate,
		Events:       events,
		AvgEventNS:   s.AvgEventDuration.Nanoseconds(),
		MinEventNS:   s.MinEventDuration.Nanoseconds(),
		MaxEventNS:   s.MaxEventDuration.Nanoseconds(),
		EventsPerSec: s.EventsPerSecond,
		ScanPct:      s.PhasePct[PhaseScan],
		ForagePct:    s.PhasePct[PhaseForage],
		SharePct:     s.PhasePct[PhaseShare],
		NursePct:     s.PhasePct[PhaseNurse],
		DecidePct:    s.PhasePct[PhaseDecide],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
