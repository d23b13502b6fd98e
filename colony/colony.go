// Package colony runs the event loop of one simulated colony.
package colony

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/dol/components"
	"github.com/pthm-cable/dol/config"
	"github.com/pthm-cable/dol/random"
	"github.com/pthm-cable/dol/systems"
	"github.com/pthm-cable/dol/telemetry"
)

// ErrClockReversal is returned when the scheduler would move the global
// clock backwards.
var ErrClockReversal = errors.New("colony clock moved backwards")

// Options configures a colony.
type Options struct {
	Config    *config.Config // nil = config.Cfg()
	Seed      uint64
	Replicate int

	// Optional telemetry; nil disables each.
	Collector *telemetry.Collector
	Lifetimes *telemetry.LifetimeTracker
	Perf      *telemetry.PerfCollector
	LogStats  bool // Log each WindowStats via slog
}

// Colony holds the agents of one run and the scheduler state.
type Colony struct {
	cfg       config.Config
	replicate int

	// ECS
	world  *ecs.World
	agents *ecs.Map1[components.Agent]
	filter *ecs.Filter1[components.Agent]
	slots  []ecs.Entity // Slot index -> entity, fixed after construction

	rng      *random.Source
	strategy systems.Strategy
	rates    [components.NumTasks]float64

	// Scheduler state
	t      float64
	events int
	done   bool

	// Scratch, reused across events
	pool      []int
	receivers []*components.Agent
	crops     []float64

	// Telemetry
	collector *telemetry.Collector
	lifetimes *telemetry.LifetimeTracker
	perf      *telemetry.PerfCollector
	logStats  bool
	windows   []telemetry.WindowStats
}

// New builds a colony: every agent starts nursing with the initial fat body,
// draws its dominance and threshold, and logs an entry at t=0.
func New(opts Options) (*Colony, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	strategy, err := systems.ParseModel(cfg.Sharing.Model)
	if err != nil {
		return nil, fmt.Errorf("building colony: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("building colony: %w", err)
	}

	world := ecs.NewWorld()
	c := &Colony{
		cfg:       *cfg,
		replicate: opts.Replicate,
		world:     world,
		agents:    ecs.NewMap1[components.Agent](world),
		filter:    ecs.NewFilter1[components.Agent](world),
		slots:     make([]ecs.Entity, cfg.Colony.Size),
		rng:       random.New(opts.Seed),
		strategy:  strategy,
		rates:     cfg.MetabolicRates(),
		pool:      make([]int, 0, cfg.Colony.Size),
		collector: opts.Collector,
		lifetimes: opts.Lifetimes,
		perf:      opts.Perf,
		logStats:  opts.LogStats,
	}
	c.rng.SetThresholdDist(cfg.Threshold.Mean, cfg.Threshold.SD)

	for i := range c.slots {
		a := components.Agent{
			ID:            i,
			FatBody:       cfg.Energy.InitFatBody,
			MaxFatBody:    cfg.Energy.MaxFatBody,
			MaxCrop:       cfg.Energy.MaxCropSize,
			Task:          components.Nurse,
			PreviousTask:  components.Nurse,
			Dominance:     c.rng.Uniform(),
			MetabolicRate: c.rates,
		}
		a.DecideNewTask(0, c.rng, cfg.Foraging.ForagingTime)
		a.Log(0)
		c.slots[i] = c.agents.NewEntity(&a)

		if c.lifetimes != nil {
			c.lifetimes.Register(i, a.Dominance, a.FatBody)
		}
	}

	return c, nil
}

// agent returns the live agent in slot i.
func (c *Colony) agent(i int) *components.Agent {
	return c.agents.Get(c.slots[i])
}

// Time returns the global clock.
func (c *Colony) Time() float64 {
	return c.t
}

// Events returns the number of processed events.
func (c *Colony) Events() int {
	return c.events
}

// Size returns the number of agents.
func (c *Colony) Size() int {
	return len(c.slots)
}

// Done reports whether the run has reached its horizon.
func (c *Colony) Done() bool {
	return c.done
}

// Config returns the configuration the colony was built with.
func (c *Colony) Config() config.Config {
	return c.cfg
}

// Strategy returns the sharing strategy in use.
func (c *Colony) Strategy() systems.Strategy {
	return c.strategy
}

// Agent returns a copy of the agent in slot i.
func (c *Colony) Agent(i int) components.Agent {
	return *c.agent(i)
}

// Histories returns each agent's history, indexed by slot. The slices are
// owned by the colony and must not be modified.
func (c *Colony) Histories() [][]components.Record {
	out := make([][]components.Record, len(c.slots))
	for i := range c.slots {
		out[i] = c.agent(i).History
	}
	return out
}

// Dominance returns each agent's dominance, indexed by slot.
func (c *Colony) Dominance() []float64 {
	out := make([]float64, len(c.slots))
	for i := range c.slots {
		out[i] = c.agent(i).Dominance
	}
	return out
}

// Windows returns the WindowStats flushed so far.
func (c *Colony) Windows() []telemetry.WindowStats {
	return c.windows
}

// Census counts agents per task and samples the fat body distribution at
// the current time. Agents are read, not updated.
func (c *Colony) Census() telemetry.Census {
	census := telemetry.Census{FatBodies: make([]float64, 0, len(c.slots))}
	query := c.filter.Query()
	for query.Next() {
		a := query.Get()
		switch a.Task {
		case components.Nurse:
			census.Nurses++
		case components.Forage:
			census.Foragers++
		case components.FoodHandling:
			census.FoodHandlers++
		}
		fb := a.FatBody - (c.t-a.PrevT)*a.MetabolicRate[a.Task]
		census.FatBodies = append(census.FatBodies, max(fb, 0))
		census.CropTotal += a.Crop
	}
	return census
}
