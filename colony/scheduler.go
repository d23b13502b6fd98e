package colony

import (
	"fmt"

	"github.com/pthm-cable/dol/components"
	"github.com/pthm-cable/dol/telemetry"
)

// Run steps the colony until the horizon and performs the roll-call.
func (c *Colony) Run() error {
	for {
		more, err := c.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Step processes the next event. It returns false once the horizon is
// reached; the roll-call has then logged every agent at the horizon.
func (c *Colony) Step() (bool, error) {
	if c.done {
		return false, nil
	}
	if c.perf != nil {
		c.perf.StartEvent()
		defer c.perf.EndEvent()
	}

	c.phase(telemetry.PhaseScan)
	focal := c.nextAgent()
	a := c.agent(focal)

	if a.NextT >= c.cfg.Colony.SimulationTime {
		if err := c.rollCall(); err != nil {
			return false, err
		}
		return false, nil
	}
	if a.NextT < c.t {
		return false, fmt.Errorf("%w: event at %v after %v (agent %d)", ErrClockReversal, a.NextT, c.t, focal)
	}
	c.t = a.NextT
	a.PreviousTask = a.Task

	if a.Task == components.Forage {
		c.phase(telemetry.PhaseForage)
		if err := c.updateForager(a); err != nil {
			return false, err
		}
	} else {
		c.phase(telemetry.PhaseNurse)
		if err := a.UpdateNurse(c.t); err != nil {
			return false, err
		}
	}

	c.phase(telemetry.PhaseDecide)
	a.PickNewTask(c.t, c.rng, c.cfg.Foraging.ForagingTime)
	a.Log(c.t)
	c.events++

	c.phase(telemetry.PhaseTelemetry)
	c.record(a)
	return true, nil
}

// nextAgent scans for the agent with the earliest event; ties go to the
// lowest slot. When that agent is foraging, the nurse pool is collected
// in the same pass.
func (c *Colony) nextAgent() int {
	best := 0
	bestT := c.agent(0).NextT
	c.pool = c.pool[:0]
	for i := range c.slots {
		a := c.agent(i)
		if a.NextT < bestT {
			best, bestT = i, a.NextT
		}
		if a.Task == components.Nurse {
			c.pool = append(c.pool, i)
		}
	}
	return best
}

// rollCall brings every agent to the horizon and logs it there.
func (c *Colony) rollCall() error {
	horizon := c.cfg.Colony.SimulationTime
	if horizon < c.t {
		return fmt.Errorf("%w: horizon %v before %v", ErrClockReversal, horizon, c.t)
	}
	c.t = horizon
	for i := range c.slots {
		a := c.agent(i)
		if err := a.UpdateFatBody(horizon); err != nil {
			return fmt.Errorf("roll-call: %w", err)
		}
		a.Log(horizon)
		if c.lifetimes != nil {
			c.lifetimes.UpdateFatBody(i, a.FatBody)
		}
	}
	c.done = true

	if c.collector != nil && c.t > c.collector.WindowStart() {
		c.flush()
	}
	return nil
}

// record feeds the telemetry sinks after an event.
func (c *Colony) record(a *components.Agent) {
	if c.lifetimes != nil {
		c.lifetimes.UpdateFatBody(a.ID, a.FatBody)
		if a.PreviousTask.Labor() != a.Task.Labor() {
			c.lifetimes.RecordSwitch(a.ID)
		}
	}
	if c.collector == nil {
		return
	}
	c.collector.RecordEvent()
	c.collector.RecordSwitch(a.PreviousTask, a.Task)
	if c.collector.ShouldFlush(c.t) {
		c.flush()
	}
}

func (c *Colony) flush() {
	stats := c.collector.Flush(c.t, c.Census())
	stats.Replicate = c.replicate
	c.windows = append(c.windows, stats)
	if c.logStats {
		stats.LogStats()
	}
}

func (c *Colony) phase(name string) {
	if c.perf != nil {
		c.perf.StartPhase(name)
	}
}
