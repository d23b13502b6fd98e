package telemetry

import "github.com/pthm-cable/dol/components"

// Collector accumulates colony events within windows of simulated time and
// produces WindowStats.
type Collector struct {
	replicate      int
	windowDuration float64

	// Current window tracking
	windowStart float64

	// Event counters for current window
	events        int
	trips         int
	interactions  int
	taskSwitches  int
	foodCollected float64
	foodOffered   float64
	foodAccepted  float64
	foodReturned  float64
	foodDiscarded float64
}

// NewCollector creates a new stats collector.
// windowDuration: how long each stats window lasts in simulated time units.
// A non-positive duration disables flushing.
func NewCollector(replicate int, windowDuration float64) *Collector {
	return &Collector{
		replicate:      replicate,
		windowDuration: windowDuration,
	}
}

// RecordEvent records one processed scheduler event.
func (c *Collector) RecordEvent() {
	c.events++
}

// RecordTrip records a completed foraging trip and the food it brought home.
func (c *Collector) RecordTrip(collected float64) {
	c.trips++
	c.foodCollected += collected
}

// RecordDiscard records crop left over from a previous trip and dropped
// when a forager reloads.
func (c *Collector) RecordDiscard(amount float64) {
	c.foodDiscarded += amount
}

// RecordTransfer records one sharing round.
func (c *Collector) RecordTransfer(receivers int, offered, accepted, returned float64) {
	c.interactions += receivers
	c.foodOffered += offered
	c.foodAccepted += accepted
	c.foodReturned += returned
}

// RecordSwitch records a change of labor task.
func (c *Collector) RecordSwitch(from, to components.Task) {
	if from.Labor() != to.Labor() {
		c.taskSwitches++
	}
}

// ShouldFlush returns true if the current window has run its course by t.
func (c *Collector) ShouldFlush(t float64) bool {
	if c.windowDuration <= 0 {
		return false
	}
	return t-c.windowStart >= c.windowDuration
}

// WindowStart returns the time at which the current window opened.
func (c *Collector) WindowStart() float64 {
	return c.windowStart
}

// WindowEnd returns the time at which the current window closes.
func (c *Collector) WindowEnd() float64 {
	return c.windowStart + c.windowDuration
}

// Census holds the colony state sampled at the end of a window.
type Census struct {
	Nurses       int
	Foragers     int
	FoodHandlers int
	FatBodies    []float64
	CropTotal    float64
}

// Flush produces a WindowStats ending at t and resets counters for the
// next window.
func (c *Collector) Flush(t float64, census Census) WindowStats {
	fbMean, fbP10, fbP50, fbP90 := ComputeEnergyStats(census.FatBodies)

	stats := WindowStats{
		Replicate:   c.replicate,
		WindowStart: c.windowStart,
		WindowEnd:   t,

		Nurses:       census.Nurses,
		Foragers:     census.Foragers,
		FoodHandlers: census.FoodHandlers,

		Events:       c.events,
		Trips:        c.trips,
		Interactions: c.interactions,
		TaskSwitches: c.taskSwitches,

		FoodCollected: c.foodCollected,
		FoodOffered:   c.foodOffered,
		FoodAccepted:  c.foodAccepted,
		FoodReturned:  c.foodReturned,
		FoodDiscarded: c.foodDiscarded,

		FatBodyMean: fbMean,
		FatBodyP10:  fbP10,
		FatBodyP50:  fbP50,
		FatBodyP90:  fbP90,
		CropTotal:   census.CropTotal,
	}

	// Reset for next window
	c.windowStart = t
	c.events = 0
	c.trips = 0
	c.interactions = 0
	c.taskSwitches = 0
	c.foodCollected = 0
	c.foodOffered = 0
	c.foodAccepted = 0
	c.foodReturned = 0
	c.foodDiscarded = 0

	return stats
}

// WindowDuration returns the length of each window in simulated time.
func (c *Collector) WindowDuration() float64 {
	return c.windowDuration
}
