package telemetry

import "sort"

// LifetimeStats tracks per-agent statistics over a whole run.
type LifetimeStats struct {
	Replicate int     `csv:"repl"`
	ID        int     `csv:"ID"`
	Dominance float64 `csv:"dominance"`

	// Foraging
	Trips         int     `csv:"trips"`
	FoodCollected float64 `csv:"food_collected"`

	// Sharing
	FoodGiven    float64 `csv:"food_given"`
	FoodReceived float64 `csv:"food_received"`
	TimesFed     int     `csv:"times_fed"`

	TaskSwitches int     `csv:"task_switches"`
	PeakFatBody  float64 `csv:"peak_fat_body"`
	MinFatBody   float64 `csv:"min_fat_body"`
}

// LifetimeTracker manages per-agent lifetime statistics keyed by slot index.
type LifetimeTracker struct {
	replicate int
	stats     map[int]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker(replicate int) *LifetimeTracker {
	return &LifetimeTracker{
		replicate: replicate,
		stats:     make(map[int]*LifetimeStats),
	}
}

// Register creates lifetime stats for an agent.
func (lt *LifetimeTracker) Register(id int, dominance, fatBody float64) {
	lt.stats[id] = &LifetimeStats{
		Replicate:   lt.replicate,
		ID:          id,
		Dominance:   dominance,
		PeakFatBody: fatBody,
		MinFatBody:  fatBody,
	}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(id int) *LifetimeStats {
	return lt.stats[id]
}

// RecordTrip adds a completed foraging trip.
func (lt *LifetimeTracker) RecordTrip(id int, collected float64) {
	if s := lt.stats[id]; s != nil {
		s.Trips++
		s.FoodCollected += collected
	}
}

// RecordGift adds food a forager handed to a nurse.
func (lt *LifetimeTracker) RecordGift(from, to int, amount float64) {
	if s := lt.stats[from]; s != nil {
		s.FoodGiven += amount
	}
	if s := lt.stats[to]; s != nil {
		s.FoodReceived += amount
		s.TimesFed++
	}
}

// RecordSwitch increments the task switch count.
func (lt *LifetimeTracker) RecordSwitch(id int) {
	if s := lt.stats[id]; s != nil {
		s.TaskSwitches++
	}
}

// UpdateFatBody tracks the fat body range.
func (lt *LifetimeTracker) UpdateFatBody(id int, fatBody float64) {
	if s := lt.stats[id]; s != nil {
		if fatBody > s.PeakFatBody {
			s.PeakFatBody = fatBody
		}
		if fatBody < s.MinFatBody {
			s.MinFatBody = fatBody
		}
	}
}

// All returns all tracked stats ordered by agent ID.
func (lt *LifetimeTracker) All() []LifetimeStats {
	ids := make([]int, 0, len(lt.stats))
	for id := range lt.stats {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]LifetimeStats, len(ids))
	for i, id := range ids {
		out[i] = *lt.stats[id]
	}
	return out
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
