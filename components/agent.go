// Package components defines the colony's ECS components.
package components

import (
	"errors"
	"fmt"
	"math"
)

// ThresholdEpsilon is how close the fat body must come to the threshold
// for a nurse to count as having reached it.
const ThresholdEpsilon = 1e-2

// NeverDT stands in for the time to threshold when nurses burn no energy.
const NeverDT = 1e30

// ErrTimeReversal is returned when an agent is asked to move backwards in time.
var ErrTimeReversal = errors.New("agent time moved backwards")

// ThresholdSampler draws nursing thresholds.
type ThresholdSampler interface {
	Threshold() float64
}

// Record is one entry of an agent's history.
type Record struct {
	T       float64
	Task    Task // Always a labor category
	FatBody float64
}

// Agent is one colony member.
type Agent struct {
	ID int // Stable slot index in the colony

	FatBody    float64
	MaxFatBody float64
	Crop       float64
	MaxCrop    float64

	Task         Task
	PreviousTask Task

	Threshold     float64
	Dominance     float64
	MetabolicRate [NumTasks]float64

	PrevT float64 // Time the fat body was last brought up to date
	NextT float64 // Next autonomous event

	History []Record
}

// UpdateFatBody burns energy for the time elapsed since PrevT at the rate of
// the current task and advances PrevT to t.
func (a *Agent) UpdateFatBody(t float64) error {
	if t < a.PrevT {
		return fmt.Errorf("%w: agent %d at %v asked for %v", ErrTimeReversal, a.ID, a.PrevT, t)
	}
	a.FatBody -= (t - a.PrevT) * a.MetabolicRate[a.Task]
	if a.FatBody < 0 {
		// Thresholds are non-negative, so a scheduled agent should never
		// run dry; clamp rather than carry a negative reserve.
		a.FatBody = 0
	}
	a.PrevT = t
	return nil
}

// PickNewTask chooses the task and event time following an update at t.
func (a *Agent) PickNewTask(t float64, s ThresholdSampler, foragingTime float64) {
	if a.PreviousTask == Forage {
		a.DecideNewTask(t, s, foragingTime)
		return
	}
	if a.FatBody-a.Threshold < ThresholdEpsilon {
		a.startForaging(t, foragingTime)
		return
	}
	a.DecideNewTask(t, s, foragingTime)
}

// DecideNewTask redraws the threshold and either schedules the nurse's
// resignation or sends the agent foraging right away.
func (a *Agent) DecideNewTask(t float64, s ThresholdSampler, foragingTime float64) {
	a.Threshold = s.Threshold()

	dt := NeverDT
	if rate := a.MetabolicRate[Nurse]; rate > 0 {
		dt = (a.FatBody - a.Threshold) / rate
	}
	newT := t + dt
	if newT <= t {
		a.startForaging(t, foragingTime)
		return
	}
	a.Task = Nurse
	a.NextT = newT
}

func (a *Agent) startForaging(t, foragingTime float64) {
	a.Task = Forage
	a.NextT = t + foragingTime
}

// LoadCrop replaces the crop with a foraging yield, bounded by capacity.
// Food still in the crop from the previous trip is dropped; the amount is
// returned so callers can account for it.
func (a *Agent) LoadCrop(amount float64) (discarded float64) {
	discarded = a.Crop
	a.Crop = math.Min(amount, a.MaxCrop)
	return discarded
}

// ProcessCrop moves a fraction of the crop into the fat body, bounded by
// the remaining fat body capacity. Returns the amount absorbed.
func (a *Agent) ProcessCrop(fraction float64) float64 {
	absorbed := math.Min(a.Crop*fraction, a.MaxFatBody-a.FatBody)
	if absorbed <= 0 {
		return 0
	}
	a.FatBody += absorbed
	a.Crop -= absorbed
	if a.Crop < 0 {
		a.Crop = 0
	}
	return absorbed
}

// Digest moves as much of the crop as fits into the fat body.
func (a *Agent) Digest() float64 {
	return a.ProcessCrop(1)
}

// HandleFood is called on a nurse by a returning forager. The nurse accepts
// food up to maxCrop and switches to food handling until t+handlingTime.
// Returns the food that did not fit.
func (a *Agent) HandleFood(food, maxCrop, t, handlingTime float64) (float64, error) {
	if err := a.UpdateFatBody(t); err != nil {
		return food, err
	}
	accepted := math.Min(food, math.Max(maxCrop-a.Crop, 0))
	a.Crop += accepted
	a.Task = FoodHandling
	a.NextT = t + handlingTime
	return food - accepted, nil
}

// UpdateNurse runs a nurse's own event: energy decay and, after food
// handling, digestion of the received crop.
func (a *Agent) UpdateNurse(t float64) error {
	if err := a.UpdateFatBody(t); err != nil {
		return err
	}
	if a.Task == FoodHandling {
		a.Digest()
	}
	return nil
}

// Log appends a history entry at t.
func (a *Agent) Log(t float64) {
	a.History = append(a.History, Record{T: t, Task: a.Task.Labor(), FatBody: a.FatBody})
}
