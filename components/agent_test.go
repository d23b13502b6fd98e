package components

import (
	"errors"
	"math"
	"testing"
)

// fixedThreshold always returns the same threshold.
type fixedThreshold float64

func (f fixedThreshold) Threshold() float64 { return float64(f) }

func newTestAgent() *Agent {
	return &Agent{
		FatBody:       10,
		MaxFatBody:    12,
		MaxCrop:       5,
		MetabolicRate: [NumTasks]float64{0.5, 1.0, 0.25},
	}
}

func TestUpdateFatBody(t *testing.T) {
	tests := []struct {
		name string
		task Task
		t    float64
		want float64
	}{
		{"nurse rate", Nurse, 4, 8},
		{"forage rate", Forage, 4, 6},
		{"food handling rate", FoodHandling, 4, 9},
		{"no time elapsed", Nurse, 0, 10},
		{"clamped at zero", Forage, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent()
			a.Task = tt.task
			if err := a.UpdateFatBody(tt.t); err != nil {
				t.Fatalf("UpdateFatBody: %v", err)
			}
			if math.Abs(a.FatBody-tt.want) > 1e-12 {
				t.Errorf("FatBody = %v, want %v", a.FatBody, tt.want)
			}
			if a.PrevT != tt.t {
				t.Errorf("PrevT = %v, want %v", a.PrevT, tt.t)
			}
		})
	}
}

func TestUpdateFatBodyTimeReversal(t *testing.T) {
	a := newTestAgent()
	a.PrevT = 5
	err := a.UpdateFatBody(4)
	if !errors.Is(err, ErrTimeReversal) {
		t.Fatalf("UpdateFatBody(4) = %v, want ErrTimeReversal", err)
	}
	if a.FatBody != 10 || a.PrevT != 5 {
		t.Errorf("agent changed on reversal: fat body %v, prevT %v", a.FatBody, a.PrevT)
	}
}

func TestDecideNewTask(t *testing.T) {
	t.Run("stays nurse above threshold", func(t *testing.T) {
		a := newTestAgent()
		a.DecideNewTask(2, fixedThreshold(6), 5)
		if a.Task != Nurse {
			t.Fatalf("Task = %v, want nurse", a.Task)
		}
		// (10 - 6) / 0.5 = 8 time units to the threshold
		if a.NextT != 10 {
			t.Errorf("NextT = %v, want 10", a.NextT)
		}
		if a.Threshold != 6 {
			t.Errorf("Threshold = %v, want 6", a.Threshold)
		}
	})

	t.Run("immediate resignation", func(t *testing.T) {
		a := newTestAgent()
		a.FatBody = 0
		a.DecideNewTask(3, fixedThreshold(5), 0)
		if a.Task != Forage {
			t.Fatalf("Task = %v, want forage", a.Task)
		}
		if a.NextT != 3 {
			t.Errorf("NextT = %v, want 3", a.NextT)
		}
	})

	t.Run("resignation schedules trip", func(t *testing.T) {
		a := newTestAgent()
		a.FatBody = 0
		a.DecideNewTask(3, fixedThreshold(5), 5)
		if a.Task != Forage || a.NextT != 8 {
			t.Errorf("got %v at %v, want forage at 8", a.Task, a.NextT)
		}
	})

	t.Run("zero nurse metabolism never resigns", func(t *testing.T) {
		a := newTestAgent()
		a.MetabolicRate[Nurse] = 0
		a.DecideNewTask(1, fixedThreshold(11), 5)
		if a.Task != Nurse {
			t.Fatalf("Task = %v, want nurse", a.Task)
		}
		if a.NextT < NeverDT {
			t.Errorf("NextT = %v, want at least %v", a.NextT, NeverDT)
		}
	})
}

func TestPickNewTask(t *testing.T) {
	t.Run("nurse at threshold forages", func(t *testing.T) {
		a := newTestAgent()
		a.Threshold = 10 - ThresholdEpsilon/2
		a.PreviousTask = Nurse
		a.PickNewTask(4, fixedThreshold(0), 5)
		if a.Task != Forage || a.NextT != 9 {
			t.Errorf("got %v at %v, want forage at 9", a.Task, a.NextT)
		}
		// no redraw on a forced switch
		if a.Threshold != 10-ThresholdEpsilon/2 {
			t.Errorf("threshold redrawn to %v", a.Threshold)
		}
	})

	t.Run("fed nurse redecides", func(t *testing.T) {
		a := newTestAgent()
		a.Threshold = 2
		a.PreviousTask = FoodHandling
		a.PickNewTask(4, fixedThreshold(8), 5)
		if a.Task != Nurse || a.NextT != 8 {
			t.Errorf("got %v at %v, want nurse at 8", a.Task, a.NextT)
		}
	})

	t.Run("returning forager redecides", func(t *testing.T) {
		a := newTestAgent()
		a.Task = Forage
		a.PreviousTask = Forage
		a.Threshold = 100 // stale threshold must not force another trip
		a.PickNewTask(4, fixedThreshold(9), 5)
		if a.Task != Nurse || a.NextT != 6 {
			t.Errorf("got %v at %v, want nurse at 6", a.Task, a.NextT)
		}
	})
}

func TestHandleFoodConservesEnergy(t *testing.T) {
	tests := []struct {
		name         string
		crop         float64
		food         float64
		wantReturned float64
	}{
		{"fits", 0, 2, 0},
		{"partial", 4, 2, 1},
		{"full crop", 5, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent()
			a.Crop = tt.crop
			returned, err := a.HandleFood(tt.food, a.MaxCrop, 2, 0.5)
			if err != nil {
				t.Fatal(err)
			}
			if returned != tt.wantReturned {
				t.Errorf("returned = %v, want %v", returned, tt.wantReturned)
			}
			if accepted := a.Crop - tt.crop; math.Abs(accepted+returned-tt.food) > 1e-12 {
				t.Errorf("accepted %v + returned %v != food %v", accepted, returned, tt.food)
			}
			if a.Crop > a.MaxCrop {
				t.Errorf("crop %v above capacity %v", a.Crop, a.MaxCrop)
			}
			if a.Task != FoodHandling || a.NextT != 2.5 {
				t.Errorf("got %v at %v, want food handling at 2.5", a.Task, a.NextT)
			}
			if a.FatBody != 9 {
				t.Errorf("FatBody = %v, want 9 after decay to t=2", a.FatBody)
			}
		})
	}
}

func TestProcessCropBoundedByCapacity(t *testing.T) {
	a := newTestAgent()
	a.FatBody = 11.5
	a.Crop = 3
	absorbed := a.Digest()
	if absorbed != 0.5 {
		t.Errorf("absorbed = %v, want 0.5", absorbed)
	}
	if a.FatBody != a.MaxFatBody {
		t.Errorf("FatBody = %v, want %v", a.FatBody, a.MaxFatBody)
	}
	if a.Crop != 2.5 {
		t.Errorf("Crop = %v, want 2.5", a.Crop)
	}

	a.FatBody = 5
	a.Crop = 1
	if got := a.ProcessCrop(0.2); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("ProcessCrop(0.2) = %v, want 0.2", got)
	}
}

func TestLoadCropClamped(t *testing.T) {
	a := newTestAgent()
	if got := a.LoadCrop(8); got != 0 {
		t.Errorf("LoadCrop on an empty crop discarded %v", got)
	}
	if a.Crop != a.MaxCrop {
		t.Errorf("Crop = %v, want %v", a.Crop, a.MaxCrop)
	}
}

func TestLoadCropDropsLeftover(t *testing.T) {
	a := newTestAgent()
	a.Crop = 0.3
	if got := a.LoadCrop(1); got != 0.3 {
		t.Errorf("discarded = %v, want 0.3", got)
	}
	if a.Crop != 1 {
		t.Errorf("Crop = %v, want 1", a.Crop)
	}
}

func TestUpdateNurseDigestsAfterHandling(t *testing.T) {
	a := newTestAgent()
	a.FatBody = 6
	if _, err := a.HandleFood(2, a.MaxCrop, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := a.UpdateNurse(1); err != nil {
		t.Fatal(err)
	}
	// 6 - 0.25 burnt while handling + 2 digested
	if math.Abs(a.FatBody-7.75) > 1e-12 {
		t.Errorf("FatBody = %v, want 7.75", a.FatBody)
	}
	if a.Crop != 0 {
		t.Errorf("Crop = %v, want 0", a.Crop)
	}
}

func TestLogCollapsesFoodHandling(t *testing.T) {
	a := newTestAgent()
	a.Task = FoodHandling
	a.Log(1)
	a.Task = Forage
	a.Log(2)
	if got := a.History[0].Task; got != Nurse {
		t.Errorf("food handling logged as %v, want nurse", got)
	}
	if got := a.History[1].Task; got != Forage {
		t.Errorf("forage logged as %v", got)
	}
}
