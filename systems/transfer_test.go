package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/dol/components"
	"github.com/pthm-cable/dol/random"
)

func testAgent(id int, fatBody, crop float64) *components.Agent {
	return &components.Agent{
		ID:            id,
		FatBody:       fatBody,
		MaxFatBody:    12,
		Crop:          crop,
		MaxCrop:       5,
		Dominance:     float64(id) / 10,
		MetabolicRate: [components.NumTasks]float64{0.5, 0.5, 0.5},
	}
}

func TestSelectPartnersDistinct(t *testing.T) {
	rng := random.New(9)
	for trial := 0; trial < 200; trial++ {
		pool := []int{0, 1, 2, 3, 4, 5, 6, 7}
		got := SelectPartners(pool, 3, rng)
		if len(got) != 3 {
			t.Fatalf("got %d partners, want 3", len(got))
		}
		seen := map[int]bool{}
		for _, id := range got {
			if seen[id] {
				t.Fatalf("partner %d selected twice in %v", id, got)
			}
			seen[id] = true
		}
	}
}

func TestSelectPartnersSmallPool(t *testing.T) {
	rng := random.New(1)
	got := SelectPartners([]int{4, 2}, 5, rng)
	if len(got) != 2 {
		t.Errorf("got %d partners, want whole pool of 2", len(got))
	}
	if got := SelectPartners(nil, 3, rng); len(got) != 0 {
		t.Errorf("empty pool gave %v", got)
	}
}

func TestSelectPartnersUniform(t *testing.T) {
	rng := random.New(5)
	counts := make([]int, 4)
	const trials = 20000
	for i := 0; i < trials; i++ {
		pool := []int{0, 1, 2, 3}
		for _, id := range SelectPartners(pool, 1, rng) {
			counts[id]++
		}
	}
	for id, c := range counts {
		frac := float64(c) / trials
		if math.Abs(frac-0.25) > 0.02 {
			t.Errorf("partner %d chosen %.3f of the time, want ~0.25", id, frac)
		}
	}
}

func TestShareFoodConservation(t *testing.T) {
	strategies := []Strategy{NoSharing{}, FairSharing{}, DominanceSharing{}, FatBodySharing{}}
	for _, s := range strategies {
		t.Run(s.Name(), func(t *testing.T) {
			forager := testAgent(9, 4, 3)
			forager.Task = components.Forage
			receivers := []*components.Agent{
				testAgent(1, 6, 0),
				testAgent(2, 8, 4.5), // nearly full crop
				testAgent(3, 2, 5),   // full crop
			}
			cropsBefore := make([]float64, len(receivers))
			for i, r := range receivers {
				cropsBefore[i] = r.Crop
			}
			before := forager.Crop

			xfer, err := ShareFood(forager, receivers, s, 2, 0, 0.5)
			if err != nil {
				t.Fatal(err)
			}

			var accepted float64
			for i, r := range receivers {
				accepted += r.Crop - cropsBefore[i]
				if r.Crop > r.MaxCrop+1e-12 {
					t.Errorf("receiver %d crop %v above capacity", r.ID, r.Crop)
				}
			}
			if math.Abs(before-(forager.Crop+accepted)) > 1e-12 {
				t.Errorf("crop before %v != after %v + accepted %v", before, forager.Crop, accepted)
			}
			if math.Abs(xfer.Accepted-accepted) > 1e-12 {
				t.Errorf("Transfer.Accepted = %v, measured %v", xfer.Accepted, accepted)
			}
			if math.Abs(xfer.Offered-(xfer.Accepted+xfer.Returned)) > 1e-12 {
				t.Errorf("offered %v != accepted %v + returned %v", xfer.Offered, xfer.Accepted, xfer.Returned)
			}
			if forager.Crop < 0 {
				t.Errorf("forager crop went negative: %v", forager.Crop)
			}
		})
	}
}

func TestShareFoodFairAmounts(t *testing.T) {
	forager := testAgent(0, 4, 4)
	receivers := []*components.Agent{testAgent(1, 6, 0), testAgent(2, 6, 0), testAgent(3, 6, 0)}

	xfer, err := ShareFood(forager, receivers, FairSharing{}, 0, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if xfer.Receivers != 3 {
		t.Errorf("Receivers = %d, want 3", xfer.Receivers)
	}
	for _, r := range receivers {
		if r.Crop != 1 {
			t.Errorf("receiver %d crop = %v, want 1", r.ID, r.Crop)
		}
		if r.Task != components.FoodHandling || r.NextT != 1.5 {
			t.Errorf("receiver %d: %v at %v, want food handling at 1.5", r.ID, r.Task, r.NextT)
		}
	}
	if forager.Crop != 1 {
		t.Errorf("forager keeps %v, want 1", forager.Crop)
	}
}

func TestShareFoodNoSharingLeavesNursesAlone(t *testing.T) {
	forager := testAgent(0, 4, 2)
	r := testAgent(1, 6, 0)
	r.NextT = 7
	xfer, err := ShareFood(forager, []*components.Agent{r}, NoSharing{}, 0, 1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if xfer.Receivers != 0 || r.Task != components.Nurse || r.NextT != 7 {
		t.Errorf("nurse disturbed without an offer: %+v, task %v, next %v", xfer, r.Task, r.NextT)
	}
	if forager.Crop != 2 {
		t.Errorf("forager crop = %v, want 2", forager.Crop)
	}
}
