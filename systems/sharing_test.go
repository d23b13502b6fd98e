package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/dol/components"
	"github.com/pthm-cable/dol/config"
)

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func TestParseModel(t *testing.T) {
	for _, name := range []string{config.ModelNone, config.ModelFair, config.ModelDominance, config.ModelFatBody} {
		s, err := ParseModel(name)
		if err != nil {
			t.Fatalf("ParseModel(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("ParseModel(%q).Name() = %q", name, s.Name())
		}
	}

	if _, err := ParseModel("random"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("ParseModel(random) = %v, want ErrUnknownModel", err)
	}
}

func TestNoSharing(t *testing.T) {
	got := NoSharing{}.Fractions(0.3, []float64{0.1, 0.9}, 5)
	for i, f := range got {
		if f != 0 {
			t.Errorf("fraction[%d] = %v, want 0", i, f)
		}
	}
}

func TestFairSharing(t *testing.T) {
	for k := 1; k <= 6; k++ {
		got := FairSharing{}.Fractions(0, make([]float64, k), 0)
		if len(got) != k {
			t.Fatalf("k=%d: got %d fractions", k, len(got))
		}
		want := 1.0 / float64(k+1)
		for i, f := range got {
			if f != want {
				t.Errorf("k=%d: fraction[%d] = %v, want %v", k, i, f, want)
			}
		}
	}
}

func TestSoftmaxSymmetry(t *testing.T) {
	strategies := []Strategy{DominanceSharing{}, FatBodySharing{}}
	for _, s := range strategies {
		for _, steepness := range []float64{0, 0.5, 3, 50} {
			got := s.Fractions(0.4, []float64{0.4}, steepness)
			if math.Abs(got[0]-0.5) > 1e-12 {
				t.Errorf("%s steepness %v: fraction = %v, want 0.5", s.Name(), steepness, got[0])
			}
		}
	}
}

func TestSoftmaxZeroSteepnessIsFair(t *testing.T) {
	receivers := []float64{0.1, 0.5, 0.9}
	got := DominanceSharing{}.Fractions(0.7, receivers, 0)
	for i, f := range got {
		if math.Abs(f-0.25) > 1e-12 {
			t.Errorf("fraction[%d] = %v, want 0.25", i, f)
		}
	}
}

func TestSoftmaxSteepFavorsTop(t *testing.T) {
	got := DominanceSharing{}.Fractions(0.1, []float64{0.2, 0.9, 0.3}, 40)
	if got[1] < 0.99 {
		t.Errorf("top receiver got %v, want nearly everything", got[1])
	}
	if s := sum(got); s > 1+1e-12 {
		t.Errorf("fractions sum to %v, want <= 1", s)
	}
}

func TestSoftmaxFormula(t *testing.T) {
	self, s := 0.3, 2.0
	receivers := []float64{0.1, 0.8}
	den := math.Exp(self*s) + math.Exp(0.1*s) + math.Exp(0.8*s)
	got := DominanceSharing{}.Fractions(self, receivers, s)
	for i, r := range receivers {
		want := math.Exp(r*s) / den
		if math.Abs(got[i]-want) > 1e-12 {
			t.Errorf("fraction[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func TestSafeExp(t *testing.T) {
	if got := SafeExp(1); got != math.Exp(1) {
		t.Errorf("SafeExp(1) = %v", got)
	}
	if got := SafeExp(1e6); got != math.MaxFloat64 {
		t.Errorf("SafeExp(1e6) = %v, want MaxFloat64", got)
	}
}

func TestFatBodySharingSaturated(t *testing.T) {
	// exp overflows for every entry; the split must stay finite
	got := FatBodySharing{}.Fractions(1, []float64{1, 1}, 1e6)
	for i, f := range got {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("fraction[%d] = %v", i, f)
		}
		if math.Abs(f-1.0/3) > 1e-12 {
			t.Errorf("fraction[%d] = %v, want 1/3", i, f)
		}
	}
}

func TestFatBodyTraitIsRelative(t *testing.T) {
	a := &components.Agent{FatBody: 3, MaxFatBody: 12}
	if got := (FatBodySharing{}).Trait(a); got != 0.25 {
		t.Errorf("Trait = %v, want 0.25", got)
	}
	b := &components.Agent{Dominance: 0.7}
	if got := (DominanceSharing{}).Trait(b); got != 0.7 {
		t.Errorf("Trait = %v, want 0.7", got)
	}
}
