package random

import (
	"math"
	"testing"
)

func TestSourceDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	a.SetThresholdDist(5, 1.7)
	b.SetThresholdDist(5, 1.7)

	for i := 0; i < 1000; i++ {
		if x, y := a.Uniform(), b.Uniform(); x != y {
			t.Fatalf("draw %d: Uniform %v != %v", i, x, y)
		}
		if x, y := a.Threshold(), b.Threshold(); x != y {
			t.Fatalf("draw %d: Threshold %v != %v", i, x, y)
		}
	}
}

func TestSourceSeedsDiffer(t *testing.T) {
	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Uniform() == b.Uniform() {
			same++
		}
	}
	if same > 5 {
		t.Errorf("different seeds produced %d identical draws out of 100", same)
	}
}

func TestThresholdNonNegative(t *testing.T) {
	s := New(7)
	// mean at zero means half of the raw draws need resampling
	s.SetThresholdDist(0, 1)
	for i := 0; i < 10000; i++ {
		if v := s.Threshold(); v < 0 {
			t.Fatalf("Threshold() = %v, want >= 0", v)
		}
	}
}

func TestIntNBounds(t *testing.T) {
	s := New(3)
	if got := s.IntN(0); got != 0 {
		t.Errorf("IntN(0) = %d, want 0", got)
	}
	if got := s.IntN(1); got != 0 {
		t.Errorf("IntN(1) = %d, want 0", got)
	}
	seen := make([]bool, 5)
	for i := 0; i < 1000; i++ {
		v := s.IntN(5)
		if v < 0 || v >= 5 {
			t.Fatalf("IntN(5) = %d out of range", v)
		}
		seen[v] = true
	}
	for i, ok := range seen {
		if !ok {
			t.Errorf("IntN(5) never returned %d", i)
		}
	}
}

func TestNormalMoments(t *testing.T) {
	s := New(11)
	const n = 20000
	var sum, sq float64
	for i := 0; i < n; i++ {
		v := s.Normal(5, 2)
		sum += v
		sq += v * v
	}
	mean := sum / n
	sd := math.Sqrt(sq/n - mean*mean)
	if math.Abs(mean-5) > 0.1 {
		t.Errorf("mean = %v, want ~5", mean)
	}
	if math.Abs(sd-2) > 0.1 {
		t.Errorf("sd = %v, want ~2", sd)
	}
}
