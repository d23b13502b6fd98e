// Package random provides the seeded random source threaded through a run.
package random

import (
	"math/rand/v2"
	"time"
)

// Source draws every random number a colony needs. It is deterministic for
// a given seed and is not safe for concurrent use; each run owns one.
type Source struct {
	rng *rand.Rand

	thresholdMean float64
	thresholdSD   float64
}

// New creates a source from a seed.
func New(seed uint64) *Source {
	return &Source{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// TimeSeed returns a seed derived from the wall clock.
func TimeSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// SetThresholdDist configures the normal distribution behind Threshold.
func (s *Source) SetThresholdDist(mean, sd float64) {
	s.thresholdMean = mean
	s.thresholdSD = sd
}

// Uniform returns a float in [0, 1).
func (s *Source) Uniform() float64 {
	return s.rng.Float64()
}

// IntN returns an int in [0, n). Returns 0 for n <= 1.
func (s *Source) IntN(n int) int {
	if n <= 1 {
		return 0
	}
	return s.rng.IntN(n)
}

// Normal returns a normal draw with mean m and standard deviation sd.
func (s *Source) Normal(m, sd float64) float64 {
	return m + sd*s.rng.NormFloat64()
}

// Threshold returns a draw from the threshold distribution, resampled until
// it is non-negative.
func (s *Source) Threshold() float64 {
	out := s.Normal(s.thresholdMean, s.thresholdSD)
	for out < 0 {
		out = s.Normal(s.thresholdMean, s.thresholdSD)
	}
	return out
}
