// Package systems implements food sharing between agents.
package systems

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/dol/components"
	"github.com/pthm-cable/dol/config"
)

// ErrUnknownModel is returned for an unrecognized sharing model name.
var ErrUnknownModel = errors.New("unknown sharing model")

// maxExpInput is the largest x for which math.Exp(x) is finite.
var maxExpInput = math.Log(math.MaxFloat64)

// Strategy apportions a forager's crop among a group of receivers.
// Implementations are stateless.
type Strategy interface {
	// Name returns the config name of the model.
	Name() string
	// Trait returns the value the model ranks an agent by.
	Trait(a *components.Agent) float64
	// Fractions returns the share of the forager's crop offered to each
	// receiver, given the forager's own trait.
	Fractions(self float64, receivers []float64, steepness float64) []float64
}

// ParseModel returns the strategy for a config model name.
func ParseModel(name string) (Strategy, error) {
	switch name {
	case config.ModelNone:
		return NoSharing{}, nil
	case config.ModelFair:
		return FairSharing{}, nil
	case config.ModelDominance:
		return DominanceSharing{}, nil
	case config.ModelFatBody:
		return FatBodySharing{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// NoSharing keeps the whole crop with the forager.
type NoSharing struct{}

func (NoSharing) Name() string                     { return config.ModelNone }
func (NoSharing) Trait(a *components.Agent) float64 { return 0 }

func (NoSharing) Fractions(_ float64, receivers []float64, _ float64) []float64 {
	return make([]float64, len(receivers))
}

// FairSharing splits the crop equally among receivers and the forager.
type FairSharing struct{}

func (FairSharing) Name() string                     { return config.ModelFair }
func (FairSharing) Trait(a *components.Agent) float64 { return 0 }

func (FairSharing) Fractions(_ float64, receivers []float64, _ float64) []float64 {
	out := make([]float64, len(receivers))
	share := 1.0 / float64(len(receivers)+1)
	for i := range out {
		out[i] = share
	}
	return out
}

// DominanceSharing gives each receiver a softmax share of its fixed
// dominance trait against the group and the forager.
type DominanceSharing struct{}

func (DominanceSharing) Name() string                     { return config.ModelDominance }
func (DominanceSharing) Trait(a *components.Agent) float64 { return a.Dominance }

func (DominanceSharing) Fractions(self float64, receivers []float64, steepness float64) []float64 {
	return softmax(self, receivers, steepness, math.Exp)
}

// FatBodySharing is DominanceSharing keyed on relative fat body instead.
type FatBodySharing struct{}

func (FatBodySharing) Name() string { return config.ModelFatBody }

func (FatBodySharing) Trait(a *components.Agent) float64 {
	if a.MaxFatBody <= 0 {
		return 0
	}
	return a.FatBody / a.MaxFatBody
}

func (FatBodySharing) Fractions(self float64, receivers []float64, steepness float64) []float64 {
	return softmax(self, receivers, steepness, SafeExp)
}

// SafeExp returns exp(x), or math.MaxFloat64 where exp(x) would overflow.
func SafeExp(x float64) float64 {
	if x > maxExpInput {
		return math.MaxFloat64
	}
	return math.Exp(x)
}

// softmax returns exp(s*r_i) / (exp(s*self) + sum_j exp(s*r_j)) per receiver.
func softmax(self float64, receivers []float64, steepness float64, exp func(float64) float64) []float64 {
	out := make([]float64, len(receivers))
	total := exp(self * steepness)
	for i, r := range receivers {
		out[i] = exp(r * steepness)
		total += out[i]
	}
	if total == 0 || math.IsInf(total, 1) {
		// saturated weights: split evenly among the saturated entries
		return saturatedShares(self, receivers, steepness, exp)
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func saturatedShares(self float64, receivers []float64, steepness float64, exp func(float64) float64) []float64 {
	out := make([]float64, len(receivers))
	top := math.Max(exp(self*steepness), 0)
	for _, r := range receivers {
		top = math.Max(top, exp(r*steepness))
	}
	count := 0
	if exp(self*steepness) == top {
		count++
	}
	for _, r := range receivers {
		if exp(r*steepness) == top {
			count++
		}
	}
	for i, r := range receivers {
		if exp(r*steepness) == top {
			out[i] = 1 / float64(count)
		}
	}
	return out
}
