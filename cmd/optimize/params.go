// Package main provides CMA-ES optimization for colony parameters.
package main

import (
	"math"

	"github.com/pthm-cable/dol/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Nursing threshold distribution
			{Name: "threshold_mean", Path: "threshold.mean", Min: 0.5, Max: 11.5, Default: 5},
			{Name: "threshold_sd", Path: "threshold.sd", Min: 0, Max: 4, Default: 1.7},
			// Sharing
			{Name: "steepness", Path: "sharing.steepness", Min: 0, Max: 10, Default: 1},
			{Name: "max_interactions", Path: "sharing.max_interactions", Min: 0, Max: 10, Default: 3},
			// Foraging
			{Name: "foraging_time", Path: "foraging.foraging_time", Min: 0.5, Max: 20, Default: 5},
			{Name: "food_handling_time", Path: "foraging.food_handling_time", Min: 0.05, Max: 5, Default: 0.5},
			// Energy (metabolic costs locked)
			{Name: "proportion_fat_body_forager", Path: "energy.proportion_fat_body_forager", Min: 0, Max: 1, Default: 0.2},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	i := 0
	cfg.Threshold.Mean = clamped[i]; i++
	cfg.Threshold.SD = clamped[i]; i++

	cfg.Sharing.Steepness = clamped[i]; i++
	cfg.Sharing.MaxInteractions = int(math.Round(clamped[i])); i++

	cfg.Foraging.ForagingTime = clamped[i]; i++
	cfg.Foraging.FoodHandlingTime = clamped[i]; i++

	cfg.Energy.ProportionFatBodyForager = clamped[i]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Threshold.Mean,
		cfg.Threshold.SD,
		cfg.Sharing.Steepness,
		float64(cfg.Sharing.MaxInteractions),
		cfg.Foraging.ForagingTime,
		cfg.Foraging.FoodHandlingTime,
		cfg.Energy.ProportionFatBodyForager,
	}
}
