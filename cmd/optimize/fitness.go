package main

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/dol/config"
	"github.com/pthm-cable/dol/experiment"
	"github.com/pthm-cable/dol/telemetry"
)

// Objectives selectable with -objective.
const (
	ObjectiveGorelick = "gorelick" // Normalized mutual information
	ObjectiveGautrais = "gautrais"
	ObjectiveDuarte   = "duarte"
)

// FitnessEvaluator runs replicates and scores their division of labor.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []uint64
	baseConfig *config.Config
	objective  string
	target     float64 // NaN = maximize the objective
	workers    int

	mu          sync.Mutex
	bestFitness float64
	bestDoL     telemetry.DoL
	lastDoL     telemetry.DoL // mean indices from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []uint64, baseCfg *config.Config, objective string, target float64, workers int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		seeds:       seeds,
		baseConfig:  baseCfg,
		objective:   objective,
		target:      target,
		workers:     max(workers, 1),
		bestFitness: math.Inf(1),
	}
}

// BestDoL returns the mean indices of the best evaluation.
func (fe *FitnessEvaluator) BestDoL() telemetry.DoL {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestDoL
}

// LastDoL returns the mean indices from the most recent evaluation.
func (fe *FitnessEvaluator) LastDoL() telemetry.DoL {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastDoL
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel
	results := make([]telemetry.DoL, len(fe.seeds))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(fe.workers)
	for i, seed := range fe.seeds {
		g.Go(func() error {
			res, err := experiment.RunReplicate(ctx, cfg, i, seed, experiment.Options{})
			if err != nil {
				return err
			}
			results[i] = res.Summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Invalid corners of the search space score worst.
		return math.Inf(1)
	}

	mean := meanDoL(results)
	fitness := fe.computeFitness(mean)

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestDoL = mean
	}
	fe.lastDoL = mean
	fe.mu.Unlock()

	return fitness
}

// copyConfig returns a copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness scores the mean indices of an evaluation. Without a target
// the objective is maximized; with one, the distance to it is minimized.
func (fe *FitnessEvaluator) computeFitness(d telemetry.DoL) float64 {
	v := objectiveValue(d, fe.objective)
	if math.IsNaN(fe.target) {
		return -v
	}
	return math.Abs(v - fe.target)
}

func objectiveValue(d telemetry.DoL, objective string) float64 {
	switch objective {
	case ObjectiveGautrais:
		return d.Gautrais
	case ObjectiveDuarte:
		return d.Duarte
	default:
		return d.GorelickBoth
	}
}

// meanDoL averages indices over seeds.
func meanDoL(ds []telemetry.DoL) telemetry.DoL {
	if len(ds) == 0 {
		return telemetry.DoL{}
	}
	col := func(f func(telemetry.DoL) float64) float64 {
		v := make([]float64, len(ds))
		for i, d := range ds {
			v[i] = f(d)
		}
		return stat.Mean(v, nil)
	}
	return telemetry.DoL{
		MinT:          ds[0].MinT,
		MaxT:          ds[0].MaxT,
		Gautrais:      col(func(d telemetry.DoL) float64 { return d.Gautrais }),
		Duarte:        col(func(d telemetry.DoL) float64 { return d.Duarte }),
		GorelickTasks: col(func(d telemetry.DoL) float64 { return d.GorelickTasks }),
		GorelickIndiv: col(func(d telemetry.DoL) float64 { return d.GorelickIndiv }),
		GorelickBoth:  col(func(d telemetry.DoL) float64 { return d.GorelickBoth }),
	}
}
