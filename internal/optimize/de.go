// Package optimize implements a differential evolution search over (s,S)
// policy candidates. The optimizer is a bounded heuristic: it never fails
// for lack of improvement, it simply returns the best candidate at the end
// of the generation budget together with the per-generation history.
package optimize

import (
	"math"

	"github.com/stocksim/inventory-core/internal/randx"
	"github.com/stocksim/inventory-core/internal/sim"
	"github.com/stocksim/inventory-core/pkg/models"
)

// DE control parameters. F is the differential weight applied to the vector
// difference, CR the per-dimension crossover probability.
const (
	DefaultWeight    = 0.8
	DefaultCrossover = 0.9

	DefaultPopulationSize = 20
	DefaultMaxGenerations = 30
)

const dims = 2 // (s, S)

// Interval is an inclusive integer search range for one dimension.
type Interval struct {
	Low  int
	High int
}

// Clamp forces v into the interval.
func (iv Interval) Clamp(v int) int {
	if v < iv.Low {
		return iv.Low
	}
	if v > iv.High {
		return iv.High
	}
	return v
}

// Bounds is the search box for (s, S).
type Bounds struct {
	S         Interval
	OrderUpTo Interval
}

// Objective scores a candidate policy; lower is better. Invalid candidates
// (S <= s) must map to a very large cost rather than an error so the search
// can traverse them.
type Objective func(sim.Policy) float64

// Config controls one optimization run. Zero values fall back to defaults.
type Config struct {
	PopulationSize int
	MaxGenerations int
	Weight         float64
	Crossover      float64
	Seed           int64
}

func (c Config) withDefaults() Config {
	if c.PopulationSize <= 0 {
		c.PopulationSize = DefaultPopulationSize
	}
	if c.PopulationSize < 4 { // need three distinct partners per member
		c.PopulationSize = 4
	}
	if c.MaxGenerations <= 0 {
		c.MaxGenerations = DefaultMaxGenerations
	}
	if c.Weight <= 0 {
		c.Weight = DefaultWeight
	}
	if c.Crossover <= 0 {
		c.Crossover = DefaultCrossover
	}
	return c
}

// Result is the outcome of one run: the best candidate of the final
// population and the per-generation best history.
type Result struct {
	Best        sim.Policy
	BestCost    float64
	Generations []models.GenerationRecord
}

// Run executes differential evolution within bounds. All randomness comes
// from a single stream derived from cfg.Seed, so a run is a pure function
// of (cfg, bounds, objective).
func Run(cfg Config, bounds Bounds, objective Objective) Result {
	cfg = cfg.withDefaults()
	rng := randx.NewStream(cfg.Seed)

	pop := make([]sim.Policy, cfg.PopulationSize)
	costs := make([]float64, cfg.PopulationSize)
	for i := range pop {
		pop[i] = sim.Policy{
			ReorderPoint: rng.IntBetween(bounds.S.Low, bounds.S.High),
			OrderUpTo:    rng.IntBetween(bounds.OrderUpTo.Low, bounds.OrderUpTo.High),
		}
		costs[i] = objective(pop[i])
	}

	history := make([]models.GenerationRecord, 0, cfg.MaxGenerations)

	for gen := 0; gen < cfg.MaxGenerations; gen++ {
		for i := range pop {
			a, b, c := pickPartners(rng, len(pop), i)

			mutantS := mutate(pop[a].ReorderPoint, pop[b].ReorderPoint, pop[c].ReorderPoint, cfg.Weight)
			mutantUp := mutate(pop[a].OrderUpTo, pop[b].OrderUpTo, pop[c].OrderUpTo, cfg.Weight)
			mutant := sim.Policy{
				ReorderPoint: bounds.S.Clamp(mutantS),
				OrderUpTo:    bounds.OrderUpTo.Clamp(mutantUp),
			}

			trial := crossover(rng, pop[i], mutant, cfg.Crossover)

			trialCost := objective(trial)
			if trialCost < costs[i] { // greedy selection, ties keep the parent
				pop[i] = trial
				costs[i] = trialCost
			}
		}

		best := bestIndex(costs)
		history = append(history, models.GenerationRecord{
			Generation:    gen,
			BestS:         pop[best].ReorderPoint,
			BestOrderUpTo: pop[best].OrderUpTo,
			BestCost:      costs[best],
		})
	}

	best := bestIndex(costs)
	return Result{
		Best:        pop[best],
		BestCost:    costs[best],
		Generations: history,
	}
}

// pickPartners draws three distinct member indices, all different from i.
func pickPartners(rng *randx.Stream, size, i int) (int, int, int) {
	idx := [3]int{}
	for k := 0; k < 3; {
		candidate := rng.Intn(size)
		if candidate == i {
			continue
		}
		dup := false
		for j := 0; j < k; j++ {
			if idx[j] == candidate {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		idx[k] = candidate
		k++
	}
	return idx[0], idx[1], idx[2]
}

// mutate computes a + F*(b - c) rounded to the nearest integer.
func mutate(a, b, c int, weight float64) int {
	return int(math.Round(float64(a) + weight*float64(b-c)))
}

// crossover combines parent and mutant dimension-wise, keeping the mutant
// value with probability cr. One dimension is always taken from the mutant
// so the trial is never a clone of the parent.
func crossover(rng *randx.Stream, parent, mutant sim.Policy, cr float64) sim.Policy {
	forced := rng.Intn(dims)
	trial := parent
	if rng.Next() < cr || forced == 0 {
		trial.ReorderPoint = mutant.ReorderPoint
	}
	if rng.Next() < cr || forced == 1 {
		trial.OrderUpTo = mutant.OrderUpTo
	}
	return trial
}

func bestIndex(costs []float64) int {
	best := 0
	for i, c := range costs {
		if c < costs[best] {
			best = i
		}
	}
	return best
}
