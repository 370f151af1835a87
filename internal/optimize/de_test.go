package optimize

import (
	"math"
	"testing"

	"github.com/stocksim/inventory-core/internal/sim"
)

func quadraticObjective(targetS, targetUp int) Objective {
	return func(p sim.Policy) float64 {
		if !p.Valid() {
			return sim.PenaltyCost
		}
		ds := float64(p.ReorderPoint - targetS)
		du := float64(p.OrderUpTo - targetUp)
		return ds*ds + du*du
	}
}

func testBounds() Bounds {
	return Bounds{
		S:         Interval{Low: 1, High: 400},
		OrderUpTo: Interval{Low: 2, High: 800},
	}
}

func TestRunFindsQuadraticMinimum(t *testing.T) {
	res := Run(Config{PopulationSize: 30, MaxGenerations: 60, Seed: 42},
		testBounds(), quadraticObjective(150, 420))

	if !res.Best.Valid() {
		t.Fatalf("best candidate invalid: %+v", res.Best)
	}
	if math.Abs(float64(res.Best.ReorderPoint-150)) > 5 {
		t.Errorf("best s = %d, want ~150", res.Best.ReorderPoint)
	}
	if math.Abs(float64(res.Best.OrderUpTo-420)) > 5 {
		t.Errorf("best S = %d, want ~420", res.Best.OrderUpTo)
	}
}

func TestRunDeterminism(t *testing.T) {
	cfg := Config{PopulationSize: 15, MaxGenerations: 20, Seed: 7}
	a := Run(cfg, testBounds(), quadraticObjective(100, 300))
	b := Run(cfg, testBounds(), quadraticObjective(100, 300))

	if a.Best != b.Best || a.BestCost != b.BestCost {
		t.Errorf("same seed produced different results: %+v vs %+v", a, b)
	}
	if len(a.Generations) != len(b.Generations) {
		t.Fatalf("history lengths differ: %d vs %d", len(a.Generations), len(b.Generations))
	}
	for i := range a.Generations {
		if a.Generations[i] != b.Generations[i] {
			t.Errorf("generation %d diverged: %+v vs %+v", i, a.Generations[i], b.Generations[i])
		}
	}
}

func TestEveryCandidateWithinBounds(t *testing.T) {
	bounds := Bounds{
		S:         Interval{Low: 10, High: 90},
		OrderUpTo: Interval{Low: 20, High: 180},
	}
	objective := func(p sim.Policy) float64 {
		if p.ReorderPoint < bounds.S.Low || p.ReorderPoint > bounds.S.High {
			t.Fatalf("candidate s=%d outside [%d,%d]", p.ReorderPoint, bounds.S.Low, bounds.S.High)
		}
		if p.OrderUpTo < bounds.OrderUpTo.Low || p.OrderUpTo > bounds.OrderUpTo.High {
			t.Fatalf("candidate S=%d outside [%d,%d]", p.OrderUpTo, bounds.OrderUpTo.Low, bounds.OrderUpTo.High)
		}
		if !p.Valid() {
			return sim.PenaltyCost
		}
		return float64(p.OrderUpTo + p.ReorderPoint)
	}
	Run(Config{PopulationSize: 12, MaxGenerations: 25, Seed: 3}, bounds, objective)
}

func TestBestCostNonIncreasing(t *testing.T) {
	res := Run(Config{PopulationSize: 15, MaxGenerations: 40, Seed: 11},
		testBounds(), quadraticObjective(200, 500))

	if len(res.Generations) != 40 {
		t.Fatalf("expected 40 generation records, got %d", len(res.Generations))
	}
	for i := 1; i < len(res.Generations); i++ {
		if res.Generations[i].BestCost > res.Generations[i-1].BestCost {
			t.Fatalf("best cost increased at generation %d: %v -> %v",
				i, res.Generations[i-1].BestCost, res.Generations[i].BestCost)
		}
	}
	last := res.Generations[len(res.Generations)-1]
	if last.BestCost != res.BestCost {
		t.Errorf("final history cost %v != result cost %v", last.BestCost, res.BestCost)
	}
}

func TestInvalidCandidatesPenalizedNotFatal(t *testing.T) {
	// Bounds that overlap heavily, so many candidates have S <= s. The run
	// must complete and return a valid best as long as any valid point is
	// reachable.
	bounds := Bounds{
		S:         Interval{Low: 50, High: 200},
		OrderUpTo: Interval{Low: 50, High: 200},
	}
	objective := quadraticObjective(60, 190)
	res := Run(Config{PopulationSize: 20, MaxGenerations: 30, Seed: 5}, bounds, objective)

	if !res.Best.Valid() {
		t.Fatalf("best candidate invalid: %+v", res.Best)
	}
	if res.BestCost >= sim.PenaltyCost {
		t.Errorf("best cost %v stuck at penalty", res.BestCost)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.PopulationSize != DefaultPopulationSize {
		t.Errorf("default population = %d", cfg.PopulationSize)
	}
	if cfg.MaxGenerations != DefaultMaxGenerations {
		t.Errorf("default generations = %d", cfg.MaxGenerations)
	}
	if cfg.Weight != DefaultWeight || cfg.Crossover != DefaultCrossover {
		t.Errorf("default F/CR = %v/%v", cfg.Weight, cfg.Crossover)
	}

	tiny := Config{PopulationSize: 2}.withDefaults()
	if tiny.PopulationSize < 4 {
		t.Errorf("population below minimum: %d", tiny.PopulationSize)
	}
}

func TestIntervalClamp(t *testing.T) {
	iv := Interval{Low: 10, High: 20}
	tests := []struct{ in, want int }{
		{5, 10}, {10, 10}, {15, 15}, {20, 20}, {25, 20},
	}
	for _, tt := range tests {
		if got := iv.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
