package sim

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/stocksim/inventory-core/internal/randx"
	"github.com/stocksim/inventory-core/pkg/models"
	"github.com/stocksim/inventory-core/pkg/utils"
)

// PenaltyCost is returned for structurally invalid candidates (S <= s). It
// dominates any cost a valid policy can produce under sane inputs, so the
// optimizer explores invalid regions without crashing and without keeping
// them.
const PenaltyCost = 1e12

// Runner executes N independent replications of a candidate policy and
// reduces them to an estimate. Replications run in parallel; each owns a
// private stream seeded from DeriveSeed(BaseSeed, replication index), so
// the estimate is identical regardless of worker count.
type Runner struct {
	params       Params
	replications int
	baseSeed     int64
	workers      int
}

// Estimate is the reduction of all replications for one candidate.
type Estimate struct {
	MeanCost         float64
	MeanFillRate     float64
	MeanServiceLevel float64
	Inventory        models.InventoryStats
}

// NewRunner creates a runner. Workers <= 0 selects GOMAXPROCS.
func NewRunner(params Params, replications int, baseSeed int64, workers int) *Runner {
	if replications <= 0 {
		replications = 1
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		params:       params,
		replications: replications,
		baseSeed:     baseSeed,
		workers:      workers,
	}
}

// ReplicationSeed returns the derived seed for one replication index.
func (r *Runner) ReplicationSeed(i int) int64 {
	return randx.DeriveSeed(r.baseSeed, uint64(i))
}

// Estimate evaluates the policy: mean total cost over all replications plus
// descriptive statistics. Invalid candidates short-circuit to PenaltyCost.
func (r *Runner) Estimate(policy Policy) Estimate {
	if !policy.Valid() {
		return Estimate{MeanCost: PenaltyCost}
	}
	outcomes := r.replicate(policy)
	return reduce(outcomes)
}

// Detailed evaluates the policy and also returns every replication outcome,
// for the orchestrator's final audited pass.
func (r *Runner) Detailed(policy Policy) ([]Outcome, Estimate) {
	if !policy.Valid() {
		return nil, Estimate{MeanCost: PenaltyCost}
	}
	outcomes := r.replicate(policy)
	return outcomes, reduce(outcomes)
}

// replicate runs all replications into an index-addressed slice. The
// reduction afterwards is sequential, which keeps floating-point sums
// independent of goroutine scheduling.
func (r *Runner) replicate(policy Policy) []Outcome {
	outcomes := make([]Outcome, r.replications)

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i := 0; i < r.replications; i++ {
		g.Go(func() error {
			outcomes[i] = Replicate(r.params, policy, r.ReplicationSeed(i))
			return nil
		})
	}
	// Replications cannot fail; the group is used only for bounded fan-out.
	_ = g.Wait()

	return outcomes
}

func reduce(outcomes []Outcome) Estimate {
	costs := make([]float64, len(outcomes))
	fills := make([]float64, len(outcomes))
	levels := make([]float64, len(outcomes))
	inventories := make([]float64, len(outcomes))
	for i, o := range outcomes {
		costs[i] = o.TotalCost
		fills[i] = o.FillRate
		levels[i] = o.CycleServiceLevel
		inventories[i] = o.AvgInventory
	}

	min, max := utils.MinMax(inventories)
	return Estimate{
		MeanCost:         utils.Mean(costs),
		MeanFillRate:     utils.Mean(fills),
		MeanServiceLevel: utils.Mean(levels),
		Inventory: models.InventoryStats{
			Min:    min,
			Max:    max,
			Mean:   utils.Mean(inventories),
			StdDev: utils.StdDev(inventories),
		},
	}
}
