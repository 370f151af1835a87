// Package orchestrate runs a full scenario: for every (location, product)
// policy row it derives search bounds from the seed policy, drives the
// differential evolution optimizer against the replication aggregator,
// re-runs the winner with full detail capture, and reduces the portfolio
// to top-level KPIs.
package orchestrate

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/stocksim/inventory-core/internal/dist"
	"github.com/stocksim/inventory-core/internal/optimize"
	"github.com/stocksim/inventory-core/internal/randx"
	"github.com/stocksim/inventory-core/internal/sim"
	"github.com/stocksim/inventory-core/internal/stats"
	"github.com/stocksim/inventory-core/pkg/config"
	"github.com/stocksim/inventory-core/pkg/logger"
	"github.com/stocksim/inventory-core/pkg/models"
	"github.com/stocksim/inventory-core/pkg/utils"
)

// Defaults used when a product has no demand entry or a (location, product)
// pair has no lead-time entry. Supplying specs is a collaborator concern;
// the core accepts whatever it is given.
var (
	DefaultDemand   = dist.NormalSpec(100, 20)
	DefaultLeadTime = dist.NormalSpec(2, 0.5)
)

// Search-bound spread around the seed policy.
const (
	boundSpreadS         = 200
	boundSpreadOrderUpTo = 300
	minReorderPoint      = 1
	minOrderUpTo         = 2
)

// Orchestrator optimizes every policy of a scenario. Policies are
// independent, so they run concurrently up to the worker limit; each policy
// derives its own seed from the scenario seed and the policy index, keeping
// the result identical for any worker count.
type Orchestrator struct {
	policyWorkers      int
	replicationWorkers int
	log                *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPolicyWorkers bounds how many policies are optimized concurrently.
func WithPolicyWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.policyWorkers = n
		}
	}
}

// WithReplicationWorkers bounds the replication fan-out of each objective
// evaluation.
func WithReplicationWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.replicationWorkers = n
		}
	}
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// New creates an orchestrator with bounded parallelism at both levels.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		policyWorkers:      runtime.GOMAXPROCS(0),
		replicationWorkers: runtime.GOMAXPROCS(0),
		log:                logger.Default,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run optimizes every policy row and aggregates cross-policy KPIs. The only
// error source is context cancellation: the numeric core itself runs to
// completion on any structurally valid scenario.
func (o *Orchestrator) Run(ctx context.Context, sc *config.Scenario) (*models.ScenarioResult, error) {
	results := make([]models.PolicyResult, len(sc.Policies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.policyWorkers)
	for i, row := range sc.Policies {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.optimizePolicy(sc, i, row)
			o.log.Info("policy optimized",
				"location", row.LocationID,
				"product", row.ProductID,
				"best_s", results[i].BestS,
				"best_order_up_to", results[i].BestOrderUpTo,
				"best_cost", results[i].BestCost)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &models.ScenarioResult{
		Policies: results,
		KPIs:     aggregateKPIs(results),
	}
	return res, nil
}

// optimizePolicy runs the full pipeline for one policy row.
func (o *Orchestrator) optimizePolicy(sc *config.Scenario, index int, row config.PolicyRow) models.PolicyResult {
	demand := resolveSpec(sc.DemandFor(row.ProductID))
	leadTime := resolveLeadTime(sc.LeadTimeFor(row.LocationID, row.ProductID))

	safetyStock := stats.SafetyStock(
		demand.Mean(), demand.StdDev(),
		leadTime.Mean(), leadTime.StdDev(),
		sc.Simulation.TargetServiceLevel)
	reorderPoint := stats.ReorderPoint(demand.Mean(), leadTime.Mean(), safetyStock)

	params := sim.Params{
		HorizonDays:           sc.Simulation.HorizonDays,
		OrderingCost:          sc.Costs.OrderingCost,
		HoldingCostPerUnitDay: sc.Costs.HoldingCostPerUnitDay,
		Demand:                demand,
		LeadTime:              leadTime,
	}

	// Every policy owns a derived seed so the portfolio result does not
	// depend on the order policies are processed in.
	policySeed := randx.DeriveSeed(sc.Simulation.Seed, uint64(index))
	runner := sim.NewRunner(params, sc.Simulation.Replications, policySeed, o.replicationWorkers)

	seedPolicy := sim.Policy{ReorderPoint: row.InitialS, OrderUpTo: row.InitialOrderUpTo}
	seedEstimate := runner.Estimate(seedPolicy)

	bounds := deriveBounds(seedPolicy)
	searchCfg := optimize.Config{Seed: policySeed}
	if sc.Search != nil {
		searchCfg.PopulationSize = sc.Search.PopulationSize
		searchCfg.MaxGenerations = sc.Search.MaxGenerations
	}

	result := optimize.Run(searchCfg, bounds, func(p sim.Policy) float64 {
		return runner.Estimate(p).MeanCost
	})

	// Final audited pass over the winner, one detailed outcome per
	// replication.
	outcomes, best := runner.Detailed(result.Best)

	return models.PolicyResult{
		LocationID:       row.LocationID,
		ProductID:        row.ProductID,
		InitialS:         row.InitialS,
		InitialOrderUpTo: row.InitialOrderUpTo,
		BestS:            result.Best.ReorderPoint,
		BestOrderUpTo:    result.Best.OrderUpTo,
		SafetyStock:      safetyStock,
		ReorderPoint:     reorderPoint,
		SeedCost:         seedEstimate.MeanCost,
		BestCost:         result.BestCost,
		Inventory:        best.Inventory,
		Generations:      result.Generations,
		Replications:     replicationDetails(runner, outcomes),
	}
}

// deriveBounds spreads the search box around the seed policy, floored at
// small positive minimums.
func deriveBounds(seed sim.Policy) optimize.Bounds {
	sLow := seed.ReorderPoint - boundSpreadS
	if sLow < minReorderPoint {
		sLow = minReorderPoint
	}
	upLow := seed.OrderUpTo - boundSpreadOrderUpTo
	if upLow < minOrderUpTo {
		upLow = minOrderUpTo
	}
	return optimize.Bounds{
		S:         optimize.Interval{Low: sLow, High: seed.ReorderPoint + boundSpreadS},
		OrderUpTo: optimize.Interval{Low: upLow, High: seed.OrderUpTo + boundSpreadOrderUpTo},
	}
}

func resolveSpec(d config.Distribution, ok bool) dist.Spec {
	if !ok {
		return DefaultDemand
	}
	return toSpec(d)
}

func resolveLeadTime(d config.Distribution, ok bool) dist.Spec {
	if !ok {
		return DefaultLeadTime
	}
	return toSpec(d)
}

func toSpec(d config.Distribution) dist.Spec {
	return dist.Spec{
		Family: dist.ParseFamily(d.Family),
		P1:     d.Param1,
		P2:     d.Param2,
		P3:     d.Param3,
	}
}

// replicationDetails flattens simulator outcomes into audit records,
// including per-replication sample statistics and the cost decomposition.
func replicationDetails(runner *sim.Runner, outcomes []sim.Outcome) []models.ReplicationDetail {
	details := make([]models.ReplicationDetail, len(outcomes))
	for i, out := range outcomes {
		details[i] = models.ReplicationDetail{
			Replication:   i,
			Seed:          runner.ReplicationSeed(i),
			TotalCost:     out.TotalCost,
			HoldingCost:   out.HoldingCost,
			OrderingCost:  out.OrderingCost,
			FillRate:      out.FillRate,
			ServiceLevel:  out.CycleServiceLevel,
			AvgInventory:  out.AvgInventory,
			OrderCount:    out.OrderCount,
			StockoutUnits: out.StockoutUnits,
			DemandMean:    utils.Mean(out.DemandSamples),
			DemandStd:     utils.StdDev(out.DemandSamples),
			LeadTimeMean:  utils.Mean(out.LeadTimeSamples),
			LeadTimeStd:   utils.StdDev(out.LeadTimeSamples),
		}
	}
	return details
}

// aggregateKPIs reduces every final-pass replication of every policy to
// portfolio KPIs.
func aggregateKPIs(results []models.PolicyResult) models.KPIs {
	kpis := models.KPIs{PolicyCount: len(results)}

	var fillSum, levelSum float64
	for _, pr := range results {
		for _, rep := range pr.Replications {
			kpis.TotalCost += rep.TotalCost
			fillSum += rep.FillRate
			levelSum += rep.ServiceLevel
			kpis.ReplicationCount++
		}
	}
	if kpis.ReplicationCount > 0 {
		kpis.AvgFillRate = fillSum / float64(kpis.ReplicationCount)
		kpis.AvgServiceLevel = levelSum / float64(kpis.ReplicationCount)
	}
	return kpis
}
