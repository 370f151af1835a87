// Package sim implements the stochastic day-stepped (s,S) policy simulator
// and the replication aggregator that turns N independent replications into
// a scalar objective plus descriptive statistics.
package sim

import (
	"github.com/stocksim/inventory-core/internal/dist"
	"github.com/stocksim/inventory-core/internal/randx"
)

// Substream identifiers inside one replication. Demand and lead-time draws
// come from independent derived streams so that lead-time sampling never
// perturbs the demand sequence.
const (
	streamDemand   uint64 = 0
	streamLeadTime uint64 = 1
)

// Policy is an (s,S) reorder candidate: order when inventory drops to the
// reorder point s, replenish up to S.
type Policy struct {
	ReorderPoint int `json:"s"`
	OrderUpTo    int `json:"order_up_to"`
}

// Valid reports whether the policy is structurally sound (S > s). Invalid
// policies are not repaired; the aggregator maps them to a penalty cost so
// the optimizer can reject them smoothly.
func (p Policy) Valid() bool {
	return p.OrderUpTo > p.ReorderPoint
}

// Params are the immutable inputs of one replication.
type Params struct {
	HorizonDays           int
	OrderingCost          float64
	HoldingCostPerUnitDay float64
	Demand                dist.Spec
	LeadTime              dist.Spec
}

// Outcome is the observable result of a single replication. It is owned by
// the replication that produced it and never mutated afterwards.
type Outcome struct {
	TotalCost         float64
	HoldingCost       float64
	OrderingCost      float64
	FillRate          float64
	CycleServiceLevel float64
	AvgInventory      float64
	OrderCount        int
	StockoutUnits     float64
	DemandSamples     []float64
	LeadTimeSamples   []float64
}

// Replicate steps the policy forward over the full horizon under sampled
// daily demand. Replenishment is instantaneous to S: the lead time is
// sampled and recorded for reporting and safety-stock sizing but does not
// delay arrival.
func Replicate(params Params, policy Policy, seed int64) Outcome {
	demandRNG := randx.DeriveStream(seed, streamDemand)
	leadRNG := randx.DeriveStream(seed, streamLeadTime)

	horizon := params.HorizonDays
	inventory := float64(policy.OrderUpTo)

	out := Outcome{
		DemandSamples: make([]float64, 0, horizon),
	}

	var totalDemand, inventorySum float64

	for day := 0; day < horizon; day++ {
		demand := dist.Sample(params.Demand, demandRNG)
		out.DemandSamples = append(out.DemandSamples, demand)
		totalDemand += demand

		if inventory < demand {
			out.StockoutUnits += demand - inventory
			inventory = 0
		} else {
			inventory -= demand
		}

		if inventory <= float64(policy.ReorderPoint) {
			out.OrderingCost += params.OrderingCost
			out.OrderCount++
			leadTime := dist.Sample(params.LeadTime, leadRNG)
			out.LeadTimeSamples = append(out.LeadTimeSamples, leadTime)
			inventory = float64(policy.OrderUpTo)
		}

		out.HoldingCost += inventory * params.HoldingCostPerUnitDay
		inventorySum += inventory
	}

	out.TotalCost = out.HoldingCost + out.OrderingCost

	if totalDemand > 0 {
		out.FillRate = (totalDemand - out.StockoutUnits) / totalDemand * 100
	} else {
		out.FillRate = 100
	}

	stockouts := out.StockoutUnits
	if stockouts > float64(horizon) {
		stockouts = float64(horizon)
	}
	if horizon > 0 {
		out.CycleServiceLevel = (float64(horizon) - stockouts) / float64(horizon) * 100
		out.AvgInventory = inventorySum / float64(horizon)
	}

	return out
}
