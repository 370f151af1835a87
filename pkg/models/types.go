// Package models defines the result records shared between the simulator,
// the optimizer, the orchestrator and the HTTP surface. Records are small
// and flat; the orchestrator builds them bottom-up with explicit reductions
// instead of assembling nested literals inline.
package models

// ReplicationDetail is the audited outcome of one replication of the final
// (winning) policy, including the decomposition used for presentation.
type ReplicationDetail struct {
	Replication   int     `json:"replication"`
	Seed          int64   `json:"seed"`
	TotalCost     float64 `json:"total_cost"`
	HoldingCost   float64 `json:"holding_cost"`
	OrderingCost  float64 `json:"ordering_cost"`
	FillRate      float64 `json:"fill_rate"`
	ServiceLevel  float64 `json:"service_level"`
	AvgInventory  float64 `json:"avg_inventory"`
	OrderCount    int     `json:"order_count"`
	StockoutUnits float64 `json:"stockout_units"`

	// Sample statistics observed inside this replication.
	DemandMean   float64 `json:"demand_mean"`
	DemandStd    float64 `json:"demand_std"`
	LeadTimeMean float64 `json:"lead_time_mean"`
	LeadTimeStd  float64 `json:"lead_time_std"`
}

// GenerationRecord is one generation of the optimizer's history: the best
// candidate seen so far and its mean cost. Best cost is non-increasing
// across generations.
type GenerationRecord struct {
	Generation    int     `json:"generation"`
	BestS         int     `json:"best_s"`
	BestOrderUpTo int     `json:"best_order_up_to"`
	BestCost      float64 `json:"best_cost"`
}

// InventoryStats summarizes average inventory across replications.
type InventoryStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// PolicyResult is the full optimization result for one
// (location, product) policy.
type PolicyResult struct {
	LocationID string `json:"location_id"`
	ProductID  string `json:"product_id"`

	InitialS         int `json:"initial_s"`
	InitialOrderUpTo int `json:"initial_order_up_to"`
	BestS            int `json:"best_s"`
	BestOrderUpTo    int `json:"best_order_up_to"`

	SafetyStock  int `json:"safety_stock"`
	ReorderPoint int `json:"reorder_point"`

	// SeedCost is the mean cost of the unoptimized seed policy under the
	// same configuration; BestCost is the optimizer's winner.
	SeedCost float64 `json:"seed_cost"`
	BestCost float64 `json:"best_cost"`

	Inventory    InventoryStats      `json:"inventory"`
	Generations  []GenerationRecord  `json:"generations"`
	Replications []ReplicationDetail `json:"replications"`
}

// KPIs are portfolio-level aggregates across every replication of every
// policy's final detailed pass. TotalCost is the grand sum over those
// replications; the fill rate and service level fields are means.
type KPIs struct {
	TotalCost        float64 `json:"total_cost"`
	AvgFillRate      float64 `json:"avg_fill_rate"`
	AvgServiceLevel  float64 `json:"avg_service_level"`
	PolicyCount      int     `json:"policy_count"`
	ReplicationCount int     `json:"replication_count"`
}

// ScenarioResult is the top-level output of one orchestrator run.
type ScenarioResult struct {
	Policies []PolicyResult `json:"policies"`
	KPIs     KPIs           `json:"kpis"`
}
