package config

// Scenario is the full input of one optimization run: the policy rows to
// optimize, the demand and lead-time tables, financial parameters and the
// simulation block. A Scenario is immutable once handed to the orchestrator.
type Scenario struct {
	Policies   []PolicyRow       `yaml:"policies"`
	Demand     []DemandEntry     `yaml:"demand"`
	LeadTimes  []LeadTimeEntry   `yaml:"lead_times,omitempty"`
	Costs      Costs             `yaml:"costs"`
	Simulation SimulationConfig  `yaml:"simulation"`
	Search     *SearchConfig     `yaml:"search,omitempty"`
}

// PolicyRow is one (stocking location, product) pair with its current
// reorder parameters, used to seed the search.
type PolicyRow struct {
	LocationID       string `yaml:"location_id"`
	ProductID        string `yaml:"product_id"`
	InitialS         int    `yaml:"initial_s"`
	InitialOrderUpTo int    `yaml:"initial_order_up_to"`
}

// Distribution is a family name plus up to three parameters. Meaning depends
// on the family: normal=(mean, stddev), triangular=(min, mode, max),
// uniform=(min, max), poisson=(lambda). Unknown families are sampled as
// normal with (param1, param2).
type Distribution struct {
	Family string  `yaml:"family"`
	Param1 float64 `yaml:"param1"`
	Param2 float64 `yaml:"param2,omitempty"`
	Param3 float64 `yaml:"param3,omitempty"`
}

// DemandEntry binds a daily-demand distribution to a product.
type DemandEntry struct {
	ProductID    string       `yaml:"product_id"`
	Distribution Distribution `yaml:",inline"`
}

// LeadTimeEntry binds a replenishment lead-time distribution to a
// (destination location, product) pair.
type LeadTimeEntry struct {
	LocationID   string       `yaml:"location_id"`
	ProductID    string       `yaml:"product_id"`
	Distribution Distribution `yaml:",inline"`
}

// Costs are the financial parameters shared by every policy.
type Costs struct {
	OrderingCost          float64 `yaml:"ordering_cost"`
	HoldingCostPerUnitDay float64 `yaml:"holding_cost_per_unit_day"`
}

// SimulationConfig is the global simulation block, immutable for the
// duration of one run.
type SimulationConfig struct {
	HorizonDays        int     `yaml:"horizon_days"`
	Replications       int     `yaml:"replications"`
	Seed               int64   `yaml:"seed"`
	TargetServiceLevel float64 `yaml:"target_service_level"`
}

// SearchConfig tunes the differential evolution budget. Absent values fall
// back to the optimizer defaults.
type SearchConfig struct {
	PopulationSize int `yaml:"population_size,omitempty"`
	MaxGenerations int `yaml:"max_generations,omitempty"`
}

// DemandFor returns the demand distribution for a product.
func (s *Scenario) DemandFor(productID string) (Distribution, bool) {
	for _, e := range s.Demand {
		if e.ProductID == productID {
			return e.Distribution, true
		}
	}
	return Distribution{}, false
}

// LeadTimeFor returns the lead-time distribution for a (location, product)
// pair.
func (s *Scenario) LeadTimeFor(locationID, productID string) (Distribution, bool) {
	for _, e := range s.LeadTimes {
		if e.LocationID == locationID && e.ProductID == productID {
			return e.Distribution, true
		}
	}
	return Distribution{}, false
}
