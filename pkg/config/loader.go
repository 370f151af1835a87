package config

import (
	"fmt"
	"os"
)

// LoadScenario loads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	scenario, err := ParseScenarioYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	return scenario, nil
}

// validateScenario checks structural soundness only. Business plausibility
// of distribution parameters is not checked here: the core must accept and
// use whatever specs it is given, defaults included.
func validateScenario(s *Scenario) error {
	if len(s.Policies) == 0 {
		return fmt.Errorf("at least one policy row must be defined")
	}

	seen := make(map[string]bool)
	for i, row := range s.Policies {
		if row.LocationID == "" {
			return fmt.Errorf("policy %d: location_id cannot be empty", i)
		}
		if row.ProductID == "" {
			return fmt.Errorf("policy %d: product_id cannot be empty", i)
		}
		key := row.LocationID + "/" + row.ProductID
		if seen[key] {
			return fmt.Errorf("duplicate policy row for %s", key)
		}
		seen[key] = true
	}

	demandProducts := make(map[string]bool)
	for i, e := range s.Demand {
		if e.ProductID == "" {
			return fmt.Errorf("demand entry %d: product_id cannot be empty", i)
		}
		if demandProducts[e.ProductID] {
			return fmt.Errorf("duplicate demand entry for product %s", e.ProductID)
		}
		demandProducts[e.ProductID] = true
	}

	leadKeys := make(map[string]bool)
	for i, e := range s.LeadTimes {
		if e.LocationID == "" || e.ProductID == "" {
			return fmt.Errorf("lead time entry %d: location_id and product_id cannot be empty", i)
		}
		key := e.LocationID + "/" + e.ProductID
		if leadKeys[key] {
			return fmt.Errorf("duplicate lead time entry for %s", key)
		}
		leadKeys[key] = true
	}

	if s.Simulation.HorizonDays <= 0 {
		return fmt.Errorf("simulation horizon_days must be positive, got %d", s.Simulation.HorizonDays)
	}
	if s.Simulation.Replications <= 0 {
		return fmt.Errorf("simulation replications must be positive, got %d", s.Simulation.Replications)
	}

	if s.Search != nil {
		if s.Search.PopulationSize < 0 {
			return fmt.Errorf("search population_size cannot be negative, got %d", s.Search.PopulationSize)
		}
		if s.Search.MaxGenerations < 0 {
			return fmt.Errorf("search max_generations cannot be negative, got %d", s.Search.MaxGenerations)
		}
	}

	return nil
}
