package invd

import (
	"errors"
	"testing"

	"github.com/stocksim/inventory-core/internal/orchestrate"
)

const smallScenarioYAML = `
policies:
  - location_id: dc-east
    product_id: sku-100
    initial_s: 150
    initial_order_up_to: 400
demand:
  - product_id: sku-100
    family: normal
    param1: 100
    param2: 20
lead_times:
  - location_id: dc-east
    product_id: sku-100
    family: normal
    param1: 2
    param2: 0.5
costs:
  ordering_cost: 100
  holding_cost_per_unit_day: 0.5
simulation:
  horizon_days: 60
  replications: 3
  seed: 7
  target_service_level: 95
search:
  population_size: 4
  max_generations: 2
`

func newTestExecutor(store *RunStore) *RunExecutor {
	return NewRunExecutor(store, orchestrate.New(
		orchestrate.WithPolicyWorkers(2),
		orchestrate.WithReplicationWorkers(2),
	))
}

func TestExecutorRunsToCompletion(t *testing.T) {
	store := NewRunStore(0)
	exec := newTestExecutor(store)

	if _, err := store.Create("run-1", smallScenarioYAML); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec, err := exec.Start("run-1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if rec.Run.Status != StatusRunning {
		t.Fatalf("status after Start = %v, want running", rec.Run.Status)
	}

	exec.Wait()

	rec, ok := store.Get("run-1")
	if !ok {
		t.Fatalf("run disappeared")
	}
	if rec.Run.Status != StatusCompleted {
		t.Fatalf("status = %v (error %q), want completed", rec.Run.Status, rec.Run.Error)
	}
	if rec.Result == nil {
		t.Fatalf("expected result to be stored")
	}
	if rec.Result.KPIs.PolicyCount != 1 {
		t.Errorf("policy count = %d, want 1", rec.Result.KPIs.PolicyCount)
	}
	if len(rec.Result.Policies) != 1 || len(rec.Result.Policies[0].Replications) != 3 {
		t.Errorf("unexpected result shape: %+v", rec.Result.KPIs)
	}
}

func TestExecutorInvalidScenarioFails(t *testing.T) {
	store := NewRunStore(0)
	exec := newTestExecutor(store)

	if _, err := store.Create("run-1", "{{not yaml"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := exec.Start("run-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	exec.Wait()

	rec, _ := store.Get("run-1")
	if rec.Run.Status != StatusFailed {
		t.Fatalf("status = %v, want failed", rec.Run.Status)
	}
	if rec.Run.Error == "" {
		t.Fatalf("expected error message on failed run")
	}
}

func TestExecutorStop(t *testing.T) {
	store := NewRunStore(0)
	exec := newTestExecutor(store)

	if _, err := store.Create("run-1", smallScenarioYAML); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := exec.Start("run-1"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	rec, err := exec.Stop("run-1")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec.Run.Status != StatusCancelled {
		t.Fatalf("status after Stop = %v, want cancelled", rec.Run.Status)
	}

	exec.Wait()

	// The run stays cancelled even if the optimization raced to the finish.
	rec, _ = store.Get("run-1")
	if rec.Run.Status != StatusCancelled {
		t.Fatalf("final status = %v, want cancelled", rec.Run.Status)
	}
	if rec.Run.EndedAtUnixMs == 0 {
		t.Fatalf("expected ended_at_unix_ms set")
	}
}

func TestExecutorStartErrors(t *testing.T) {
	store := NewRunStore(0)
	exec := newTestExecutor(store)

	if _, err := exec.Start(""); !errors.Is(err, ErrRunIDMissing) {
		t.Errorf("Start(\"\") error = %v, want ErrRunIDMissing", err)
	}
	if _, err := exec.Start("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Start(unknown) error = %v, want ErrRunNotFound", err)
	}

	if _, err := store.Create("run-1", smallScenarioYAML); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.SetStatus("run-1", StatusCompleted, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := exec.Start("run-1"); !errors.Is(err, ErrRunTerminal) {
		t.Errorf("Start(terminal) error = %v, want ErrRunTerminal", err)
	}
}

func TestExecutorStopErrors(t *testing.T) {
	exec := newTestExecutor(NewRunStore(0))

	if _, err := exec.Stop(""); !errors.Is(err, ErrRunIDMissing) {
		t.Errorf("Stop(\"\") error = %v, want ErrRunIDMissing", err)
	}
	if _, err := exec.Stop("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Stop(unknown) error = %v, want ErrRunNotFound", err)
	}
}
