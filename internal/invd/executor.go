package invd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/stocksim/inventory-core/internal/orchestrate"
	"github.com/stocksim/inventory-core/pkg/config"
	"github.com/stocksim/inventory-core/pkg/logger"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
)

// RunExecutor manages asynchronous run execution and per-run cancellation.
// Each started run owns a goroutine and a cancel func; Stop cancels the
// context, which the orchestrator observes between policies.
type RunExecutor struct {
	store        *RunStore
	orchestrator *orchestrate.Orchestrator

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	done    sync.WaitGroup
}

func NewRunExecutor(store *RunStore, orchestrator *orchestrate.Orchestrator) *RunExecutor {
	if orchestrator == nil {
		orchestrator = orchestrate.New()
	}
	return &RunExecutor{
		store:        store,
		orchestrator: orchestrator,
		cancels:      make(map[string]context.CancelFunc),
	}
}

// Start begins executing a run asynchronously and returns the updated
// (RUNNING) state. Starting a running run is a no-op; terminal runs fail.
func (e *RunExecutor) Start(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	rec, ok := e.store.Get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	switch {
	case rec.Run.Status == StatusRunning:
		return rec, nil
	case rec.Run.Status.Terminal():
		return nil, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	updated, err := e.store.SetStatus(runID, StatusRunning, "")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	if old, exists := e.cancels[runID]; exists {
		old()
	}
	e.cancels[runID] = cancel
	e.mu.Unlock()

	e.done.Add(1)
	go func() {
		defer e.done.Done()
		e.runOptimization(ctx, runID)
	}()
	return updated, nil
}

// Stop requests cancellation for a run and marks it cancelled.
func (e *RunExecutor) Stop(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	e.mu.Lock()
	cancel, ok := e.cancels[runID]
	e.mu.Unlock()

	if ok {
		cancel()
	}

	if _, found := e.store.Get(runID); !found {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return e.store.SetStatus(runID, StatusCancelled, "")
}

// Wait blocks until every started run goroutine has exited. Used on
// shutdown and in tests.
func (e *RunExecutor) Wait() {
	e.done.Wait()
}

func (e *RunExecutor) cleanup(runID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[runID]; ok {
		cancel()
		delete(e.cancels, runID)
	}
	e.mu.Unlock()
}

func (e *RunExecutor) runOptimization(ctx context.Context, runID string) {
	defer e.cleanup(runID)

	rec, ok := e.store.Get(runID)
	if !ok {
		logger.Error("run not found", "run_id", runID)
		return
	}

	scenario, err := config.ParseScenarioYAMLString(rec.ScenarioYAML)
	if err != nil {
		e.fail(runID, fmt.Sprintf("invalid scenario: %v", err))
		return
	}

	logger.Info("starting optimization", "run_id", runID,
		"policies", len(scenario.Policies),
		"replications", scenario.Simulation.Replications)

	result, err := e.orchestrator.Run(ctx, scenario)
	if err != nil {
		if ctx.Err() != nil {
			// Stop already set the cancelled status.
			logger.Info("optimization cancelled", "run_id", runID)
			return
		}
		e.fail(runID, err.Error())
		return
	}

	if err := e.store.SetResult(runID, result); err != nil {
		logger.Error("failed to set result", "run_id", runID, "error", err)
	}

	// Complete only if Stop did not race the finish.
	rec, err = e.store.CompleteIfRunning(runID)
	if err != nil {
		logger.Error("failed to set completed status", "run_id", runID, "error", err)
		return
	}
	if rec.Run.Status == StatusCompleted {
		logger.Info("run completed", "run_id", runID,
			"total_cost", result.KPIs.TotalCost,
			"avg_fill_rate", result.KPIs.AvgFillRate)
	}
}

func (e *RunExecutor) fail(runID, msg string) {
	logger.Error("optimization failed", "run_id", runID, "error", msg)
	if _, err := e.store.SetStatus(runID, StatusFailed, msg); err != nil {
		logger.Error("failed to set failed status", "run_id", runID, "error", err)
	}
}
