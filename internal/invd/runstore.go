// Package invd is the optimization daemon: an in-memory run store, an
// asynchronous executor around the orchestrator, and the HTTP surface that
// exposes them. Runs and results live in memory only; persistence is a
// collaborator concern.
package invd

import (
	"fmt"
	"sync"
	"time"

	"github.com/stocksim/inventory-core/pkg/models"
	"github.com/stocksim/inventory-core/pkg/utils"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Run is the externally visible state of one optimization run.
type Run struct {
	ID              string `json:"id"`
	Status          Status `json:"status"`
	CreatedAtUnixMs int64  `json:"created_at_unix_ms"`
	StartedAtUnixMs int64  `json:"started_at_unix_ms"`
	EndedAtUnixMs   int64  `json:"ended_at_unix_ms"`
	Error           string `json:"error,omitempty"`
}

// RunRecord couples a run with its scenario input and, once completed, its
// result.
type RunRecord struct {
	Run          *Run
	ScenarioYAML string
	Result       *models.ScenarioResult
}

// snapshot returns an isolated copy of the record. The store only ever hands
// out snapshots: callers read and JSON-encode them without holding the store
// lock while the executor keeps mutating the live record. The Result pointer
// is shared as-is; a ScenarioResult is immutable once attached.
func (r *RunRecord) snapshot() *RunRecord {
	runCopy := *r.Run
	return &RunRecord{
		Run:          &runCopy,
		ScenarioYAML: r.ScenarioYAML,
		Result:       r.Result,
	}
}

// RunStore is a mutex-guarded in-memory run registry. Insertion order is
// kept so listings are newest first.
type RunStore struct {
	mu       sync.RWMutex
	runs     map[string]*RunRecord
	order    []string
	capacity int
}

// DefaultStoreCapacity bounds how many runs are retained.
const DefaultStoreCapacity = 1000

// NewRunStore creates a store. Capacity <= 0 selects the default.
func NewRunStore(capacity int) *RunStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &RunStore{
		runs:     make(map[string]*RunRecord),
		capacity: capacity,
	}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create registers a new pending run. An empty run ID is generated. When the
// store is full the oldest terminal run is evicted; if every retained run is
// still live, Create fails.
func (s *RunStore) Create(runID, scenarioYAML string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return nil, fmt.Errorf("run already exists: %s", runID)
	}
	if len(s.runs) >= s.capacity && !s.evictOldestTerminal() {
		return nil, fmt.Errorf("run store full: %d active runs", len(s.runs))
	}

	rec := &RunRecord{
		Run: &Run{
			ID:              runID,
			Status:          StatusPending,
			CreatedAtUnixMs: nowUnixMs(),
		},
		ScenarioYAML: scenarioYAML,
	}
	s.runs[runID] = rec
	s.order = append(s.order, runID)
	return rec.snapshot(), nil
}

// evictOldestTerminal removes the oldest terminal run. Caller holds the lock.
func (s *RunStore) evictOldestTerminal() bool {
	for i, id := range s.order {
		rec, ok := s.runs[id]
		if !ok || rec.Run.Status.Terminal() {
			delete(s.runs, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns a snapshot of the record for a run ID.
func (s *RunStore) Get(runID string) (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	return rec.snapshot(), true
}

// List returns snapshots of up to limit records, newest first. Limit <= 0
// selects 50.
func (s *RunStore) List(limit int) []*RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]*RunRecord, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		if rec, ok := s.runs[s.order[i]]; ok {
			out = append(out, rec.snapshot())
		}
	}
	return out
}

// SetStatus transitions a run, stamping start and end times on the edges.
func (s *RunStore) SetStatus(runID string, status Status, errMsg string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	rec.Run.Status = status
	if errMsg != "" {
		rec.Run.Error = errMsg
	}

	switch {
	case status == StatusRunning:
		if rec.Run.StartedAtUnixMs == 0 {
			rec.Run.StartedAtUnixMs = nowUnixMs()
		}
	case status.Terminal():
		rec.Run.EndedAtUnixMs = nowUnixMs()
	}

	return rec.snapshot(), nil
}

// CompleteIfRunning transitions a run to COMPLETED only if it is still
// RUNNING, so a concurrent Stop always wins.
func (s *RunStore) CompleteIfRunning(runID string) (*RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if rec.Run.Status != StatusRunning {
		return rec.snapshot(), nil
	}
	rec.Run.Status = StatusCompleted
	rec.Run.EndedAtUnixMs = nowUnixMs()
	return rec.snapshot(), nil
}

// SetResult attaches the orchestrator output to a run.
func (s *RunStore) SetResult(runID string, result *models.ScenarioResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	rec.Result = result
	return nil
}
