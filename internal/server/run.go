package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cwbudde/archipelago/internal/store"
	"github.com/google/uuid"
)

// RunState represents the current state of a run
type RunState string

const (
	StatePending   RunState = "pending"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
	StateCancelled RunState = "cancelled"
)

// RunConfig is an alias to avoid duplication with store.RunConfig
type RunConfig = store.RunConfig

// Run represents an optimization run
type Run struct {
	ID             string     `json:"id"`
	State          RunState   `json:"state"`
	Config         RunConfig  `json:"config"`
	BestDecision   []float64  `json:"bestDecision,omitempty"`
	BestFitness    []float64  `json:"bestFitness,omitempty"`
	InitialFitness []float64  `json:"initialFitness,omitempty"`
	Epoch          int        `json:"epoch"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	Error          string     `json:"error,omitempty"`

	cancel context.CancelFunc
}

// snapshot copies the run for use outside the manager's lock. The worker
// mutates the live struct through UpdateRun, so handlers must never hold the
// stored pointer while encoding.
func (r *Run) snapshot() *Run {
	snap := *r
	snap.cancel = nil
	snap.BestDecision = append([]float64(nil), r.BestDecision...)
	snap.BestFitness = append([]float64(nil), r.BestFitness...)
	snap.InitialFitness = append([]float64(nil), r.InitialFitness...)
	if r.EndTime != nil {
		end := *r.EndTime
		snap.EndTime = &end
	}
	return &snap
}

// RunManager manages the lifecycle of runs
type RunManager struct {
	mu          sync.RWMutex
	runs        map[string]*Run
	broadcaster *EventBroadcaster
}

// NewRunManager creates a new RunManager
func NewRunManager() *RunManager {
	return &RunManager{
		runs:        make(map[string]*Run),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateRun creates a new run with the given configuration
func (rm *RunManager) CreateRun(config RunConfig) *Run {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	run := &Run{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
	}

	rm.runs[run.ID] = run
	return run.snapshot()
}

// GetRun retrieves a snapshot of a run by ID
func (rm *RunManager) GetRun(id string) (*Run, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	run, exists := rm.runs[id]
	if !exists {
		return nil, false
	}
	return run.snapshot(), true
}

// ListRuns returns snapshots of all runs
func (rm *RunManager) ListRuns() []*Run {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	runs := make([]*Run, 0, len(rm.runs))
	for _, run := range rm.runs {
		runs = append(runs, run.snapshot())
	}
	return runs
}

// UpdateRun atomically updates a run using the provided function
func (rm *RunManager) UpdateRun(id string, updateFn func(*Run)) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	run, exists := rm.runs[id]
	if !exists {
		return fmt.Errorf("run not found: %s", id)
	}

	updateFn(run)
	return nil
}

// CancelRun requests cancellation of a running run. The run finishes its
// current epoch before stopping.
func (rm *RunManager) CancelRun(id string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	run, exists := rm.runs[id]
	if !exists {
		return fmt.Errorf("run not found: %s", id)
	}
	if run.State != StatePending && run.State != StateRunning {
		return fmt.Errorf("run %s is not active (state %s)", id, run.State)
	}
	if run.cancel != nil {
		run.cancel()
	}
	return nil
}

// ActiveRuns returns snapshots of all runs currently pending or running
func (rm *RunManager) ActiveRuns() []*Run {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	active := make([]*Run, 0)
	for _, run := range rm.runs {
		if run.State == StatePending || run.State == StateRunning {
			active = append(active, run.snapshot())
		}
	}
	return active
}
