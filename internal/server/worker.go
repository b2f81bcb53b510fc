package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/archipelago/internal/archipelago"
	"github.com/cwbudde/archipelago/internal/store"
)

// runOptimization executes an optimization run in the background.
// If checkpointStore is not nil, a checkpoint is saved after every epoch.
// If dataDir is non-empty, per-epoch trace entries are written beneath it.
func runOptimization(ctx context.Context, rm *RunManager, checkpointStore store.Store, dataDir, runID string) error {
	run, exists := rm.GetRun(runID)
	if !exists {
		return fmt.Errorf("run not found: %s", runID)
	}
	config := run.Config

	err := rm.UpdateRun(runID, func(r *Run) {
		r.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting run", "run_id", runID, "problem", config.Problem, "islands", config.Islands)

	prob, err := buildProblem(config)
	if err != nil {
		markRunFailed(rm, runID, err)
		return err
	}

	arch, err := archipelago.New(prob, saFactory(config), archipelagoConfig(config))
	if err != nil {
		markRunFailed(rm, runID, err)
		return err
	}

	// Record the seeded best so improvement is measurable.
	initial, err := arch.Best()
	if err != nil {
		markRunFailed(rm, runID, err)
		return err
	}
	rm.UpdateRun(runID, func(r *Run) {
		r.InitialFitness = initial.Fitness()
		r.BestDecision = initial.Decision()
		r.BestFitness = initial.Fitness()
	})

	var trace *store.TraceWriter
	if dataDir != "" {
		trace, err = store.NewTraceWriter(dataDir, runID, false)
		if err != nil {
			markRunFailed(rm, runID, err)
			return err
		}
		defer trace.Close()
	}

	start := time.Now()

	onProgress := func(p archipelago.Progress) {
		best, bestErr := arch.Best()
		if bestErr != nil {
			slog.Error("Failed to read archipelago best", "run_id", runID, "error", bestErr)
			return
		}

		rm.UpdateRun(runID, func(r *Run) {
			r.Epoch = p.Epoch + 1
			r.BestDecision = best.Decision()
			r.BestFitness = p.BestFitness
		})

		elapsed := time.Since(start).Seconds()
		var eps float64
		if elapsed > 0 {
			eps = float64(p.Epoch+1) / elapsed
		}

		rm.broadcaster.Broadcast(ProgressEvent{
			RunID:       runID,
			State:       StateRunning,
			Epoch:       p.Epoch + 1,
			BestFitness: p.BestFitness,
			EPS:         eps,
			Timestamp:   time.Now(),
		})

		if trace != nil {
			entry := store.TraceEntry{
				Epoch:     p.Epoch + 1,
				Fitness:   p.BestFitness,
				Timestamp: time.Now(),
			}
			if writeErr := trace.Write(entry); writeErr != nil {
				slog.Warn("Failed to write trace entry", "run_id", runID, "error", writeErr)
			}
		}

		if checkpointStore != nil {
			if cpErr := saveRunCheckpoint(rm, checkpointStore, runID); cpErr != nil {
				slog.Error("Failed to save checkpoint", "run_id", runID, "error", cpErr)
			}
		}
	}

	evolveErr := arch.Evolve(ctx, config.Epochs, onProgress)
	elapsed := time.Since(start)

	if trace != nil {
		if err := trace.Flush(); err != nil {
			slog.Warn("Failed to flush trace", "run_id", runID, "error", err)
		}
	}

	if evolveErr != nil {
		if errors.Is(evolveErr, context.Canceled) {
			markRunCancelled(rm, runID)
			return evolveErr
		}
		markRunFailed(rm, runID, evolveErr)
		return evolveErr
	}

	best, err := arch.Best()
	if err != nil {
		markRunFailed(rm, runID, err)
		return err
	}

	endTime := time.Now()
	err = rm.UpdateRun(runID, func(r *Run) {
		r.State = StateCompleted
		r.BestDecision = best.Decision()
		r.BestFitness = best.Fitness()
		r.Epoch = config.Epochs
		r.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	if checkpointStore != nil {
		if err := saveRunCheckpoint(rm, checkpointStore, runID); err != nil {
			slog.Error("Failed to save final checkpoint", "run_id", runID, "error", err)
		}
	}

	var eps float64
	if elapsed.Seconds() > 0 {
		eps = float64(config.Epochs) / elapsed.Seconds()
	}

	slog.Info("Run completed",
		"run_id", runID,
		"elapsed", elapsed,
		"initial_fitness", initial.Fitness(),
		"best_fitness", best.Fitness(),
		"epochs_per_second", eps,
	)

	rm.broadcaster.Broadcast(ProgressEvent{
		RunID:       runID,
		State:       StateCompleted,
		Epoch:       config.Epochs,
		BestFitness: best.Fitness(),
		EPS:         eps,
		Timestamp:   time.Now(),
	})

	return nil
}

// markRunFailed marks a run as failed with an error message
func markRunFailed(rm *RunManager, runID string, err error) {
	endTime := time.Now()
	rm.UpdateRun(runID, func(r *Run) {
		r.State = StateFailed
		r.Error = err.Error()
		r.EndTime = &endTime
	})
	rm.broadcaster.Broadcast(ProgressEvent{
		RunID:     runID,
		State:     StateFailed,
		Timestamp: endTime,
	})
	slog.Error("Run failed", "run_id", runID, "error", err)
}

// markRunCancelled marks a run as cancelled
func markRunCancelled(rm *RunManager, runID string) {
	endTime := time.Now()
	rm.UpdateRun(runID, func(r *Run) {
		r.State = StateCancelled
		r.EndTime = &endTime
	})
	rm.broadcaster.Broadcast(ProgressEvent{
		RunID:     runID,
		State:     StateCancelled,
		Timestamp: endTime,
	})
	slog.Info("Run cancelled", "run_id", runID)
}

// saveRunCheckpoint persists the run's current best under its run ID
func saveRunCheckpoint(rm *RunManager, checkpointStore store.Store, runID string) error {
	run, exists := rm.GetRun(runID)
	if !exists {
		return fmt.Errorf("run not found: %s", runID)
	}
	if len(run.BestDecision) == 0 {
		slog.Debug("Skipping checkpoint, no best decision yet", "run_id", runID)
		return nil
	}

	checkpoint := &store.Checkpoint{
		RunID:          runID,
		BestDecision:   run.BestDecision,
		BestFitness:    run.BestFitness,
		InitialFitness: run.InitialFitness,
		Epoch:          run.Epoch,
		Timestamp:      time.Now(),
		Config:         run.Config,
	}

	if err := checkpointStore.SaveCheckpoint(runID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Debug("Checkpoint saved", "run_id", runID, "epoch", run.Epoch, "best_fitness", run.BestFitness)
	return nil
}
