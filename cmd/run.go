package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/archipelago/internal/algorithm"
	"github.com/cwbudde/archipelago/internal/archipelago"
	"github.com/cwbudde/archipelago/internal/population"
	"github.com/cwbudde/archipelago/internal/problem"
	"github.com/cwbudde/archipelago/internal/store"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	probName   string
	dim        int
	objectives int
	islands    int
	popSize    int
	demeSize   int
	policy     string
	epochs     int
	iters      int
	startTemp  float64
	finalTemp  float64
	seed       int64
	legacyAcc  bool
	dataDir    string
	storeKind  string
	runID      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an archipelago optimization",
	Long: `Evolves the configured number of islands against the chosen benchmark
problem, migrating individuals between epochs, and reports the best point
found. With --data, a per-epoch trace and a resumable checkpoint are
written beneath the data directory.`,
	RunE: runArchipelago,
}

func init() {
	runCmd.Flags().StringVar(&probName, "problem", "sphere", "Problem: sphere, rastrigin, dtlz1 (dtlz1 is multi-objective and needs a compatible strategy)")
	runCmd.Flags().IntVar(&dim, "dim", 10, "Decision dimension (distance subvector size for dtlz1)")
	runCmd.Flags().IntVar(&objectives, "objectives", 0, "Objective count (dtlz1 only, default 2)")
	runCmd.Flags().IntVar(&islands, "islands", 4, "Number of islands")
	runCmd.Flags().IntVar(&popSize, "pop", 20, "Population size per island")
	runCmd.Flags().IntVar(&demeSize, "deme", 2, "Migrants per epoch (0 disables migration)")
	runCmd.Flags().StringVar(&policy, "policy", "conservative", "Migration policy: conservative, forced, elitist")
	runCmd.Flags().IntVar(&epochs, "epochs", 10, "Number of epochs")
	runCmd.Flags().IntVar(&iters, "iters", 10000, "Evaluation budget per island per epoch")
	runCmd.Flags().Float64Var(&startTemp, "start-temp", 10, "Annealing start temperature")
	runCmd.Flags().Float64Var(&finalTemp, "final-temp", 0.1, "Annealing final temperature")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	runCmd.Flags().BoolVar(&legacyAcc, "legacy-acceptance", false, "Use the historical acceptance rule")
	runCmd.Flags().StringVar(&dataDir, "data", "", "Data directory for trace and checkpoint (empty disables)")
	runCmd.Flags().StringVar(&storeKind, "store", "fs", "Checkpoint store backend: fs, sqlite")
	runCmd.Flags().StringVar(&runID, "run-id", "", "Run identifier (default: random UUID)")

	rootCmd.AddCommand(runCmd)
}

func runArchipelago(cmd *cobra.Command, args []string) error {
	config := store.RunConfig{
		Problem:    probName,
		Dim:        dim,
		Objectives: objectives,
		Islands:    islands,
		PopSize:    popSize,
		DemeSize:   demeSize,
		Policy:     policy,
		Epochs:     epochs,
		Iterations: iters,
		StartTemp:  startTemp,
		FinalTemp:  finalTemp,
		Seed:       seed,

		LegacyAcceptance: legacyAcc,
	}

	id := runID
	if id == "" {
		id = uuid.New().String()
	}

	return executeRun(config, id, dataDir, storeKind, nil)
}

// executeRun drives one local optimization run. When resumeFrom is non-nil,
// its best individual is injected into the first island before evolution so
// the saved best is never lost.
func executeRun(config store.RunConfig, id, dataDir, storeKind string, resumeFrom *store.Checkpoint) error {
	slog.Info("Starting optimization",
		"run_id", id,
		"problem", config.Problem,
		"islands", config.Islands,
		"epochs", config.Epochs,
	)

	prob, err := newProblem(config)
	if err != nil {
		return err
	}
	if fdim := prob.ObjectiveDimension(); fdim != 1 {
		return fmt.Errorf("problem %q has %d objectives; simulated annealing requires a single objective",
			config.Problem, fdim)
	}

	arch, err := archipelago.New(prob, newSAFactory(config), archipelago.Config{
		Islands:  config.Islands,
		PopSize:  config.PopSize,
		DemeSize: config.DemeSize,
		Policy:   archipelago.MigrationPolicy(config.Policy),
		Seed:     config.Seed,
	})
	if err != nil {
		return err
	}

	if resumeFrom != nil {
		ind := population.NewIndividual(resumeFrom.BestDecision, nil)
		ind.SetFitness(resumeFrom.BestFitness)
		if err := arch.Islands()[0].Pop.Substitute(ind, 0); err != nil {
			return fmt.Errorf("failed to inject checkpoint best: %w", err)
		}
		slog.Info("Resumed from checkpoint", "run_id", id, "epoch", resumeFrom.Epoch, "best_fitness", resumeFrom.BestFitness)
	}

	initial, err := arch.Best()
	if err != nil {
		return err
	}
	initialFitness := initial.Fitness()

	var checkpointStore store.Store
	var trace *store.TraceWriter
	if dataDir != "" {
		checkpointStore, err = store.NewStore(storeKind, dataDir)
		if err != nil {
			return fmt.Errorf("failed to create checkpoint store: %w", err)
		}
		defer store.CloseIfSupported(checkpointStore)

		trace, err = store.NewTraceWriter(dataDir, id, resumeFrom != nil)
		if err != nil {
			return fmt.Errorf("failed to create trace writer: %w", err)
		}
		defer trace.Close()
	}

	// Stop between epochs on interrupt; the checkpoint keeps the best.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	epochOffset := 0
	if resumeFrom != nil {
		epochOffset = resumeFrom.Epoch
	}

	start := time.Now()

	onProgress := func(p archipelago.Progress) {
		epoch := epochOffset + p.Epoch + 1
		slog.Info("Epoch complete", "run_id", id, "epoch", epoch, "best_fitness", p.BestFitness)

		if trace != nil {
			entry := store.TraceEntry{Epoch: epoch, Fitness: p.BestFitness, Timestamp: time.Now()}
			if err := trace.Write(entry); err != nil {
				slog.Warn("Failed to write trace entry", "run_id", id, "error", err)
			}
		}

		if checkpointStore != nil {
			best, bestErr := arch.Best()
			if bestErr != nil {
				slog.Error("Failed to read best for checkpoint", "run_id", id, "error", bestErr)
				return
			}
			checkpoint := &store.Checkpoint{
				RunID:          id,
				BestDecision:   best.Decision(),
				BestFitness:    best.Fitness(),
				InitialFitness: initialFitness,
				Epoch:          epoch,
				Timestamp:      time.Now(),
				Config:         config,
			}
			if err := checkpointStore.SaveCheckpoint(id, checkpoint); err != nil {
				slog.Error("Failed to save checkpoint", "run_id", id, "error", err)
			}
		}
	}

	evolveErr := arch.Evolve(ctx, config.Epochs, onProgress)
	elapsed := time.Since(start)

	if evolveErr != nil {
		if ctx.Err() != nil {
			slog.Info("Run interrupted", "run_id", id, "elapsed", elapsed)
			fmt.Printf("Interrupted after %s; resume with: archipelago resume %s --data %s\n",
				elapsed.Round(time.Millisecond), id, dataDir)
			return nil
		}
		return evolveErr
	}

	best, err := arch.Best()
	if err != nil {
		return err
	}

	totalEvals := int64(config.Islands) * int64(config.Iterations) * int64(config.Epochs)

	slog.Info("Optimization complete",
		"run_id", id,
		"elapsed", elapsed,
		"initial_fitness", initialFitness,
		"best_fitness", best.Fitness(),
		"evaluations", totalEvals,
	)

	fmt.Printf("Run %s: fitness %v -> %v in %s (%s evaluations)\n",
		id, initialFitness, best.Fitness(), elapsed.Round(time.Millisecond), humanize.Comma(totalEvals))

	return nil
}

// newProblem constructs the benchmark problem named in a run config.
func newProblem(config store.RunConfig) (problem.Problem, error) {
	switch config.Problem {
	case "sphere":
		return problem.NewSphere(config.Dim, 5.12)
	case "rastrigin":
		return problem.NewRastrigin(config.Dim)
	case "dtlz1":
		fdim := config.Objectives
		if fdim == 0 {
			fdim = 2
		}
		return problem.NewDTLZ1(config.Dim, fdim)
	default:
		return nil, fmt.Errorf("unknown problem: %q", config.Problem)
	}
}

// newSAFactory builds the per-island annealing factory from a run config.
func newSAFactory(config store.RunConfig) archipelago.AlgorithmFactory {
	return func(islandSeed int64) (archipelago.Algorithm, error) {
		return algorithm.NewSACorana(algorithm.SAConfig{
			Iterations:       config.Iterations,
			StartTemp:        config.StartTemp,
			FinalTemp:        config.FinalTemp,
			TempAdjustIters:  1,
			StepAdjustIters:  20,
			StartRange:       1,
			Seed:             islandSeed,
			LegacyAcceptance: config.LegacyAcceptance,
		})
	}
}
