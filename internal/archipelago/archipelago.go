// Package archipelago runs island-model optimization: several populations
// evolve independently and concurrently, exchanging individuals between
// epochs through deme migration.
//
// Each island owns its algorithm instance and random stream, so epochs run
// without any shared mutable state; migration is the sole synchronization
// boundary and happens only while no island is evolving.
package archipelago

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cwbudde/archipelago/internal/population"
	"github.com/cwbudde/archipelago/internal/problem"
	"github.com/cwbudde/archipelago/internal/rng"
)

// MigrationPolicy selects how migrants are accepted into the destination
// island after an epoch.
type MigrationPolicy string

const (
	// Conservative accepts a migrant only when it strictly improves on the
	// incumbent at its target position.
	Conservative MigrationPolicy = "conservative"

	// Forced always accepts migrants, regardless of fitness.
	Forced MigrationPolicy = "forced"

	// Elitist moves only the single best migrant onto the single worst
	// target position.
	Elitist MigrationPolicy = "elitist"
)

// ParsePolicy maps a policy name to a MigrationPolicy.
func ParsePolicy(s string) (MigrationPolicy, error) {
	switch MigrationPolicy(s) {
	case Conservative, Forced, Elitist:
		return MigrationPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown migration policy: %q", s)
	}
}

// AlgorithmFactory builds one algorithm instance per island. The seed is
// derived from the archipelago's base seed so identically configured runs
// are reproducible while islands stay independent.
type AlgorithmFactory func(seed int64) (Algorithm, error)

// Algorithm mirrors the strategy contract consumed by an island.
type Algorithm interface {
	Name() string
	Evolve(p problem.Problem, pop *population.Population) error
}

// Island is one population paired with the algorithm evolving it and the
// random stream used for its migration draws.
type Island struct {
	ID   int
	Pop  *population.Population
	Algo Algorithm

	src rng.Source
}

// Config describes an archipelago run.
type Config struct {
	// Islands is the number of islands. Must be positive.
	Islands int

	// PopSize is the population size per island. Must be positive.
	PopSize int

	// DemeSize is the number of individuals migrating per epoch. Must be
	// in [0, PopSize]; zero disables migration.
	DemeSize int

	// Policy selects the migration acceptance rule.
	Policy MigrationPolicy

	// Seed is the base seed; per-island streams are derived from it.
	Seed int64
}

// Progress reports the state of the archipelago after an epoch.
type Progress struct {
	Epoch       int
	BestFitness []float64
}

// Archipelago owns a ring of islands evolving against one shared, read-only
// problem.
type Archipelago struct {
	prob    problem.Problem
	islands []*Island
	cfg     Config

	// migrationSrc drives deme extraction; separate from the island
	// streams so migration draws do not perturb evolution streams.
	migrationSrc rng.Source
}

// New seeds cfg.Islands random populations against p and builds one
// algorithm per island via factory. Populations are evaluated before return,
// so the archipelago is ready to evolve.
func New(p problem.Problem, factory AlgorithmFactory, cfg Config) (*Archipelago, error) {
	if cfg.Islands <= 0 {
		return nil, fmt.Errorf("archipelago: island count must be positive, got %d", cfg.Islands)
	}
	if cfg.PopSize <= 0 {
		return nil, fmt.Errorf("archipelago: population size must be positive, got %d", cfg.PopSize)
	}
	if cfg.DemeSize < 0 || cfg.DemeSize > cfg.PopSize {
		return nil, fmt.Errorf("archipelago: deme size %d must be in [0,%d]", cfg.DemeSize, cfg.PopSize)
	}
	if _, err := ParsePolicy(string(cfg.Policy)); err != nil {
		return nil, fmt.Errorf("archipelago: %w", err)
	}

	arch := &Archipelago{
		prob:         p,
		islands:      make([]*Island, cfg.Islands),
		cfg:          cfg,
		migrationSrc: rng.New(rng.Derive(cfg.Seed, uint64(cfg.Islands))),
	}

	for i := range arch.islands {
		seed := rng.Derive(cfg.Seed, uint64(i))

		pop, err := population.NewRandom(p.LowerBounds(), p.UpperBounds(), cfg.PopSize, rng.New(seed))
		if err != nil {
			return nil, fmt.Errorf("archipelago: seed island %d: %w", i, err)
		}
		if err := pop.Evaluate(p); err != nil {
			return nil, fmt.Errorf("archipelago: evaluate island %d: %w", i, err)
		}

		algo, err := factory(seed)
		if err != nil {
			return nil, fmt.Errorf("archipelago: build algorithm for island %d: %w", i, err)
		}

		arch.islands[i] = &Island{
			ID:   i,
			Pop:  pop,
			Algo: algo,
			src:  rng.New(rng.Derive(seed, 1)),
		}
	}
	return arch, nil
}

// Islands returns the islands for inspection. Callers must not mutate the
// populations while Evolve is running.
func (a *Archipelago) Islands() []*Island {
	return a.islands
}

// Evolve runs the given number of epochs. Within an epoch every island
// evolves concurrently, one goroutine per island; once all are done,
// individuals migrate ring-wise (island i sends a deme to island i+1 mod n)
// under the configured policy.
//
// Cancellation is checked between epochs only: an epoch in flight runs to
// completion, matching the run-to-completion contract of the strategies.
// onProgress, when non-nil, is invoked after each epoch with the global best
// fitness.
func (a *Archipelago) Evolve(ctx context.Context, epochs int, onProgress func(Progress)) error {
	if epochs < 0 {
		return fmt.Errorf("archipelago: epoch count must be non-negative, got %d", epochs)
	}

	for epoch := 0; epoch < epochs; epoch++ {
		select {
		case <-ctx.Done():
			slog.Info("Archipelago evolution cancelled", "epoch", epoch)
			return ctx.Err()
		default:
		}

		if err := a.evolveEpoch(); err != nil {
			return fmt.Errorf("archipelago: epoch %d: %w", epoch, err)
		}

		if a.cfg.DemeSize > 0 && len(a.islands) > 1 {
			if err := a.migrate(); err != nil {
				return fmt.Errorf("archipelago: migration after epoch %d: %w", epoch, err)
			}
		}

		if onProgress != nil {
			best, err := a.Best()
			if err != nil {
				return err
			}
			onProgress(Progress{Epoch: epoch, BestFitness: append([]float64(nil), best.Fitness()...)})
		}
	}
	return nil
}

// evolveEpoch evolves every island concurrently and collects the first
// error, if any.
func (a *Archipelago) evolveEpoch() error {
	var wg sync.WaitGroup
	errs := make([]error, len(a.islands))

	for i, isl := range a.islands {
		wg.Add(1)
		go func(i int, isl *Island) {
			defer wg.Done()
			errs[i] = isl.Algo.Evolve(a.prob, isl.Pop)
		}(i, isl)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("island %d: %w", i, err)
		}
	}
	return nil
}

// migrate moves demes around the ring. Extraction happens for all islands
// first, so every deme is a snapshot of its source before any insertion.
func (a *Archipelago) migrate() error {
	n := len(a.islands)
	demes := make([]*population.Population, n)
	for i, isl := range a.islands {
		deme, _, err := isl.Pop.ExtractRandomDeme(a.cfg.DemeSize, a.migrationSrc)
		if err != nil {
			return fmt.Errorf("extract deme from island %d: %w", i, err)
		}
		demes[i] = deme
	}

	for i := range a.islands {
		dst := a.islands[(i+1)%n]

		// Target positions are drawn fresh in the destination; the deme's
		// source indices are meaningless in another island.
		_, picks, err := dst.Pop.ExtractRandomDeme(a.cfg.DemeSize, dst.src)
		if err != nil {
			return fmt.Errorf("pick targets in island %d: %w", dst.ID, err)
		}

		switch a.cfg.Policy {
		case Conservative:
			err = dst.Pop.InsertDeme(a.prob, demes[i], picks)
		case Forced:
			err = dst.Pop.InsertDemeForced(demes[i], picks)
		case Elitist:
			err = dst.Pop.InsertBestInDeme(a.prob, demes[i], picks)
		}
		if err != nil {
			return fmt.Errorf("insert deme into island %d: %w", dst.ID, err)
		}
	}
	return nil
}

// Best returns a copy of the best individual across all islands under the
// problem's comparison sense.
func (a *Archipelago) Best() (*population.Individual, error) {
	var best *population.Individual
	for i, isl := range a.islands {
		cand, err := isl.Pop.Best(a.prob)
		if err != nil {
			return nil, fmt.Errorf("archipelago: best of island %d: %w", i, err)
		}
		if best == nil || a.prob.CompareFitness(cand.Fitness(), best.Fitness()) {
			best = cand
		}
	}
	return best, nil
}
