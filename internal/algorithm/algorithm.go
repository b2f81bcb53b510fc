// Package algorithm defines the optimization strategy contract and the
// concrete strategies shipped with the core.
//
// An Algorithm owns its random stream and all tunable hyperparameters, fixed
// and validated at construction. Evolve mutates only the Population it is
// handed; any precondition failure returns before the Population is touched,
// so a failed call leaves it in its pre-call state.
package algorithm

import (
	"github.com/cwbudde/archipelago/internal/population"
	"github.com/cwbudde/archipelago/internal/problem"
)

// Algorithm is the strategy abstraction: it consumes a Population together
// with the Problem it was evaluated against and evolves the Population in
// place.
//
// Implementations must validate that the Problem is compatible with their
// assumptions (objective count, constraints, continuous part) and fail with a
// descriptive error instead of silently proceeding. Evolve may be invoked
// repeatedly; the only state that advances between calls is the algorithm's
// own random stream.
type Algorithm interface {
	// Name identifies the strategy for logging and reports.
	Name() string

	// Evolve runs the strategy over pop against p. The Population must
	// already be evaluated against p.
	Evolve(p problem.Problem, pop *population.Population) error
}
