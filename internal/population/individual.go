// Package population implements the candidate-solution containers of the
// optimization core: the Individual, the Population, and the deme primitives
// used for island-model migration.
package population

import (
	"fmt"

	"github.com/cwbudde/archipelago/internal/problem"
	"github.com/cwbudde/archipelago/internal/rng"
)

// Individual is a single candidate solution: a decision vector, a velocity
// vector for momentum-style operators, and a cached fitness value.
//
// The cached fitness is valid only while Evaluated reports true; mutating the
// decision vector clears the flag and the caller must re-evaluate. The core
// never re-evaluates implicitly.
type Individual struct {
	decision  []float64
	velocity  []float64
	fitness   []float64
	evaluated bool
}

// NewIndividual constructs an Individual from caller-supplied decision and
// velocity vectors. Both slices are copied. The velocity may be nil, in which
// case a zero velocity of matching length is allocated. Dimensional
// consistency with any owning Population is the caller's responsibility.
func NewIndividual(decision, velocity []float64) *Individual {
	ind := &Individual{
		decision: make([]float64, len(decision)),
		velocity: make([]float64, len(decision)),
	}
	copy(ind.decision, decision)
	copy(ind.velocity, velocity)
	return ind
}

// NewRandomIndividual draws each decision component uniformly in
// [lb[i], ub[i]] and initializes the velocity uniformly in the symmetric
// span [-(ub[i]-lb[i]), ub[i]-lb[i]].
// It returns an error if the bound lengths differ or any lower bound exceeds
// its upper bound.
func NewRandomIndividual(lb, ub []float64, src rng.Source) (*Individual, error) {
	if err := checkBounds(lb, ub); err != nil {
		return nil, err
	}

	ind := &Individual{
		decision: make([]float64, len(lb)),
		velocity: make([]float64, len(lb)),
	}
	for i := range lb {
		ind.decision[i] = lb[i] + src.Float64()*(ub[i]-lb[i])
	}
	for i := range lb {
		span := ub[i] - lb[i]
		ind.velocity[i] = (2*src.Float64() - 1) * span
	}
	return ind, nil
}

// Decision returns the decision vector. The returned slice is owned by the
// Individual; callers must treat it as read-only and mutate through
// SetDecision so staleness tracking stays correct.
func (ind *Individual) Decision() []float64 {
	return ind.decision
}

// SetDecision overwrites the decision vector with a copy of x and marks the
// cached fitness stale. No dimensional validation is performed here; keeping
// Population-level consistency is a documented caller precondition.
func (ind *Individual) SetDecision(x []float64) {
	if len(ind.decision) != len(x) {
		ind.decision = make([]float64, len(x))
	}
	copy(ind.decision, x)
	ind.evaluated = false
}

// Velocity returns the velocity vector. Same ownership rules as Decision.
func (ind *Individual) Velocity() []float64 {
	return ind.velocity
}

// SetVelocity overwrites the velocity vector with a copy of v. The velocity
// has a lifecycle independent of the decision vector and does not affect the
// fitness cache.
func (ind *Individual) SetVelocity(v []float64) {
	if len(ind.velocity) != len(v) {
		ind.velocity = make([]float64, len(v))
	}
	copy(ind.velocity, v)
}

// Fitness returns the cached fitness vector, which is meaningful only when
// Evaluated reports true.
func (ind *Individual) Fitness() []float64 {
	return ind.fitness
}

// SetFitness overwrites the cached fitness with a copy of f and marks it
// valid. The caller asserts that f corresponds to the current decision
// vector.
func (ind *Individual) SetFitness(f []float64) {
	if len(ind.fitness) != len(f) {
		ind.fitness = make([]float64, len(f))
	}
	copy(ind.fitness, f)
	ind.evaluated = true
}

// Evaluated reports whether the cached fitness corresponds to the current
// decision vector. It is cleared by SetDecision and set by Evaluate and
// SetFitness.
func (ind *Individual) Evaluated() bool {
	return ind.evaluated
}

// Evaluate runs the problem's objective function on the current decision
// vector and caches the result. The decision vector is not touched.
func (ind *Individual) Evaluate(p problem.Problem) error {
	if len(ind.fitness) != p.ObjectiveDimension() {
		ind.fitness = make([]float64, p.ObjectiveDimension())
	}
	if err := p.Objfun(ind.fitness, ind.decision); err != nil {
		return fmt.Errorf("evaluate individual: %w", err)
	}
	ind.evaluated = true
	return nil
}

// ResetVelocity reinitializes the velocity uniformly in the symmetric span
// [-(ub[i]-lb[i]), ub[i]-lb[i]], used to clear momentum state between
// optimization phases.
func (ind *Individual) ResetVelocity(lb, ub []float64, src rng.Source) error {
	if err := checkBounds(lb, ub); err != nil {
		return err
	}
	if len(lb) != len(ind.velocity) {
		return fmt.Errorf("bound length %d does not match velocity length %d", len(lb), len(ind.velocity))
	}

	for i := range lb {
		span := ub[i] - lb[i]
		ind.velocity[i] = (2*src.Float64() - 1) * span
	}
	return nil
}

// Clone returns a deep copy sharing no storage with the receiver.
func (ind *Individual) Clone() *Individual {
	c := &Individual{
		decision:  make([]float64, len(ind.decision)),
		velocity:  make([]float64, len(ind.velocity)),
		evaluated: ind.evaluated,
	}
	copy(c.decision, ind.decision)
	copy(c.velocity, ind.velocity)
	if ind.fitness != nil {
		c.fitness = make([]float64, len(ind.fitness))
		copy(c.fitness, ind.fitness)
	}
	return c
}

// copyFrom overwrites the receiver in place with a deep copy of src.
func (ind *Individual) copyFrom(src *Individual) {
	ind.SetDecision(src.decision)
	ind.SetVelocity(src.velocity)
	if src.fitness != nil {
		if len(ind.fitness) != len(src.fitness) {
			ind.fitness = make([]float64, len(src.fitness))
		}
		copy(ind.fitness, src.fitness)
	} else {
		ind.fitness = nil
	}
	ind.evaluated = src.evaluated
}

func checkBounds(lb, ub []float64) error {
	if len(lb) != len(ub) {
		return fmt.Errorf("bound lengths differ: %d != %d", len(lb), len(ub))
	}
	for i := range lb {
		if lb[i] > ub[i] {
			return fmt.Errorf("lower bound exceeds upper bound at component %d: %v > %v", i, lb[i], ub[i])
		}
	}
	return nil
}
