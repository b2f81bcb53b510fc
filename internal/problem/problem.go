// Package problem defines the contract between optimization problems and the
// algorithms that solve them.
//
// A Problem describes a box-bounded search space (with an optional trailing
// block of integer-valued components), an objective function of one or more
// objectives, and the comparison sense that decides when one fitness vector
// strictly improves on another. Algorithms and populations rely on exactly
// this surface and nothing else, so new problems can be added without touching
// the core.
package problem

import "fmt"

// Problem is the abstract objective function contract.
//
// Implementations must be safe for concurrent read access: Objfun must not
// mutate problem state, and all descriptor accessors return data fixed at
// construction.
type Problem interface {
	// Name identifies the problem for logging and reports.
	Name() string

	// Dimension is the total length of the decision vector.
	Dimension() int

	// IntegerDimension is the number of trailing integer-valued components
	// of the decision vector. Zero for purely continuous problems.
	IntegerDimension() int

	// ConstraintDimension is the number of constraints beyond the box
	// bounds. Zero for box-constrained problems.
	ConstraintDimension() int

	// ObjectiveDimension is the length of the fitness vector. One for
	// single-objective problems.
	ObjectiveDimension() int

	// LowerBounds and UpperBounds return the box bounds. Callers must not
	// modify the returned slices.
	LowerBounds() []float64
	UpperBounds() []float64

	// Objfun evaluates the decision vector and writes the result into
	// fitness, which must have length ObjectiveDimension(). The evaluation
	// is pure: no problem state is mutated.
	Objfun(fitness, decision []float64) error

	// CompareFitness reports whether a is strictly preferable to b under
	// this problem's sense (lower-is-better for single objective, Pareto
	// domination for multi-objective). The predicate is the single source
	// of truth for "improvement" throughout the core and must be
	// irreflexive and asymmetric.
	CompareFitness(a, b []float64) bool
}

// Base carries the descriptor fields shared by all problems and implements
// the accessor half of the Problem interface. Concrete problems embed it and
// add Name, Objfun and CompareFitness.
type Base struct {
	dim  int
	idim int
	cdim int
	fdim int
	lb   []float64
	ub   []float64
}

// NewBase validates and constructs the shared problem descriptors.
// It returns an error if dim or fdim is non-positive, idim or cdim is
// negative, idim exceeds dim, bound lengths differ from dim, or any lower
// bound exceeds its upper bound.
func NewBase(dim, idim, cdim, fdim int, lb, ub []float64) (Base, error) {
	if dim <= 0 {
		return Base{}, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	if fdim <= 0 {
		return Base{}, fmt.Errorf("objective dimension must be positive, got %d", fdim)
	}
	if idim < 0 || idim > dim {
		return Base{}, fmt.Errorf("integer dimension must be in [0,%d], got %d", dim, idim)
	}
	if cdim < 0 {
		return Base{}, fmt.Errorf("constraint dimension must be non-negative, got %d", cdim)
	}
	if len(lb) != dim || len(ub) != dim {
		return Base{}, fmt.Errorf("bound lengths must equal dimension %d, got lb=%d ub=%d", dim, len(lb), len(ub))
	}
	for i := range lb {
		if lb[i] > ub[i] {
			return Base{}, fmt.Errorf("lower bound exceeds upper bound at component %d: %v > %v", i, lb[i], ub[i])
		}
	}

	b := Base{
		dim:  dim,
		idim: idim,
		cdim: cdim,
		fdim: fdim,
		lb:   make([]float64, dim),
		ub:   make([]float64, dim),
	}
	copy(b.lb, lb)
	copy(b.ub, ub)
	return b, nil
}

func (b *Base) Dimension() int           { return b.dim }
func (b *Base) IntegerDimension() int    { return b.idim }
func (b *Base) ConstraintDimension() int { return b.cdim }
func (b *Base) ObjectiveDimension() int  { return b.fdim }
func (b *Base) LowerBounds() []float64   { return b.lb }
func (b *Base) UpperBounds() []float64   { return b.ub }

// LowerIsBetter is the default single-objective comparison: a strictly
// improves on b iff a[0] < b[0].
func LowerIsBetter(a, b []float64) bool {
	return a[0] < b[0]
}

// Dominates reports whether fitness vector a Pareto-dominates b in a
// minimization sense: a is no worse in every objective and strictly better
// in at least one. Vectors of unequal length never dominate each other.
func Dominates(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	strictly := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			strictly = true
		}
	}
	return strictly
}
