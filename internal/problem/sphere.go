package problem

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Sphere is the n-dimensional sum-of-squares benchmark: single objective,
// unconstrained, purely continuous, global minimum 0 at the origin.
type Sphere struct {
	Base
}

// NewSphere constructs a sphere problem of the given dimension with
// symmetric bounds [-bound, bound] in every component.
func NewSphere(dim int, bound float64) (*Sphere, error) {
	if bound <= 0 {
		return nil, fmt.Errorf("sphere: bound must be positive, got %v", bound)
	}

	lb := make([]float64, dim)
	ub := make([]float64, dim)
	for i := range lb {
		lb[i] = -bound
		ub[i] = bound
	}

	base, err := NewBase(dim, 0, 0, 1, lb, ub)
	if err != nil {
		return nil, fmt.Errorf("sphere: %w", err)
	}
	return &Sphere{Base: base}, nil
}

func (p *Sphere) Name() string {
	return fmt.Sprintf("sphere(%d)", p.Dimension())
}

func (p *Sphere) Objfun(fitness, decision []float64) error {
	if len(decision) != p.Dimension() {
		return fmt.Errorf("sphere: decision vector length %d, want %d", len(decision), p.Dimension())
	}
	if len(fitness) != 1 {
		return fmt.Errorf("sphere: fitness vector length %d, want 1", len(fitness))
	}

	fitness[0] = floats.Dot(decision, decision)
	return nil
}

func (p *Sphere) CompareFitness(a, b []float64) bool {
	return LowerIsBetter(a, b)
}
