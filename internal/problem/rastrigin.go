package problem

import (
	"fmt"
	"math"
)

// Rastrigin is the standard highly multimodal benchmark in [-5.12, 5.12]^n:
// single objective, unconstrained, global minimum 0 at the origin.
type Rastrigin struct {
	Base
}

// NewRastrigin constructs a Rastrigin problem of the given dimension.
func NewRastrigin(dim int) (*Rastrigin, error) {
	lb := make([]float64, dim)
	ub := make([]float64, dim)
	for i := range lb {
		lb[i] = -5.12
		ub[i] = 5.12
	}

	base, err := NewBase(dim, 0, 0, 1, lb, ub)
	if err != nil {
		return nil, fmt.Errorf("rastrigin: %w", err)
	}
	return &Rastrigin{Base: base}, nil
}

func (p *Rastrigin) Name() string {
	return fmt.Sprintf("rastrigin(%d)", p.Dimension())
}

func (p *Rastrigin) Objfun(fitness, decision []float64) error {
	if len(decision) != p.Dimension() {
		return fmt.Errorf("rastrigin: decision vector length %d, want %d", len(decision), p.Dimension())
	}
	if len(fitness) != 1 {
		return fmt.Errorf("rastrigin: fitness vector length %d, want 1", len(fitness))
	}

	sum := 10 * float64(len(decision))
	for _, x := range decision {
		sum += x*x - 10*math.Cos(2*math.Pi*x)
	}
	fitness[0] = sum
	return nil
}

func (p *Rastrigin) CompareFitness(a, b []float64) bool {
	return LowerIsBetter(a, b)
}
