package problem

import (
	"fmt"
	"math"
)

// DTLZ1 is a box-constrained continuous multi-objective test problem,
// scalable in both decision and fitness dimension.
//
// The decision dimension is k + fdim - 1 with all bounds [0,1]. The optimal
// Pareto front lies on the linear hyperplane where the objectives sum to 0.5,
// reached when every component of the trailing k-block equals 0.5.
//
// See K. Deb, L. Thiele, M. Laumanns, E. Zitzler, "Scalable test problems
// for evolutionary multiobjective optimization".
type DTLZ1 struct {
	Base
	k int
}

// NewDTLZ1 constructs a DTLZ1 instance with k distance parameters and fdim
// objectives. It returns an error when k < 1 or fdim < 2, since either would
// produce a degenerate decision or objective space.
func NewDTLZ1(k, fdim int) (*DTLZ1, error) {
	if k < 1 {
		return nil, fmt.Errorf("dtlz1: k must be at least 1, got %d", k)
	}
	if fdim < 2 {
		return nil, fmt.Errorf("dtlz1: objective dimension must be at least 2, got %d", fdim)
	}

	dim := k + fdim - 1
	lb := make([]float64, dim)
	ub := make([]float64, dim)
	for i := range ub {
		ub[i] = 1
	}

	base, err := NewBase(dim, 0, 0, fdim, lb, ub)
	if err != nil {
		return nil, fmt.Errorf("dtlz1: %w", err)
	}
	return &DTLZ1{Base: base, k: k}, nil
}

func (p *DTLZ1) Name() string {
	return fmt.Sprintf("dtlz1(k=%d,m=%d)", p.k, p.ObjectiveDimension())
}

// g evaluates the distance function over the trailing k components.
func (p *DTLZ1) g(x []float64) float64 {
	g := float64(p.k)
	for _, xi := range x[p.Dimension()-p.k:] {
		d := xi - 0.5
		g += d*d - math.Cos(20*math.Pi*d)
	}
	return 100 * g
}

func (p *DTLZ1) Objfun(fitness, decision []float64) error {
	if len(decision) != p.Dimension() {
		return fmt.Errorf("dtlz1: decision vector length %d, want %d", len(decision), p.Dimension())
	}
	if len(fitness) != p.ObjectiveDimension() {
		return fmt.Errorf("dtlz1: fitness vector length %d, want %d", len(fitness), p.ObjectiveDimension())
	}

	m := p.ObjectiveDimension()
	half := 0.5 * (1 + p.g(decision))

	for i := 0; i < m; i++ {
		f := half
		for j := 0; j < m-1-i; j++ {
			f *= decision[j]
		}
		if i > 0 {
			f *= 1 - decision[m-1-i]
		}
		fitness[i] = f
	}
	return nil
}

// CompareFitness uses Pareto domination: a strictly improves on b only when
// it dominates b.
func (p *DTLZ1) CompareFitness(a, b []float64) bool {
	return Dominates(a, b)
}
