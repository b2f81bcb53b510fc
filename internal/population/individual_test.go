package population

import (
	"math"
	"testing"

	"github.com/cwbudde/archipelago/internal/problem"
	"github.com/cwbudde/archipelago/internal/rng"
)

func testBounds() ([]float64, []float64) {
	return []float64{-5, -5}, []float64{5, 5}
}

func testProblem(t *testing.T) problem.Problem {
	t.Helper()

	p, err := problem.NewSphere(2, 5)
	if err != nil {
		t.Fatalf("Failed to create test problem: %v", err)
	}
	return p
}

func TestNewRandomIndividualWithinBounds(t *testing.T) {
	lb, ub := testBounds()
	src := rng.New(42)

	for trial := 0; trial < 100; trial++ {
		ind, err := NewRandomIndividual(lb, ub, src)
		if err != nil {
			t.Fatalf("NewRandomIndividual failed: %v", err)
		}
		for i, x := range ind.Decision() {
			if x < lb[i] || x > ub[i] {
				t.Fatalf("Component %d = %v outside [%v,%v]", i, x, lb[i], ub[i])
			}
		}
		for i, v := range ind.Velocity() {
			span := ub[i] - lb[i]
			if v < -span || v > span {
				t.Fatalf("Velocity %d = %v outside [-%v,%v]", i, v, span, span)
			}
		}
	}
}

func TestNewRandomIndividualBadBounds(t *testing.T) {
	src := rng.New(1)

	if _, err := NewRandomIndividual([]float64{0}, []float64{1, 2}, src); err == nil {
		t.Error("Expected error for mismatched bound lengths")
	}
	if _, err := NewRandomIndividual([]float64{2, 0}, []float64{1, 1}, src); err == nil {
		t.Error("Expected error for inverted bounds")
	}
}

func TestEvaluateCachesFitness(t *testing.T) {
	p := testProblem(t)
	ind := NewIndividual([]float64{3, 4}, nil)

	if ind.Evaluated() {
		t.Fatal("Fresh individual must not report a valid fitness")
	}

	if err := ind.Evaluate(p); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !ind.Evaluated() {
		t.Fatal("Evaluated flag not set after evaluation")
	}
	if ind.Fitness()[0] != 25 {
		t.Errorf("Fitness = %v, want 25", ind.Fitness()[0])
	}

	// Decision must be untouched by evaluation.
	if ind.Decision()[0] != 3 || ind.Decision()[1] != 4 {
		t.Errorf("Decision vector mutated by Evaluate: %v", ind.Decision())
	}
}

func TestSetDecisionInvalidatesFitness(t *testing.T) {
	p := testProblem(t)
	ind := NewIndividual([]float64{1, 1}, nil)

	if err := ind.Evaluate(p); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	ind.SetDecision([]float64{2, 2})

	if ind.Evaluated() {
		t.Error("SetDecision must mark the cached fitness stale")
	}
}

func TestSetVelocityDoesNotInvalidateFitness(t *testing.T) {
	p := testProblem(t)
	ind := NewIndividual([]float64{1, 1}, nil)

	if err := ind.Evaluate(p); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	ind.SetVelocity([]float64{9, 9})

	if !ind.Evaluated() {
		t.Error("Velocity has an independent lifecycle and must not stale the fitness")
	}
}

func TestResetVelocity(t *testing.T) {
	lb, ub := testBounds()
	src := rng.New(3)

	ind := NewIndividual([]float64{0, 0}, []float64{99, 99})
	if err := ind.ResetVelocity(lb, ub, src); err != nil {
		t.Fatalf("ResetVelocity failed: %v", err)
	}

	for i, v := range ind.Velocity() {
		span := ub[i] - lb[i]
		if v < -span || v > span {
			t.Errorf("Velocity %d = %v outside [-%v,%v]", i, v, span, span)
		}
		if math.Abs(v-99) < 1e-12 {
			t.Errorf("Velocity %d not reset", i)
		}
	}

	if err := ind.ResetVelocity([]float64{0}, []float64{1}, src); err == nil {
		t.Error("Expected error for bound length mismatch")
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := testProblem(t)
	ind := NewIndividual([]float64{1, 2}, []float64{3, 4})
	if err := ind.Evaluate(p); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	c := ind.Clone()
	c.SetDecision([]float64{-1, -2})
	c.SetVelocity([]float64{0, 0})
	c.Fitness()[0] = -1

	if ind.Decision()[0] != 1 {
		t.Error("Clone shares decision storage with original")
	}
	if ind.Velocity()[0] != 3 {
		t.Error("Clone shares velocity storage with original")
	}
	if ind.Fitness()[0] != 5 {
		t.Errorf("Clone shares fitness storage with original: %v", ind.Fitness()[0])
	}
}
