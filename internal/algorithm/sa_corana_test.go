package algorithm

import (
	"fmt"
	"testing"

	"github.com/cwbudde/archipelago/internal/population"
	"github.com/cwbudde/archipelago/internal/problem"
	"github.com/cwbudde/archipelago/internal/rng"
)

func validConfig() SAConfig {
	return SAConfig{
		Iterations:      10000,
		StartTemp:       10,
		FinalTemp:       0.1,
		TempAdjustIters: 1,
		StepAdjustIters: 20,
		StartRange:      1,
		Seed:            42,
	}
}

// constrained wraps a sphere with a fake constraint block to exercise the
// precondition checks.
type constrained struct {
	*problem.Sphere
	cdim int
}

func (c *constrained) ConstraintDimension() int { return c.cdim }

// allInteger reports its whole decision vector as integer-valued.
type allInteger struct {
	*problem.Sphere
}

func (a *allInteger) IntegerDimension() int { return a.Dimension() }

func newSpherePop(t *testing.T, p problem.Problem, n int, seed int64) *population.Population {
	t.Helper()

	pop, err := population.NewRandom(p.LowerBounds(), p.UpperBounds(), n, rng.New(seed))
	if err != nil {
		t.Fatalf("NewRandom failed: %v", err)
	}
	if err := pop.Evaluate(p); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	return pop
}

func TestNewSACoranaValidation(t *testing.T) {
	mutate := func(f func(*SAConfig)) SAConfig {
		cfg := validConfig()
		f(&cfg)
		return cfg
	}

	tests := []struct {
		name    string
		cfg     SAConfig
		wantErr bool
	}{
		{"valid", validConfig(), false},
		{"legacy acceptance valid", mutate(func(c *SAConfig) { c.LegacyAcceptance = true }), false},
		{"zero iterations", mutate(func(c *SAConfig) { c.Iterations = 0 }), true},
		{"negative iterations", mutate(func(c *SAConfig) { c.Iterations = -1 }), true},
		{"zero start temp", mutate(func(c *SAConfig) { c.StartTemp = 0 }), true},
		{"zero final temp", mutate(func(c *SAConfig) { c.FinalTemp = 0 }), true},
		{"inverted temps", mutate(func(c *SAConfig) { c.StartTemp, c.FinalTemp = 0.1, 10 }), true},
		{"equal temps", mutate(func(c *SAConfig) { c.FinalTemp = c.StartTemp }), true},
		{"negative temp iters", mutate(func(c *SAConfig) { c.TempAdjustIters = -1 }), true},
		{"negative step iters", mutate(func(c *SAConfig) { c.StepAdjustIters = -1 }), true},
		{"range below zero", mutate(func(c *SAConfig) { c.StartRange = -0.1 }), true},
		{"range above one", mutate(func(c *SAConfig) { c.StartRange = 1.1 }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSACorana(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSACorana error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvolvePreconditions(t *testing.T) {
	sphere, err := problem.NewSphere(2, 5)
	if err != nil {
		t.Fatalf("NewSphere failed: %v", err)
	}

	dtlz, err := problem.NewDTLZ1(3, 2)
	if err != nil {
		t.Fatalf("NewDTLZ1 failed: %v", err)
	}

	sa, err := NewSACorana(validConfig())
	if err != nil {
		t.Fatalf("NewSACorana failed: %v", err)
	}

	t.Run("multi-objective problem", func(t *testing.T) {
		pop, err := population.NewRandom(dtlz.LowerBounds(), dtlz.UpperBounds(), 5, rng.New(1))
		if err != nil {
			t.Fatalf("NewRandom failed: %v", err)
		}
		if err := pop.Evaluate(dtlz); err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if err := sa.Evolve(dtlz, pop); err == nil {
			t.Error("Expected error for multi-objective problem")
		}
	})

	t.Run("constrained problem", func(t *testing.T) {
		p := &constrained{Sphere: sphere, cdim: 2}
		pop := newSpherePop(t, sphere, 5, 1)
		if err := sa.Evolve(p, pop); err == nil {
			t.Error("Expected error for constrained problem")
		}
	})

	t.Run("no continuous part", func(t *testing.T) {
		p := &allInteger{Sphere: sphere}
		pop := newSpherePop(t, sphere, 5, 1)
		if err := sa.Evolve(p, pop); err == nil {
			t.Error("Expected error for problem without continuous part")
		}
	})

	t.Run("empty population", func(t *testing.T) {
		if err := sa.Evolve(sphere, population.New()); err == nil {
			t.Error("Expected error for empty population")
		}
	})

	t.Run("budget too small", func(t *testing.T) {
		cfg := validConfig()
		cfg.Iterations = 10 // less than TempAdjustIters*StepAdjustIters*Dc = 40
		small, err := NewSACorana(cfg)
		if err != nil {
			t.Fatalf("NewSACorana failed: %v", err)
		}
		pop := newSpherePop(t, sphere, 5, 1)
		if err := small.Evolve(sphere, pop); err == nil {
			t.Error("Expected error when budget admits no full schedule")
		}
	})

	t.Run("zero adjustment period", func(t *testing.T) {
		cfg := validConfig()
		cfg.TempAdjustIters = 0
		zero, err := NewSACorana(cfg)
		if err != nil {
			t.Fatalf("NewSACorana failed: %v", err)
		}
		pop := newSpherePop(t, sphere, 5, 1)
		if err := zero.Evolve(sphere, pop); err == nil {
			t.Error("Expected error for zero-length schedule")
		}
	})
}

func TestEvolveFailureLeavesPopulationUntouched(t *testing.T) {
	sphere, err := problem.NewSphere(2, 5)
	if err != nil {
		t.Fatalf("NewSphere failed: %v", err)
	}
	pop := newSpherePop(t, sphere, 5, 1)
	snapshot := pop.Clone()

	cfg := validConfig()
	cfg.Iterations = 1 // precondition failure at evolve time
	sa, err := NewSACorana(cfg)
	if err != nil {
		t.Fatalf("NewSACorana failed: %v", err)
	}
	if err := sa.Evolve(sphere, pop); err == nil {
		t.Fatal("Expected evolve to fail")
	}

	for i := 0; i < pop.Len(); i++ {
		a, _ := pop.At(i)
		b, _ := snapshot.At(i)
		for j := range a.Decision() {
			if a.Decision()[j] != b.Decision()[j] {
				t.Fatalf("Failed evolve mutated member %d", i)
			}
		}
	}
}

func TestEvolveSphereNeverRegresses(t *testing.T) {
	sphere, err := problem.NewSphere(2, 5)
	if err != nil {
		t.Fatalf("NewSphere failed: %v", err)
	}
	pop := newSpherePop(t, sphere, 5, 7)

	initialBest, err := pop.Best(sphere)
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}

	sa, err := NewSACorana(validConfig())
	if err != nil {
		t.Fatalf("NewSACorana failed: %v", err)
	}
	if err := sa.Evolve(sphere, pop); err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}

	finalBest, err := pop.Best(sphere)
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}

	if finalBest.Fitness()[0] > initialBest.Fitness()[0] {
		t.Errorf("Best fitness regressed: %v -> %v", initialBest.Fitness()[0], finalBest.Fitness()[0])
	}

	lb, ub := sphere.LowerBounds(), sphere.UpperBounds()
	for i, x := range finalBest.Decision() {
		if x < lb[i] || x > ub[i] {
			t.Errorf("Final decision component %d = %v outside [%v,%v]", i, x, lb[i], ub[i])
		}
	}
}

func TestEvolveOnlyTouchesBestIndividual(t *testing.T) {
	sphere, err := problem.NewSphere(2, 5)
	if err != nil {
		t.Fatalf("NewSphere failed: %v", err)
	}
	pop := newSpherePop(t, sphere, 5, 7)
	snapshot := pop.Clone()

	bestIdx, err := pop.BestIndex(sphere)
	if err != nil {
		t.Fatalf("BestIndex failed: %v", err)
	}

	sa, err := NewSACorana(validConfig())
	if err != nil {
		t.Fatalf("NewSACorana failed: %v", err)
	}
	if err := sa.Evolve(sphere, pop); err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}

	for i := 0; i < pop.Len(); i++ {
		if i == bestIdx {
			continue
		}
		a, _ := pop.At(i)
		b, _ := snapshot.At(i)
		for j := range a.Decision() {
			if a.Decision()[j] != b.Decision()[j] {
				t.Errorf("Member %d changed; only the best individual may be touched", i)
			}
		}
	}
}

func TestEvolveDeterministic(t *testing.T) {
	sphere, err := problem.NewSphere(2, 5)
	if err != nil {
		t.Fatalf("NewSphere failed: %v", err)
	}

	run := func() []float64 {
		pop := newSpherePop(t, sphere, 5, 7)
		sa, err := NewSACorana(validConfig())
		if err != nil {
			t.Fatalf("NewSACorana failed: %v", err)
		}
		if err := sa.Evolve(sphere, pop); err != nil {
			t.Fatalf("Evolve failed: %v", err)
		}
		best, err := pop.Best(sphere)
		if err != nil {
			t.Fatalf("Best failed: %v", err)
		}
		return append([]float64(nil), best.Decision()...)
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Identically seeded runs diverged at component %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestAcceptanceRules(t *testing.T) {
	// At a hot temperature the legacy rule accepts any worse candidate with
	// probability > 1, while the standard rule stays below 1 and decays as
	// the gap grows.
	legacy, err := NewSACorana(func() SAConfig {
		c := validConfig()
		c.LegacyAcceptance = true
		return c
	}())
	if err != nil {
		t.Fatalf("NewSACorana failed: %v", err)
	}
	standard, err := NewSACorana(validConfig())
	if err != nil {
		t.Fatalf("NewSACorana failed: %v", err)
	}

	accepts := func(sa *SACorana, gap float64, trials int) int {
		n := 0
		for i := 0; i < trials; i++ {
			if sa.accept(1, 1+gap, 1) {
				n++
			}
		}
		return n
	}

	if got := accepts(legacy, 100, 100); got != 100 {
		t.Errorf("Legacy rule accepted %d/100 large-gap moves, want 100", got)
	}
	if got := accepts(standard, 100, 100); got != 0 {
		t.Errorf("Standard rule accepted %d/100 large-gap moves, want 0", got)
	}

	// Small gaps at high temperature are mostly accepted under both rules.
	if got := accepts(standard, 0.01, 100); got < 90 {
		t.Errorf("Standard rule accepted only %d/100 tiny-gap moves", got)
	}
}

func TestEvolveRepeatedCalls(t *testing.T) {
	sphere, err := problem.NewSphere(3, 5)
	if err != nil {
		t.Fatalf("NewSphere failed: %v", err)
	}
	pop := newSpherePop(t, sphere, 5, 3)

	sa, err := NewSACorana(validConfig())
	if err != nil {
		t.Fatalf("NewSACorana failed: %v", err)
	}

	prev, err := pop.Best(sphere)
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := sa.Evolve(sphere, pop); err != nil {
			t.Fatalf("Evolve %d failed: %v", i, err)
		}
		cur, err := pop.Best(sphere)
		if err != nil {
			t.Fatalf("Best failed: %v", err)
		}
		if cur.Fitness()[0] > prev.Fitness()[0] {
			t.Errorf("Call %d regressed the best fitness: %v -> %v", i, prev.Fitness()[0], cur.Fitness()[0])
		}
		prev = cur
	}
}

func TestString(t *testing.T) {
	sa, err := NewSACorana(validConfig())
	if err != nil {
		t.Fatalf("NewSACorana failed: %v", err)
	}
	if sa.Name() != "sa_corana" {
		t.Errorf("Name = %q", sa.Name())
	}
	want := fmt.Sprintf("sa_corana(iterations=%d", validConfig().Iterations)
	if s := sa.String(); len(s) < len(want) || s[:len(want)] != want {
		t.Errorf("String = %q, want prefix %q", s, want)
	}
}
