package algorithm

import (
	"fmt"
	"math"

	"github.com/cwbudde/archipelago/internal/population"
	"github.com/cwbudde/archipelago/internal/problem"
	"github.com/cwbudde/archipelago/internal/rng"
)

// SAConfig holds the hyperparameters of the Corana simulated annealing
// strategy. All fields are validated by NewSACorana; a zero value is not
// usable.
type SAConfig struct {
	// Iterations is the total objective-evaluation budget. Must be positive.
	Iterations int

	// StartTemp and FinalTemp bound the cooling schedule. Both must be
	// positive with StartTemp > FinalTemp.
	StartTemp float64
	FinalTemp float64

	// TempAdjustIters is the number of step-adjustment stages per cooling
	// stage. Must be non-negative.
	TempAdjustIters int

	// StepAdjustIters is the number of full dimension sweeps per
	// step-adjustment stage. Must be non-negative.
	StepAdjustIters int

	// StartRange is the initial per-dimension step, relative to the bound
	// span. Must lie in [0, 1]. Adaptive steps never grow past it.
	StartRange float64

	// Seed initializes the algorithm's own random stream.
	Seed int64

	// LegacyAcceptance selects the historical Boltzmann rule
	// exp(+|df|/T) instead of the standard Metropolis exp(-|df|/T).
	// The historical rule makes acceptance MORE likely the worse the
	// candidate is and does not attenuate as the temperature cools; it is
	// kept only for parity with runs produced by the original rule.
	LegacyAcceptance bool
}

// SACorana is the adaptive simulated annealing strategy of Corana et al.
// It perturbs one coordinate at a time with a per-dimension adaptive step,
// cooling geometrically from StartTemp to FinalTemp.
//
// The strategy operates on a single point: it starts from the population's
// best individual and, at the end of the run, writes back only if the final
// point strictly improves on it. The rest of the population is never touched.
type SACorana struct {
	cfg SAConfig
	src rng.Source
}

// NewSACorana validates cfg and constructs the strategy. Validation is
// fail-fast: malformed hyperparameters are reported here, never deferred to
// Evolve.
func NewSACorana(cfg SAConfig) (*SACorana, error) {
	if cfg.Iterations <= 0 {
		return nil, fmt.Errorf("sa_corana: iterations must be positive, got %d", cfg.Iterations)
	}
	if cfg.StartTemp <= 0 || cfg.FinalTemp <= 0 || cfg.StartTemp <= cfg.FinalTemp {
		return nil, fmt.Errorf("sa_corana: temperatures must be positive with start > final, got start=%v final=%v",
			cfg.StartTemp, cfg.FinalTemp)
	}
	if cfg.TempAdjustIters < 0 {
		return nil, fmt.Errorf("sa_corana: temperature adjustment iterations must be non-negative, got %d", cfg.TempAdjustIters)
	}
	if cfg.StepAdjustIters < 0 {
		return nil, fmt.Errorf("sa_corana: step adjustment iterations must be non-negative, got %d", cfg.StepAdjustIters)
	}
	if cfg.StartRange < 0 || cfg.StartRange > 1 {
		return nil, fmt.Errorf("sa_corana: start range must be in [0,1], got %v", cfg.StartRange)
	}

	return &SACorana{cfg: cfg, src: rng.New(cfg.Seed)}, nil
}

func (sa *SACorana) Name() string {
	return "sa_corana"
}

// String returns a human-readable summary of the strategy's parameters.
func (sa *SACorana) String() string {
	acceptance := "metropolis"
	if sa.cfg.LegacyAcceptance {
		acceptance = "legacy"
	}
	return fmt.Sprintf("sa_corana(iterations=%d, Ts=%v, Tf=%v, binSize=%d, sweeps=%d, range=%v, acceptance=%s)",
		sa.cfg.Iterations, sa.cfg.StartTemp, sa.cfg.FinalTemp,
		sa.cfg.TempAdjustIters, sa.cfg.StepAdjustIters, sa.cfg.StartRange, acceptance)
}

// Config returns a copy of the strategy's hyperparameters.
func (sa *SACorana) Config() SAConfig {
	return sa.cfg
}

// Evolve runs the annealing schedule starting from the population's best
// individual. Preconditions: the problem has a continuous part, no
// constraints and a single objective; the population is non-empty and
// evaluated; the iteration budget admits at least one full cooling stage.
func (sa *SACorana) Evolve(p problem.Problem, pop *population.Population) error {
	dim := p.Dimension()
	dc := dim - p.IntegerDimension()
	lb, ub := p.LowerBounds(), p.UpperBounds()

	if dc == 0 {
		return fmt.Errorf("sa_corana: problem %q has no continuous part to optimize", p.Name())
	}
	if p.ConstraintDimension() != 0 {
		return fmt.Errorf("sa_corana: problem %q is constrained, sa_corana handles box bounds only", p.Name())
	}
	if p.ObjectiveDimension() != 1 {
		return fmt.Errorf("sa_corana: problem %q has %d objectives, sa_corana is single-objective",
			p.Name(), p.ObjectiveDimension())
	}
	if pop.Len() == 0 {
		return fmt.Errorf("sa_corana: population is empty")
	}

	denom := sa.cfg.TempAdjustIters * sa.cfg.StepAdjustIters * dc
	if denom == 0 || sa.cfg.Iterations/denom == 0 {
		return fmt.Errorf("sa_corana: iteration budget %d too small for one full schedule (need at least %d)",
			sa.cfg.Iterations, denom)
	}
	nOuter := sa.cfg.Iterations / denom

	bestIdx, err := pop.BestIndex(p)
	if err != nil {
		return fmt.Errorf("sa_corana: %w", err)
	}
	best, err := pop.At(bestIdx)
	if err != nil {
		return fmt.Errorf("sa_corana: %w", err)
	}

	// Starting point is the incumbent best; everything below works on
	// private copies until the final writeback.
	x0 := append([]float64(nil), best.Decision()...)
	f0 := append([]float64(nil), best.Fitness()...)
	xOld := append([]float64(nil), x0...)
	xNew := append([]float64(nil), x0...)
	fOld := append([]float64(nil), f0...)
	fNew := append([]float64(nil), f0...)

	// Per-dimension adaptive step and acceptance counters; only the
	// continuous components are ever visited.
	step := make([]float64, dim)
	for i := range step {
		step[i] = sa.cfg.StartRange
	}
	acp := make([]int, dim)

	// Geometric cooling reaching exactly FinalTemp after nOuter stages.
	tCoeff := math.Pow(sa.cfg.FinalTemp/sa.cfg.StartTemp, 1/float64(nOuter))
	currentT := sa.cfg.StartTemp

	for jter := 0; jter < nOuter; jter++ {
		for mter := 0; mter < sa.cfg.TempAdjustIters; mter++ {
			for kter := 0; kter < sa.cfg.StepAdjustIters; kter++ {
				// Rotating visit order from a random offset.
				nter := sa.src.IntN(dc)
				for numb := 0; numb < dc; numb++ {
					nter = (nter + 1) % dc

					r := 2*sa.src.Float64() - 1
					xNew[nter] = xOld[nter] + r*step[nter]*(ub[nter]-lb[nter])

					// Infeasible moves are reverted without evaluation.
					if xNew[nter] > ub[nter] || xNew[nter] < lb[nter] {
						xNew[nter] = xOld[nter]
						continue
					}

					if err := p.Objfun(fNew, xNew); err != nil {
						return fmt.Errorf("sa_corana: objective evaluation failed: %w", err)
					}

					if p.CompareFitness(fNew, fOld) {
						xOld[nter] = xNew[nter]
						copy(fOld, fNew)
						acp[nter]++
					} else if sa.accept(fOld[0], fNew[0], currentT) {
						xOld[nter] = xNew[nter]
						copy(fOld, fNew)
						acp[nter]++
					} else {
						xNew[nter] = xOld[nter]
					}
				}
			}

			// Adapt each continuous dimension's step toward the target
			// acceptance band, clamped to the configured range.
			for i := 0; i < dc; i++ {
				ratio := float64(acp[i]) / float64(sa.cfg.StepAdjustIters)
				acp[i] = 0
				if ratio > 0.6 {
					step[i] *= 1 + 2*(ratio-0.6)/0.4
				} else if ratio < 0.4 {
					step[i] /= 1 + 2*(0.4-ratio)/0.4
				}
				if step[i] > sa.cfg.StartRange {
					step[i] = sa.cfg.StartRange
				}
			}
		}
		currentT *= tCoeff
	}

	// Write back only on strict improvement; the velocity records the
	// displacement from the incumbent to the accepted point.
	if p.CompareFitness(fOld, f0) {
		delta := make([]float64, dim)
		for i := range delta {
			delta[i] = xOld[i] - x0[i]
		}
		best.SetDecision(xOld)
		best.SetFitness(fOld)
		best.SetVelocity(delta)
	}
	return nil
}

// accept applies the Boltzmann criterion to a non-improving candidate.
func (sa *SACorana) accept(fOld, fNew, temp float64) bool {
	var prob float64
	if sa.cfg.LegacyAcceptance {
		prob = math.Exp(math.Abs(fOld-fNew) / temp)
	} else {
		prob = math.Exp(-math.Abs(fOld-fNew) / temp)
	}
	return prob > sa.src.Float64()
}
