package server

import (
	"fmt"

	"github.com/cwbudde/archipelago/internal/algorithm"
	"github.com/cwbudde/archipelago/internal/archipelago"
	"github.com/cwbudde/archipelago/internal/problem"
)

// sphereBound is the half-width of the sphere search box.
const sphereBound = 5.12

// buildProblem constructs the benchmark problem named in the run config.
// For dtlz1 the dim field is the size of the distance subvector, so the
// decision dimension is dim + objectives - 1.
func buildProblem(config RunConfig) (problem.Problem, error) {
	switch config.Problem {
	case "sphere":
		return problem.NewSphere(config.Dim, sphereBound)
	case "rastrigin":
		return problem.NewRastrigin(config.Dim)
	case "dtlz1":
		objectives := config.Objectives
		if objectives == 0 {
			objectives = 2
		}
		return problem.NewDTLZ1(config.Dim, objectives)
	default:
		return nil, fmt.Errorf("unknown problem: %q", config.Problem)
	}
}

// saFactory builds a per-island simulated annealing factory from the run
// config. The schedule shape matches the defaults of the standalone CLI.
func saFactory(config RunConfig) archipelago.AlgorithmFactory {
	return func(seed int64) (archipelago.Algorithm, error) {
		return algorithm.NewSACorana(algorithm.SAConfig{
			Iterations:       config.Iterations,
			StartTemp:        config.StartTemp,
			FinalTemp:        config.FinalTemp,
			TempAdjustIters:  1,
			StepAdjustIters:  20,
			StartRange:       1,
			Seed:             seed,
			LegacyAcceptance: config.LegacyAcceptance,
		})
	}
}

// archipelagoConfig maps the run config onto the archipelago's own config.
func archipelagoConfig(config RunConfig) archipelago.Config {
	return archipelago.Config{
		Islands:  config.Islands,
		PopSize:  config.PopSize,
		DemeSize: config.DemeSize,
		Policy:   archipelago.MigrationPolicy(config.Policy),
		Seed:     config.Seed,
	}
}
