package population

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of the members' scalar fitness values.
// It is defined only for single-objective fitness; multi-objective
// populations, empty populations and unevaluated members are errors.
func (pop *Population) Mean() (float64, error) {
	fs, err := pop.scalarFitness()
	if err != nil {
		return 0, err
	}
	return stat.Mean(fs, nil), nil
}

// Std returns the population standard deviation (about the mean, not
// sample-corrected) of the members' scalar fitness values. A population
// whose fitness values are all equal yields exactly 0.
func (pop *Population) Std() (float64, error) {
	fs, err := pop.scalarFitness()
	if err != nil {
		return 0, err
	}
	mean := stat.Mean(fs, nil)
	return math.Sqrt(stat.MomentAbout(2, fs, mean, nil)), nil
}

func (pop *Population) scalarFitness() ([]float64, error) {
	if err := pop.checkEvaluated(); err != nil {
		return nil, err
	}

	fs := make([]float64, len(pop.members))
	for i, ind := range pop.members {
		if len(ind.fitness) != 1 {
			return nil, fmt.Errorf("member %d has %d objectives, statistics require scalar fitness", i, len(ind.fitness))
		}
		fs[i] = ind.fitness[0]
	}
	return fs, nil
}
