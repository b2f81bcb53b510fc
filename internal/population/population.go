package population

import (
	"fmt"

	"github.com/cwbudde/archipelago/internal/problem"
	"github.com/cwbudde/archipelago/internal/rng"
)

// Population is an ordered collection of Individuals. Order matters only for
// the positional indexing used by migration; no ranking is implied.
//
// A Population owns its members outright: Add and Substitute copy, Clone is
// deep, and demes are independent copies of their source. Two Populations
// never share storage, which is what makes concurrent island evolution safe
// without locks.
//
// A Population is evaluated against a Problem but does not own one; the
// Problem is passed explicitly to every operation that needs the fitness
// comparison sense.
type Population struct {
	members []*Individual
}

// New returns an empty Population.
func New() *Population {
	return &Population{}
}

// NewRandom creates a Population of n independently initialized random
// Individuals within [lb, ub]. n = 0 yields an empty Population; negative n
// is an error, as are malformed bounds.
func NewRandom(lb, ub []float64, n int, src rng.Source) (*Population, error) {
	if n < 0 {
		return nil, fmt.Errorf("population size must be non-negative, got %d", n)
	}
	if err := checkBounds(lb, ub); err != nil {
		return nil, err
	}

	pop := &Population{members: make([]*Individual, 0, n)}
	for i := 0; i < n; i++ {
		ind, err := NewRandomIndividual(lb, ub, src)
		if err != nil {
			return nil, err
		}
		pop.members = append(pop.members, ind)
	}
	return pop, nil
}

// Len returns the current member count.
func (pop *Population) Len() int {
	return len(pop.members)
}

// Add appends a copy of ind.
func (pop *Population) Add(ind *Individual) {
	pop.members = append(pop.members, ind.Clone())
}

// At returns the Individual at index i for in-place mutation. Out-of-range
// access is an error, never silent corruption.
func (pop *Population) At(i int) (*Individual, error) {
	if i < 0 || i >= len(pop.members) {
		return nil, fmt.Errorf("index %d out of range [0,%d)", i, len(pop.members))
	}
	return pop.members[i], nil
}

// Substitute overwrites the decision vector, velocity vector and fitness of
// the member at index n with copies of those of ind.
func (pop *Population) Substitute(ind *Individual, n int) error {
	if n < 0 || n >= len(pop.members) {
		return fmt.Errorf("index %d out of range [0,%d)", n, len(pop.members))
	}
	pop.members[n].copyFrom(ind)
	return nil
}

// Evaluate refreshes every member's fitness against p, in index order. There
// is no caching across calls; stale fitness after decision changes must be
// refreshed by calling this again.
func (pop *Population) Evaluate(p problem.Problem) error {
	for i, ind := range pop.members {
		if err := ind.Evaluate(p); err != nil {
			return fmt.Errorf("evaluate member %d: %w", i, err)
		}
	}
	return nil
}

// ResetVelocities applies the velocity reset to every member in index order.
// Order affects only the RNG draw sequence, not correctness.
func (pop *Population) ResetVelocities(lb, ub []float64, src rng.Source) error {
	for i, ind := range pop.members {
		if err := ind.ResetVelocity(lb, ub, src); err != nil {
			return fmt.Errorf("reset velocity of member %d: %w", i, err)
		}
	}
	return nil
}

// BestIndex returns the index of the best member under p's comparison sense.
// Ties break to the first occurrence in index order. Empty populations and
// unevaluated members are errors.
func (pop *Population) BestIndex(p problem.Problem) (int, error) {
	if err := pop.checkEvaluated(); err != nil {
		return 0, err
	}

	best := 0
	for i := 1; i < len(pop.members); i++ {
		if p.CompareFitness(pop.members[i].fitness, pop.members[best].fitness) {
			best = i
		}
	}
	return best, nil
}

// WorstIndex returns the index of the worst member under p's comparison
// sense: the member the current candidate strictly improves on is demoted.
// Ties break to the first occurrence in index order.
func (pop *Population) WorstIndex(p problem.Problem) (int, error) {
	if err := pop.checkEvaluated(); err != nil {
		return 0, err
	}

	worst := 0
	for i := 1; i < len(pop.members); i++ {
		if p.CompareFitness(pop.members[worst].fitness, pop.members[i].fitness) {
			worst = i
		}
	}
	return worst, nil
}

// Best returns a copy of the best member under p's comparison sense.
func (pop *Population) Best(p problem.Problem) (*Individual, error) {
	i, err := pop.BestIndex(p)
	if err != nil {
		return nil, err
	}
	return pop.members[i].Clone(), nil
}

// Worst returns a copy of the worst member under p's comparison sense.
func (pop *Population) Worst(p problem.Problem) (*Individual, error) {
	i, err := pop.WorstIndex(p)
	if err != nil {
		return nil, err
	}
	return pop.members[i].Clone(), nil
}

// ExtractRandomDeme samples n distinct positions uniformly without
// replacement and returns a new Population holding copies of those members
// in draw order, together with the source indices each one came from. The
// picks are required to reinsert the deme correctly after it has been
// evolved elsewhere.
//
// Sampling removes each drawn index from an index pool before the next draw,
// so a request for n == Len() returns every member with picks forming a
// permutation of [0, Len()).
func (pop *Population) ExtractRandomDeme(n int, src rng.Source) (*Population, []int, error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("deme size must be non-negative, got %d", n)
	}
	if n > len(pop.members) {
		return nil, nil, fmt.Errorf("deme size %d exceeds population size %d", n, len(pop.members))
	}

	pool := make([]int, len(pop.members))
	for i := range pool {
		pool[i] = i
	}

	deme := &Population{members: make([]*Individual, 0, n)}
	picks := make([]int, 0, n)
	for i := 0; i < n; i++ {
		j := src.IntN(len(pool))
		picks = append(picks, pool[j])
		deme.members = append(deme.members, pop.members[pool[j]].Clone())
		pool = append(pool[:j], pool[j+1:]...)
	}
	return deme, picks, nil
}

// InsertDeme applies the conservative migration policy: for each position i,
// the member at picks[i] is replaced by deme member i only when the migrant
// strictly improves on it under p's comparison sense. No member ever
// regresses.
func (pop *Population) InsertDeme(p problem.Problem, deme *Population, picks []int) error {
	if err := pop.checkPicks(deme, picks); err != nil {
		return err
	}

	for i, pick := range picks {
		if p.CompareFitness(deme.members[i].fitness, pop.members[pick].fitness) {
			pop.members[pick].copyFrom(deme.members[i])
		}
	}
	return nil
}

// InsertDemeForced applies the forced migration policy: every pick is
// overwritten by the corresponding deme member regardless of fitness.
func (pop *Population) InsertDemeForced(deme *Population, picks []int) error {
	if err := pop.checkPicks(deme, picks); err != nil {
		return err
	}

	for i, pick := range picks {
		pop.members[pick].copyFrom(deme.members[i])
	}
	return nil
}

// InsertBestInDeme applies the elitist migration policy: the single best
// deme member replaces the single worst member among the picked positions.
// Ties break to the first occurrence in scan order for both searches.
func (pop *Population) InsertBestInDeme(p problem.Problem, deme *Population, picks []int) error {
	if err := pop.checkPicks(deme, picks); err != nil {
		return err
	}
	if deme.Len() == 0 {
		return fmt.Errorf("cannot insert from an empty deme")
	}

	bestInDeme := 0
	worstInPicks := 0
	for i := 1; i < deme.Len(); i++ {
		if p.CompareFitness(deme.members[i].fitness, deme.members[bestInDeme].fitness) {
			bestInDeme = i
		}
		if p.CompareFitness(pop.members[picks[worstInPicks]].fitness, pop.members[picks[i]].fitness) {
			worstInPicks = i
		}
	}

	pop.members[picks[worstInPicks]].copyFrom(deme.members[bestInDeme])
	return nil
}

// Clone returns a full deep copy sharing no storage with the receiver.
func (pop *Population) Clone() *Population {
	c := &Population{members: make([]*Individual, len(pop.members))}
	for i, ind := range pop.members {
		c.members[i] = ind.Clone()
	}
	return c
}

// checkPicks validates a deme/picks pair before any mutation so that a
// failed insertion leaves the population untouched.
func (pop *Population) checkPicks(deme *Population, picks []int) error {
	if deme.Len() != len(picks) {
		return fmt.Errorf("deme size %d does not match picks length %d", deme.Len(), len(picks))
	}
	for i, pick := range picks {
		if pick < 0 || pick >= len(pop.members) {
			return fmt.Errorf("pick %d out of range [0,%d) at position %d", pick, len(pop.members), i)
		}
		if !deme.members[i].evaluated {
			return fmt.Errorf("deme member %d has no valid fitness", i)
		}
		if !pop.members[pick].evaluated {
			return fmt.Errorf("member %d has no valid fitness", pick)
		}
	}
	return nil
}

func (pop *Population) checkEvaluated() error {
	if len(pop.members) == 0 {
		return fmt.Errorf("population is empty")
	}
	for i, ind := range pop.members {
		if !ind.evaluated {
			return fmt.Errorf("member %d has no valid fitness", i)
		}
	}
	return nil
}
