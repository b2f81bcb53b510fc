// Package rng provides the deterministic random number streams used by all
// stochastic operations in this module.
//
// Every operation that draws random numbers takes an explicit Source (or is
// owned by the algorithm instance that holds one). There is no process-global
// generator: identical seeds yield bit-identical runs, and concurrent islands
// each get their own independent stream.
//
// A Source is NOT safe for concurrent use. Do not share one stream across
// goroutines; derive per-worker seeds with Derive instead.
package rng

import "math/rand"

// Source produces uniform random numbers for the optimization core.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64

	// IntN returns a uniform value in [0, n). It panics if n <= 0,
	// matching math/rand semantics.
	IntN(n int) int
}

// source wraps math/rand with a fixed seed.
type source struct {
	r *rand.Rand
}

// New returns a deterministic Source seeded with the given value.
// Two Sources created with the same seed produce identical streams.
func New(seed int64) Source {
	return &source{r: rand.New(rand.NewSource(seed))}
}

func (s *source) Float64() float64 {
	return s.r.Float64()
}

func (s *source) IntN(n int) int {
	return s.r.Intn(n)
}

// Derive mixes a base seed and a stream index into a new seed using a
// SplitMix64-style finalizer. Use it to hand each concurrent island an
// independent stream from one user-supplied seed; small changes in either
// input produce well-distributed output changes.
func Derive(seed int64, stream uint64) int64 {
	z := uint64(seed) + stream*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return int64(z)
}
