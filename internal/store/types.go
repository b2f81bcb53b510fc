package store

import (
	"fmt"
	"time"
)

// RunConfig holds the configuration of an archipelago optimization run.
type RunConfig struct {
	Problem    string  `json:"problem"`              // sphere, rastrigin, dtlz1
	Dim        int     `json:"dim"`                  // decision dimension (k for dtlz1)
	Objectives int     `json:"objectives,omitempty"` // fitness dimension (dtlz1 only)
	Islands    int     `json:"islands"`
	PopSize    int     `json:"popSize"`
	DemeSize   int     `json:"demeSize"`
	Policy     string  `json:"policy"` // conservative, forced, elitist
	Epochs     int     `json:"epochs"`
	Iterations int     `json:"iterations"` // per-island evaluation budget per epoch
	StartTemp  float64 `json:"startTemp"`
	FinalTemp  float64 `json:"finalTemp"`
	Seed       int64   `json:"seed"`

	// LegacyAcceptance selects the historical annealing acceptance rule.
	// Persisted so a resumed run keeps the rule it was started with.
	LegacyAcceptance bool `json:"legacyAcceptance,omitempty"`
}

// Checkpoint is the persisted state of a run: the best point found so far
// and enough configuration to validate a resume.
//
// Only the global best is saved, not the island populations. Resuming
// re-seeds fresh populations, so a resumed run diverges from an
// uninterrupted one, but the saved best is never lost and the best fitness
// never regresses. Persisting full populations would tie the checkpoint
// format to each strategy's internal state.
type Checkpoint struct {
	// RunID is the unique identifier for this run.
	RunID string `json:"runId"`

	// BestDecision is the decision vector of the best individual found.
	BestDecision []float64 `json:"bestDecision"`

	// BestFitness is the fitness vector achieved by BestDecision
	// (length 1 for single-objective problems).
	BestFitness []float64 `json:"bestFitness"`

	// InitialFitness is the best fitness of the freshly seeded archipelago,
	// kept for improvement tracking.
	InitialFitness []float64 `json:"initialFitness"`

	// Epoch is the number of completed epochs at checkpoint time.
	Epoch int `json:"epoch"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`

	// Config holds the run configuration, needed for validation on resume.
	Config RunConfig `json:"config"`
}

// Validate checks the structural integrity of a checkpoint before it is
// saved or resumed from.
func (c *Checkpoint) Validate() error {
	if c.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if len(c.BestDecision) == 0 {
		return &ValidationError{Field: "BestDecision", Reason: "cannot be empty"}
	}
	if len(c.BestFitness) == 0 {
		return &ValidationError{Field: "BestFitness", Reason: "cannot be empty"}
	}
	if c.Epoch < 0 {
		return &ValidationError{Field: "Epoch", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.Problem == "" {
		return &ValidationError{Field: "Config.Problem", Reason: "cannot be empty"}
	}
	if c.Config.Islands <= 0 {
		return &ValidationError{Field: "Config.Islands", Reason: "must be positive"}
	}
	if c.Config.PopSize <= 0 {
		return &ValidationError{Field: "Config.PopSize", Reason: "must be positive"}
	}
	if c.Config.Epochs <= 0 {
		return &ValidationError{Field: "Config.Epochs", Reason: "must be positive"}
	}
	return nil
}

// IsCompatible checks whether this checkpoint can be resumed with the given
// configuration. Problem identity and dimensions must match exactly; budget
// fields (epochs, iterations, seed) may differ.
func (c *Checkpoint) IsCompatible(config RunConfig) error {
	if c.Config.Problem != config.Problem {
		return &CompatibilityError{Field: "Problem", Expected: c.Config.Problem, Actual: config.Problem}
	}
	if c.Config.Dim != config.Dim {
		return &CompatibilityError{
			Field:    "Dim",
			Expected: fmt.Sprintf("%d", c.Config.Dim),
			Actual:   fmt.Sprintf("%d", config.Dim),
		}
	}
	if c.Config.Objectives != config.Objectives {
		return &CompatibilityError{
			Field:    "Objectives",
			Expected: fmt.Sprintf("%d", c.Config.Objectives),
			Actual:   fmt.Sprintf("%d", config.Objectives),
		}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// CompatibilityError reports a config mismatch that prevents resuming a run.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("incompatible %s: checkpoint has %q, config has %q", e.Field, e.Expected, e.Actual)
}

// CheckpointInfo contains metadata about a checkpoint without the full
// decision vector, for efficient listing.
type CheckpointInfo struct {
	RunID       string    `json:"runId"`
	Problem     string    `json:"problem"`
	Epoch       int       `json:"epoch"`
	BestFitness []float64 `json:"bestFitness"`
	Timestamp   time.Time `json:"timestamp"`
}
