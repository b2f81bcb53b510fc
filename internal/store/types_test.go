package store

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCheckpoint_JSONSerialization(t *testing.T) {
	original := createTestCheckpoint("test-run-123")
	original.Timestamp = time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC)
	original.Config.LegacyAcceptance = true

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal checkpoint: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshaled JSON is empty")
	}

	var restored Checkpoint
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal checkpoint: %v", err)
	}

	if restored.RunID != original.RunID {
		t.Errorf("RunID mismatch: expected %s, got %s", original.RunID, restored.RunID)
	}
	if restored.Epoch != original.Epoch {
		t.Errorf("Epoch mismatch: expected %d, got %d", original.Epoch, restored.Epoch)
	}
	if !restored.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp mismatch: expected %v, got %v", original.Timestamp, restored.Timestamp)
	}
	if restored.Config != original.Config {
		t.Errorf("Config mismatch: expected %+v, got %+v", original.Config, restored.Config)
	}
}

func TestCheckpoint_Validate(t *testing.T) {
	mutate := func(f func(*Checkpoint)) *Checkpoint {
		c := createTestCheckpoint("run-x")
		f(c)
		return c
	}

	tests := []struct {
		name       string
		checkpoint *Checkpoint
		wantErr    bool
	}{
		{"valid", createTestCheckpoint("run-x"), false},
		{"empty run id", mutate(func(c *Checkpoint) { c.RunID = "" }), true},
		{"no decision vector", mutate(func(c *Checkpoint) { c.BestDecision = nil }), true},
		{"no fitness", mutate(func(c *Checkpoint) { c.BestFitness = nil }), true},
		{"negative epoch", mutate(func(c *Checkpoint) { c.Epoch = -1 }), true},
		{"zero timestamp", mutate(func(c *Checkpoint) { c.Timestamp = time.Time{} }), true},
		{"empty problem", mutate(func(c *Checkpoint) { c.Config.Problem = "" }), true},
		{"zero islands", mutate(func(c *Checkpoint) { c.Config.Islands = 0 }), true},
		{"zero population", mutate(func(c *Checkpoint) { c.Config.PopSize = 0 }), true},
		{"zero epochs", mutate(func(c *Checkpoint) { c.Config.Epochs = 0 }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.checkpoint.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckpoint_IsCompatible(t *testing.T) {
	c := createTestCheckpoint("run-x")

	same := c.Config
	if err := c.IsCompatible(same); err != nil {
		t.Errorf("Identical config reported incompatible: %v", err)
	}

	// Budget fields may change between resume attempts.
	budget := c.Config
	budget.Epochs = 100
	budget.Iterations = 50000
	budget.Seed = 7
	if err := c.IsCompatible(budget); err != nil {
		t.Errorf("Budget-only change reported incompatible: %v", err)
	}

	wrongProblem := c.Config
	wrongProblem.Problem = "rastrigin"
	if err := c.IsCompatible(wrongProblem); err == nil {
		t.Error("Expected error for different problem")
	}

	wrongDim := c.Config
	wrongDim.Dim = 10
	if err := c.IsCompatible(wrongDim); err == nil {
		t.Error("Expected error for different dimension")
	}

	wrongObjectives := c.Config
	wrongObjectives.Objectives = 3
	if err := c.IsCompatible(wrongObjectives); err == nil {
		t.Error("Expected error for different objective count")
	}
}
