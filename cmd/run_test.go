package main

import (
	"strings"
	"testing"

	"github.com/cwbudde/archipelago/internal/algorithm"
	"github.com/cwbudde/archipelago/internal/store"
)

func TestNewSAFactory_CarriesAcceptanceRule(t *testing.T) {
	config := testCheckpoint("run-x").Config
	config.LegacyAcceptance = true

	algo, err := newSAFactory(config)(7)
	if err != nil {
		t.Fatalf("Factory failed: %v", err)
	}

	sa, ok := algo.(*algorithm.SACorana)
	if !ok {
		t.Fatalf("Expected *algorithm.SACorana, got %T", algo)
	}
	if !sa.Config().LegacyAcceptance {
		t.Error("Factory should carry the legacy acceptance rule from the run config")
	}
}

func TestResumedRunKeepsAcceptanceRule(t *testing.T) {
	s, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	checkpoint := testCheckpoint("legacy-run")
	checkpoint.Config.LegacyAcceptance = true
	if err := s.SaveCheckpoint(checkpoint.RunID, checkpoint); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	loaded, err := s.LoadCheckpoint(checkpoint.RunID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if !loaded.Config.LegacyAcceptance {
		t.Fatal("Acceptance rule should survive the checkpoint round trip")
	}

	algo, err := newSAFactory(loaded.Config)(1)
	if err != nil {
		t.Fatalf("Factory failed: %v", err)
	}
	if !algo.(*algorithm.SACorana).Config().LegacyAcceptance {
		t.Error("Resumed config should build a legacy-acceptance algorithm")
	}
}

func TestExecuteRun_RejectsMultiObjective(t *testing.T) {
	config := testCheckpoint("run-x").Config
	config.Problem = "dtlz1"
	config.Dim = 4
	config.Objectives = 2

	err := executeRun(config, "multi-run", "", "fs", nil)
	if err == nil {
		t.Fatal("Expected error for multi-objective problem")
	}
	if !strings.Contains(err.Error(), "single objective") {
		t.Errorf("Error should name the objective mismatch, got: %v", err)
	}
}
