//go:build sqlite

package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func setupSQLiteStore(t *testing.T) Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "checkpoints.db")
	s, err := newSQLiteStore(path)
	if err != nil {
		t.Fatalf("Failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { CloseIfSupported(s) })
	return s
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	s := setupSQLiteStore(t)

	original := createTestCheckpoint("sqlite-run-1")
	if err := s.SaveCheckpoint("sqlite-run-1", original); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}

	loaded, err := s.LoadCheckpoint("sqlite-run-1")
	if err != nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}

	if loaded.RunID != original.RunID {
		t.Errorf("RunID mismatch: expected %s, got %s", original.RunID, loaded.RunID)
	}
	if loaded.Epoch != original.Epoch {
		t.Errorf("Epoch mismatch: expected %d, got %d", original.Epoch, loaded.Epoch)
	}
	if loaded.Config != original.Config {
		t.Errorf("Config mismatch: expected %+v, got %+v", original.Config, loaded.Config)
	}
}

func TestSQLiteStore_Overwrite(t *testing.T) {
	s := setupSQLiteStore(t)

	first := createTestCheckpoint("run-x")
	if err := s.SaveCheckpoint("run-x", first); err != nil {
		t.Fatalf("Failed to save first checkpoint: %v", err)
	}

	second := createTestCheckpoint("run-x")
	second.Epoch = first.Epoch + 5
	if err := s.SaveCheckpoint("run-x", second); err != nil {
		t.Fatalf("Failed to overwrite checkpoint: %v", err)
	}

	loaded, err := s.LoadCheckpoint("run-x")
	if err != nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}
	if loaded.Epoch != second.Epoch {
		t.Errorf("Expected epoch %d after overwrite, got %d", second.Epoch, loaded.Epoch)
	}

	infos, err := s.ListCheckpoints()
	if err != nil {
		t.Fatalf("Failed to list checkpoints: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("Expected 1 checkpoint after overwrite, got %d", len(infos))
	}
}

func TestSQLiteStore_List(t *testing.T) {
	s := setupSQLiteStore(t)

	infos, err := s.ListCheckpoints()
	if err != nil {
		t.Fatalf("Failed to list empty store: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected empty listing, got %d entries", len(infos))
	}

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := s.SaveCheckpoint(id, createTestCheckpoint(id)); err != nil {
			t.Fatalf("Failed to save %s: %v", id, err)
		}
	}

	infos, err = s.ListCheckpoints()
	if err != nil {
		t.Fatalf("Failed to list checkpoints: %v", err)
	}
	if len(infos) != 3 {
		t.Errorf("Expected 3 checkpoints, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Problem != "sphere" {
			t.Errorf("Listing should carry the problem name, got %q", info.Problem)
		}
		if len(info.BestFitness) == 0 {
			t.Errorf("Listing should carry the best fitness for %s", info.RunID)
		}
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := setupSQLiteStore(t)

	if err := s.SaveCheckpoint("run-x", createTestCheckpoint("run-x")); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}

	if err := s.DeleteCheckpoint("run-x"); err != nil {
		t.Fatalf("Failed to delete checkpoint: %v", err)
	}

	if _, err := s.LoadCheckpoint("run-x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	if err := s.DeleteCheckpoint("run-x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestSQLiteStore_NotFound(t *testing.T) {
	s := setupSQLiteStore(t)

	_, err := s.LoadCheckpoint("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_RejectsInvalid(t *testing.T) {
	s := setupSQLiteStore(t)

	invalid := createTestCheckpoint("run-x")
	invalid.BestDecision = nil

	if err := s.SaveCheckpoint("run-x", invalid); err == nil {
		t.Error("Expected error saving invalid checkpoint")
	}
}
