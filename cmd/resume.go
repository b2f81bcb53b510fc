package main

import (
	"errors"
	"fmt"

	"github.com/cwbudde/archipelago/internal/store"
	"github.com/spf13/cobra"
)

var (
	resumeDataDir   string
	resumeStoreKind string
	resumeEpochs    int
)

var resumeCmd = &cobra.Command{
	Use:   "resume [run-id]",
	Short: "Resume a run from its checkpoint",
	Long: `Loads the checkpoint saved for the given run and continues evolving.
Islands are re-seeded, but the saved best individual is injected into the
archipelago so the best fitness never regresses across a resume. The
checkpoint's problem and dimensions are authoritative; only the epoch
budget can be overridden.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data", "./data", "Data directory holding the checkpoint")
	resumeCmd.Flags().StringVar(&resumeStoreKind, "store", "fs", "Checkpoint store backend: fs, sqlite")
	resumeCmd.Flags().IntVar(&resumeEpochs, "epochs", 0, "Epochs to run (default: the original epoch budget)")

	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	id := args[0]

	checkpointStore, err := store.NewStore(resumeStoreKind, resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}
	defer store.CloseIfSupported(checkpointStore)

	checkpoint, err := checkpointStore.LoadCheckpoint(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no checkpoint found for run %s", id)
		}
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("checkpoint is not resumable: %w", err)
	}

	config := checkpoint.Config
	if resumeEpochs > 0 {
		config.Epochs = resumeEpochs
	}
	if err := checkpoint.IsCompatible(config); err != nil {
		return err
	}

	return executeRun(config, id, resumeDataDir, resumeStoreKind, checkpoint)
}
