package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwbudde/archipelago/internal/server"
	"github.com/cwbudde/archipelago/internal/store"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveDataDir   string
	serveStoreKind string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves the JSON API for creating, inspecting and cancelling runs,
with per-run progress streamed over SSE. Runs are checkpointed and traced
beneath the data directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data", "./data", "Data directory for checkpoints and traces")
	serveCmd.Flags().StringVar(&serveStoreKind, "store", "fs", "Checkpoint store backend: fs, sqlite")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	checkpointStore, err := store.NewStore(serveStoreKind, serveDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}
	defer store.CloseIfSupported(checkpointStore)

	s := server.NewServer(serveAddr, checkpointStore, serveDataDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}
