package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/archipelago/internal/store"
)

// Server represents the HTTP server
type Server struct {
	runManager *RunManager
	store      store.Store
	dataDir    string
	addr       string
	server     *http.Server
}

// NewServer creates a new HTTP server. checkpointStore may be nil to disable
// checkpointing; dataDir may be empty to disable trace files.
func NewServer(addr string, checkpointStore store.Store, dataDir string) *Server {
	return &Server{
		runManager: NewRunManager(),
		store:      checkpointStore,
		dataDir:    dataDir,
		addr:       addr,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Register API routes
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunsWithID)

	// Wrap with middleware
	handler := s.loggingMiddleware(s.corsMiddleware(mux))

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: handler,
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleRuns handles /api/v1/runs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRunsWithID handles /api/v1/runs/:id/*
func (s *Server) handleRunsWithID(w http.ResponseWriter, r *http.Request) {
	// Parse run ID from path
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Run ID required", http.StatusBadRequest)
		return
	}

	runID := parts[0]

	// Route based on subpath
	switch {
	case len(parts) == 1 || parts[1] == "status":
		s.handleGetRunStatus(w, r, runID)
	case parts[1] == "stream":
		s.handleRunStream(w, r, runID)
	case parts[1] == "cancel":
		s.handleCancelRun(w, r, runID)
	case parts[1] == "trace":
		s.handleGetRunTrace(w, r, runID)
	case parts[1] == "checkpoint":
		s.handleGetRunCheckpoint(w, r, runID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCreateRun handles POST /api/v1/runs
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var config RunConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	applyConfigDefaults(&config)

	// Reject unknown problems and problems the strategy cannot evolve
	// before spawning the worker
	prob, err := buildProblem(config)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if fdim := prob.ObjectiveDimension(); fdim != 1 {
		http.Error(w, fmt.Sprintf("problem %q has %d objectives; simulated annealing requires a single objective",
			config.Problem, fdim), http.StatusBadRequest)
		return
	}

	// Create run
	run := s.runManager.CreateRun(config)

	// Start worker in background with a per-run cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	s.runManager.UpdateRun(run.ID, func(rn *Run) {
		rn.cancel = cancel
	})
	go runOptimization(ctx, s.runManager, s.store, s.dataDir, run.ID)

	// Return run
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(run)
}

// applyConfigDefaults fills in unset fields of a run configuration
func applyConfigDefaults(config *RunConfig) {
	if config.Problem == "" {
		config.Problem = "sphere"
	}
	if config.Dim <= 0 {
		config.Dim = 10
	}
	if config.Islands <= 0 {
		config.Islands = 4
	}
	if config.PopSize <= 0 {
		config.PopSize = 20
	}
	if config.DemeSize < 0 || config.DemeSize > config.PopSize {
		config.DemeSize = 2
	}
	if config.Policy == "" {
		config.Policy = "conservative"
	}
	if config.Epochs <= 0 {
		config.Epochs = 10
	}
	if config.Iterations <= 0 {
		config.Iterations = 10000
	}
	if config.StartTemp <= 0 {
		config.StartTemp = 10
	}
	if config.FinalTemp <= 0 {
		config.FinalTemp = 0.1
	}
}

// handleListRuns handles GET /api/v1/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.runManager.ListRuns()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// handleGetRunStatus handles GET /api/v1/runs/:id/status
func (s *Server) handleGetRunStatus(w http.ResponseWriter, r *http.Request, runID string) {
	run, exists := s.runManager.GetRun(runID)
	if !exists {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	// Compute elapsed time and epoch throughput
	var elapsed time.Duration
	if run.EndTime != nil {
		elapsed = run.EndTime.Sub(run.StartTime)
	} else {
		elapsed = time.Since(run.StartTime)
	}

	eps := float64(0)
	if elapsed.Seconds() > 0 && run.Epoch > 0 {
		eps = float64(run.Epoch) / elapsed.Seconds()
	}

	// Create response
	response := map[string]interface{}{
		"id":             run.ID,
		"state":          run.State,
		"config":         run.Config,
		"bestDecision":   run.BestDecision,
		"bestFitness":    run.BestFitness,
		"initialFitness": run.InitialFitness,
		"epoch":          run.Epoch,
		"elapsed":        elapsed.Seconds(),
		"eps":            eps,
		"startTime":      run.StartTime,
		"endTime":        run.EndTime,
		"error":          run.Error,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleCancelRun handles POST /api/v1/runs/:id/cancel
func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request, runID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.runManager.CancelRun(runID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, err.Error(), http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusConflict)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"id": runID, "state": "cancelling"})
}

// handleGetRunTrace handles GET /api/v1/runs/:id/trace
func (s *Server) handleGetRunTrace(w http.ResponseWriter, r *http.Request, runID string) {
	if s.dataDir == "" {
		http.Error(w, "Tracing disabled", http.StatusNotFound)
		return
	}

	reader, err := store.NewTraceReader(s.dataDir, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Trace not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to open trace: %v", err), http.StatusInternalServerError)
		}
		return
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read trace: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// handleGetRunCheckpoint handles GET /api/v1/runs/:id/checkpoint
func (s *Server) handleGetRunCheckpoint(w http.ResponseWriter, r *http.Request, runID string) {
	if s.store == nil {
		http.Error(w, "Checkpointing disabled", http.StatusNotFound)
		return
	}

	checkpoint, err := s.store.LoadCheckpoint(runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Checkpoint not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to load checkpoint: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(checkpoint)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
