// Package diagnostics exposes a minimal, read-only HTTP surface over the
// order book, pool registry and last simulation outcome, adapted from the
// teacher's internal/api dashboard server down to the snapshot endpoints
// only — routing the public order-submission API is explicitly a
// collaborator's concern (see SPEC_FULL.md §2.2), so this package carries no
// write path and no router beyond net/http.ServeMux.
package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gnosis/oba-services/internal/orderbook"
)

// OrderBookProvider is the read-only seam onto the order book.
type OrderBookProvider interface {
	List() []orderbook.Order
}

// PoolRegistryProvider is the read-only seam onto the pool registry driver.
type PoolRegistryProvider interface {
	LastEventBlock() uint64
}

// SimulationSummary is the last auction tick's simulation outcome.
type SimulationSummary struct {
	Timestamp      time.Time `json:"timestamp"`
	CandidateCount int       `json:"candidate_count"`
	SelectedFound  bool      `json:"selected_found"`
	FailureLinks   []string  `json:"failure_links,omitempty"`
}

// SimulationProvider reports the most recent simulation tick's outcome.
type SimulationProvider interface {
	LastSimulation() SimulationSummary
}

// Snapshot is the /api/snapshot response body.
type Snapshot struct {
	OrderCount     int               `json:"order_count"`
	LastEventBlock uint64            `json:"last_event_block"`
	Simulation     SimulationSummary `json:"simulation"`
}

// Server runs the diagnostics HTTP server.
type Server struct {
	orderBook  OrderBookProvider
	registry   PoolRegistryProvider
	simulation SimulationProvider
	server     *http.Server
	logger     *slog.Logger
}

// NewServer builds a Server listening on addr.
func NewServer(addr string, orderBook OrderBookProvider, registry PoolRegistryProvider, simulation SimulationProvider, logger *slog.Logger) *Server {
	s := &Server{
		orderBook:  orderBook,
		registry:   registry,
		simulation: simulation,
		logger:     logger.With("component", "diagnostics"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start blocks serving until Stop is called or the server fails.
func (s *Server) Start() error {
	s.logger.Info("diagnostics server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("diagnostics: serve: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot := Snapshot{
		OrderCount:     len(s.orderBook.List()),
		LastEventBlock: s.registry.LastEventBlock(),
		Simulation:     s.simulation.LastSimulation(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		s.logger.Error("encode snapshot", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
