// Package orderapi exposes order admission over HTTP using the standard
// library's net/http.ServeMux, the one router SPEC_FULL.md's Non-goals
// license staying on: routing the public order-submission API is a
// collaborator's concern, so no third-party router is pulled in here.
package orderapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gnosis/oba-services/internal/orderbook"
)

// Server admits, lists and cancels orders against an *orderbook.Book.
type Server struct {
	book   *orderbook.Book
	server *http.Server
	logger *slog.Logger
}

// NewServer builds a Server listening on addr.
func NewServer(addr string, book *orderbook.Book, logger *slog.Logger) *Server {
	s := &Server{book: book, logger: logger.With("component", "orderapi")}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/orders", s.handleCreate)
	mux.HandleFunc("GET /api/v1/orders", s.handleList)
	mux.HandleFunc("DELETE /api/v1/orders", s.handleCancel)

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
	s.logger.Info("order admission server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type orderCreationWire struct {
	SellToken         string `json:"sellToken"`
	BuyToken          string `json:"buyToken"`
	SellAmount        string `json:"sellAmount"`
	BuyAmount         string `json:"buyAmount"`
	ValidTo           uint32 `json:"validTo"`
	Kind              string `json:"kind"`
	PartiallyFillable bool   `json:"partiallyFillable"`
	FeeAmount         string `json:"feeAmount"`
	AppData           string `json:"appData"`
	Signature         string `json:"signature"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var wire orderCreationWire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := parseOrderCreation(wire)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	uid, err := s.book.Add(order)
	if err != nil {
		s.writeAdmissionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"uid": uid.String()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	orders := s.book.List()
	out := make([]OrderWire, len(orders))
	for i, o := range orders {
		out[i] = EncodeOrder(o)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var wire orderCreationWire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	order, err := parseOrderCreation(wire)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.book.Remove(order); err != nil {
		if errors.Is(err, orderbook.ErrDoesNotExist) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeAdmissionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orderbook.ErrPastValidTo),
		errors.Is(err, orderbook.ErrDuplicatedOrder),
		errors.Is(err, orderbook.ErrInvalidSignature),
		errors.Is(err, orderbook.ErrMissingOrderData):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, orderbook.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, orderbook.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.logger.Error("order admission failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
