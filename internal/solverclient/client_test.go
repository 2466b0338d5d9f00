package solverclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gnosis/oba-services/internal/auction"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSolveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("max_nr_exec_orders") != "10" {
			t.Errorf("max_nr_exec_orders = %q, want 10", r.URL.Query().Get("max_nr_exec_orders"))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"orders":{"0":{"exec_sell_amount":"100","exec_buy_amount":"90"}},"uniswaps":{},"prices":{"t01":"1"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:         srv.URL,
		MaxNrExecOrders: 10,
		TimeLimit:       5 * time.Second,
		RateLimit:       100,
	}, testLogger())

	result, err := c.Solve(context.Background(), auction.BatchAuctionModel{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if result.Orders["0"].ExecSellAmount != "100" {
		t.Fatalf("exec sell amount = %q, want 100", result.Orders["0"].ExecSellAmount)
	}
}

func TestSolveHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`solver panicked`))
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:         srv.URL,
		MaxNrExecOrders: 10,
		TimeLimit:       time.Second,
		RateLimit:       100,
	}, testLogger())
	// retries would slow this test down; override to a fast client.
	c.http.SetRetryCount(0)

	_, err := c.Solve(context.Background(), auction.BatchAuctionModel{})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	var statusErr *SolverHTTPStatus
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %T, want *SolverHTTPStatus", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("StatusCode = %d, want 500", statusErr.StatusCode)
	}
	if statusErr.ResponseBody != "solver panicked" {
		t.Fatalf("ResponseBody = %q, want %q", statusErr.ResponseBody, "solver panicked")
	}
}

func TestSolveBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:         srv.URL,
		MaxNrExecOrders: 10,
		TimeLimit:       time.Second,
		RateLimit:       100,
	}, testLogger())

	_, err := c.Solve(context.Background(), auction.BatchAuctionModel{})
	if err == nil {
		t.Fatal("expected error for malformed JSON response")
	}
	var badJSON *SolverBadJSON
	if !errors.As(err, &badJSON) {
		t.Fatalf("error = %T, want *SolverBadJSON", err)
	}
}

func TestSolveSendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"orders":{},"uniswaps":{},"prices":{}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{
		BaseURL:         srv.URL,
		APIKey:          "secret-key",
		MaxNrExecOrders: 10,
		TimeLimit:       time.Second,
		RateLimit:       100,
	}, testLogger())

	if _, err := c.Solve(context.Background(), auction.BatchAuctionModel{}); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if gotKey != "secret-key" {
		t.Fatalf("X-API-KEY header = %q, want secret-key", gotKey)
	}
}
