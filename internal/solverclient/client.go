// Package solverclient posts a prepared batch auction to a solver over HTTP
// and parses its response, following the same resty construction (base URL,
// timeout, bounded retry on 5xx) as the teacher's internal/exchange.Client,
// with the query-parameter and error-context shape of
// original_source/solver/src/solver/http_solver.rs's send().
package solverclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/gnosis/oba-services/internal/auction"
)

// Config configures a Client.
type Config struct {
	BaseURL        string
	APIKey         string
	MaxNrExecOrders int
	TimeLimit      time.Duration
	RateLimit      float64 // requests per second, burst == RateLimit
}

// Client posts prepared batch auctions to a solver and parses its response.
type Client struct {
	http   *resty.Client
	rl     *TokenBucket
	apiKey string
	model  struct {
		maxNrExecOrders int
		timeLimit       time.Duration
	}
	logger *slog.Logger
}

// NewClient builds a Client with retry-on-5xx and a bounded request rate,
// mirroring internal/exchange/client.go's NewClient.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.TimeLimit + 5*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	rate := cfg.RateLimit
	if rate <= 0 {
		rate = 1
	}

	c := &Client{
		http:   httpClient,
		rl:     NewTokenBucket(rate, rate),
		apiKey: cfg.APIKey,
		logger: logger,
	}
	c.model.maxNrExecOrders = cfg.MaxNrExecOrders
	c.model.timeLimit = cfg.TimeLimit
	return c
}

// SolverNetworkError wraps a transport-level failure (DNS, connection
// refused, timeout) reaching the solver.
type SolverNetworkError struct {
	CorrelationID string
	Err           error
}

func (e *SolverNetworkError) Error() string {
	return fmt.Sprintf("solverclient: network error (correlation_id=%s): %v", e.CorrelationID, e.Err)
}

func (e *SolverNetworkError) Unwrap() error { return e.Err }

// SolverHTTPStatus is a non-2xx response from the solver, carrying the
// request query, request body and response body for diagnosis.
type SolverHTTPStatus struct {
	CorrelationID string
	StatusCode    int
	RequestQuery  string
	RequestBody   string
	ResponseBody  string
}

func (e *SolverHTTPStatus) Error() string {
	return fmt.Sprintf(
		"solverclient: solver returned status %d (correlation_id=%s, query=%s): request=%s response=%s",
		e.StatusCode, e.CorrelationID, e.RequestQuery, e.RequestBody, e.ResponseBody,
	)
}

// SolverBadJSON is a 2xx response whose body failed to parse as a
// SettledBatchAuctionModel.
type SolverBadJSON struct {
	CorrelationID string
	ResponseBody  string
	Err           error
}

func (e *SolverBadJSON) Error() string {
	return fmt.Sprintf("solverclient: malformed solver response (correlation_id=%s): %v: body=%s", e.CorrelationID, e.Err, e.ResponseBody)
}

func (e *SolverBadJSON) Unwrap() error { return e.Err }

// Solve posts model to the solver's /solve endpoint and returns its parsed
// response. A solver that responds with no usable settlement still returns
// a non-error SettledBatchAuctionModel; translating "no settlement proposed"
// is the caller's responsibility (settlement.ConvertSettlement treats an
// empty response as the trivial no-op settlement).
func (c *Client) Solve(ctx context.Context, model auction.BatchAuctionModel) (*auction.SettledBatchAuctionModel, error) {
	correlationID := uuid.NewString()

	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("solverclient: marshal batch auction model: %w", err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", correlationID).
		SetQueryParam("max_nr_exec_orders", fmt.Sprintf("%d", c.model.maxNrExecOrders)).
		SetQueryParam("time_limit", fmt.Sprintf("%d", int(c.model.timeLimit.Seconds()))).
		SetBody(body)
	if c.apiKey != "" {
		req.SetHeader("X-API-KEY", c.apiKey)
	}

	resp, err := req.Post("/solve")
	if err != nil {
		return nil, &SolverNetworkError{CorrelationID: correlationID, Err: err}
	}

	queryString := fmt.Sprintf("max_nr_exec_orders=%d&time_limit=%d", c.model.maxNrExecOrders, int(c.model.timeLimit.Seconds()))

	if !resp.IsSuccess() {
		return nil, &SolverHTTPStatus{
			CorrelationID: correlationID,
			StatusCode:    resp.StatusCode(),
			RequestQuery:  queryString,
			RequestBody:   string(body),
			ResponseBody:  resp.String(),
		}
	}

	var result auction.SettledBatchAuctionModel
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, &SolverBadJSON{CorrelationID: correlationID, ResponseBody: resp.String(), Err: err}
	}

	c.logger.Info("solver responded", "correlation_id", correlationID, "orders", len(result.Orders), "uniswaps", len(result.Uniswaps))
	return &result, nil
}
