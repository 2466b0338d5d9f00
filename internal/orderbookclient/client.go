// Package orderbookclient reads the currently open order set from a remote
// orderbookd's admission API, the transport auctiondriver.Driver needs when
// it runs as the separate solverdriver binary rather than sharing a process
// with the order book. Construction mirrors the teacher's resty-based
// internal/exchange.Client (base URL, timeout, bounded retry on 5xx); unlike
// internal/solverclient it never writes, so it carries no rate limiter.
package orderbookclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gnosis/oba-services/internal/orderapi"
	"github.com/gnosis/oba-services/internal/orderbook"
)

// Client fetches the open order set from a remote orderbookd instance.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// New builds a Client reading orderbookd's admission API at baseURL.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(3).
			SetRetryWaitTime(250 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return r.StatusCode() >= 500
			}),
		logger: logger.With("component", "orderbookclient"),
	}
}

// List implements auctiondriver.OrderSource by fetching and decoding every
// currently open order. A fetch failure logs and returns no orders rather
// than propagating an error, since OrderSource has no error return; a
// malformed individual order is skipped the same way rather than failing
// the whole batch.
func (c *Client) List() []orderbook.Order {
	orders, err := c.fetch(context.Background())
	if err != nil {
		c.logger.Warn("failed to fetch open orders", "error", err)
		return nil
	}
	return orders
}

// FetchContext is the context-aware equivalent of List, for callers that
// want to propagate cancellation and observe fetch errors.
func (c *Client) FetchContext(ctx context.Context) ([]orderbook.Order, error) {
	return c.fetch(ctx)
}

func (c *Client) fetch(ctx context.Context) ([]orderbook.Order, error) {
	var wire []orderapi.OrderWire
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&wire).
		Get("/api/v1/orders")
	if err != nil {
		return nil, fmt.Errorf("orderbookclient: fetch orders: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("orderbookclient: fetch orders: status %d", resp.StatusCode())
	}

	out := make([]orderbook.Order, 0, len(wire))
	for _, w := range wire {
		order, err := orderapi.DecodeOrder(w)
		if err != nil {
			c.logger.Warn("skipping malformed order from remote order book", "uid", w.UID, "error", err)
			continue
		}
		out = append(out, order)
	}
	return out, nil
}
