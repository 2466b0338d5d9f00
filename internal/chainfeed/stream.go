// Package chainfeed tails a node's Balancer-vault pool-registration logs and
// feeds decoded events into a poolregistry.Driver, reusing the reconnect/
// ping/read-deadline shape of internal/exchange/ws.go for a blockchain log
// subscription transport in place of Polymarket market/user WS feeds.
package chainfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/gorilla/websocket"

	"github.com/gnosis/oba-services/internal/poolregistry"
)

const (
	pingInterval     = 30 * time.Second
	readTimeout      = 90 * time.Second
	maxReconnectWait = 30 * time.Second
	writeTimeout     = 10 * time.Second
	logBufferSize    = 256
)

// Decoder turns a raw chain log into a pool-registry event. ok is false for
// a log the decoder recognizes as deliberately unmodeled (§7's "drop
// known-irrelevant events with a diagnostic log line" rule); a non-nil err
// is a MalformedEvent, fatal for this log.
type Decoder interface {
	Decode(log gethtypes.Log) (evt poolregistry.IndexedEvent, ok bool, err error)
}

// LogFetcher performs a bounded eth_getLogs query, used to rebuild registry
// state from genesis on first start and after a reorg is observed.
type LogFetcher interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]gethtypes.Log, error)
}

// Stream subscribes to a node's logs over a WebSocket JSON-RPC connection
// and drives a poolregistry.Driver from the decoded event stream.
type Stream struct {
	wsURL   string
	query   ethereum.FilterQuery
	fetcher LogFetcher
	decoder Decoder
	driver  *poolregistry.Driver
	logger  *slog.Logger

	connMu sync.Mutex
	conn   *websocket.Conn
}

// New constructs a Stream. wsURL is the node's WebSocket JSON-RPC endpoint;
// fetcher is used for the eth_getLogs-based resync that seeds the driver at
// startup and after any reorg is observed on the subscription.
func New(wsURL string, query ethereum.FilterQuery, fetcher LogFetcher, decoder Decoder, driver *poolregistry.Driver, logger *slog.Logger) *Stream {
	return &Stream{
		wsURL:   wsURL,
		query:   query,
		fetcher: fetcher,
		decoder: decoder,
		driver:  driver,
		logger:  logger.With("component", "chainfeed"),
	}
}

// Run connects and maintains the subscription with auto-reconnect. Blocks
// until ctx is cancelled.
func (s *Stream) Run(ctx context.Context) error {
	if err := s.resync(ctx); err != nil {
		return fmt.Errorf("chainfeed: initial resync: %w", err)
	}

	backoff := time.Second
	for {
		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Warn("chain log subscription disconnected, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

// Close gracefully closes the connection.
func (s *Stream) Close() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcNotification struct {
	Method string `json:"method"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

func (s *Stream) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	defer func() {
		s.connMu.Lock()
		conn.Close()
		s.conn = nil
		s.connMu.Unlock()
	}()

	sub := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_subscribe",
		Params:  []interface{}{"logs", s.query},
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	s.logger.Info("chain log subscription established")

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go s.pingLoop(pingCtx)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if err := s.dispatchMessage(ctx, msg); err != nil {
			s.logger.Error("handle chain log notification", "error", err)
		}
	}
}

func (s *Stream) dispatchMessage(ctx context.Context, data []byte) error {
	var notification rpcNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		s.logger.Debug("ignoring non-subscription ws message", "data", string(data))
		return nil
	}
	if notification.Method != "eth_subscription" {
		return nil
	}

	var log gethtypes.Log
	if err := json.Unmarshal(notification.Params.Result, &log); err != nil {
		return fmt.Errorf("unmarshal log: %w", err)
	}

	if log.Removed {
		s.logger.Warn("reorg detected, resyncing pool registry from genesis", "block", log.BlockNumber)
		return s.resync(ctx)
	}

	evt, ok, err := s.decoder.Decode(log)
	if err != nil {
		s.logger.Error("malformed pool registry event", "error", err, "tx_hash", log.TxHash)
		return fmt.Errorf("decode log: %w", err)
	}
	if !ok {
		s.logger.Debug("ignoring unmodeled contract event", "tx_hash", log.TxHash, "block", log.BlockNumber)
		return nil
	}

	return s.driver.Append([]poolregistry.IndexedEvent{evt})
}

func (s *Stream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			s.connMu.Unlock()
			if conn == nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Warn("ping failed", "error", err)
				return
			}
		}
	}
}

// resync rebuilds the driver's registry from the full eth_getLogs history
// matching the stream's query, passing fromBlock 0 to ReplaceEvents so that
// every previously held pool is dropped first (see
// poolregistry.Registry.ReplaceEvents).
func (s *Stream) resync(ctx context.Context) error {
	logs, err := s.fetcher.FilterLogs(ctx, s.query)
	if err != nil {
		return fmt.Errorf("fetch logs: %w", err)
	}

	events := make([]poolregistry.IndexedEvent, 0, len(logs))
	for _, log := range logs {
		evt, ok, err := s.decoder.Decode(log)
		if err != nil {
			s.logger.Error("malformed pool registry event during resync", "error", err, "tx_hash", log.TxHash)
			continue
		}
		if !ok {
			continue
		}
		events = append(events, evt)
	}

	return s.driver.Replace(0, events)
}
