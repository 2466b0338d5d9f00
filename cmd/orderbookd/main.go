// Command orderbookd runs the order admission service: an HTTP API backed
// by an in-memory, EIP-712-verified order book, with a background sweep
// evicting expired orders. It is one of the two thin binaries the solver
// driver (cmd/solverdriver) talks to rather than shares a process with,
// following a load→wire→start→signal-wait→stop shape throughout.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gnosis/oba-services/internal/config"
	"github.com/gnosis/oba-services/internal/orderapi"
	"github.com/gnosis/oba-services/internal/orderbook"
	"github.com/gnosis/oba-services/pkg/hash"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("ORDERBOOKD_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	domainSeparatorHash, err := hash.Parse(cfg.Chain.DomainSeparator)
	if err != nil {
		logger.Error("invalid chain.domain_separator", "error", err)
		os.Exit(1)
	}
	domainSeparator := orderbook.DomainSeparator(domainSeparatorHash)

	book := orderbook.New(domainSeparator, orderbook.EIP712Recoverer{}, nowSeconds)

	server := orderapi.NewServer(cfg.OrderBook.ListenAddr, book, logger)

	maintenanceInterval := cfg.OrderBook.MaintenanceInterval
	if maintenanceInterval <= 0 {
		maintenanceInterval = time.Minute
	}
	maintenanceCtx, cancelMaintenance := context.WithCancel(context.Background())
	go runMaintenanceLoop(maintenanceCtx, book, maintenanceInterval)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("order admission server failed", "error", err)
		}
	}()
	logger.Info("orderbookd started", "listen_addr", cfg.OrderBook.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	cancelMaintenance()
	if err := server.Stop(); err != nil {
		logger.Error("failed to stop order admission server", "error", err)
	}
}

func runMaintenanceLoop(ctx context.Context, book *orderbook.Book, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			book.RunMaintenance()
		}
	}
}

func nowSeconds() uint32 {
	return uint32(time.Now().Unix())
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
