// Command solverdriver runs the auction tick loop: it reads the currently
// open order set from a remote orderbookd, tracks Balancer weighted-pool
// registrations and constant-product reserves, asks a solver for a
// settlement proposal each tick, simulates it, and exposes the winning candidate
// and pipeline health over a diagnostics HTTP endpoint. It is the second of
// the two thin binaries, following the same load→wire→start→signal-wait→
// stop shape as orderbookd.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/gnosis/oba-services/internal/auctiondriver"
	"github.com/gnosis/oba-services/internal/chaindecode"
	"github.com/gnosis/oba-services/internal/chainfeed"
	"github.com/gnosis/oba-services/internal/chainreserve"
	"github.com/gnosis/oba-services/internal/config"
	"github.com/gnosis/oba-services/internal/cpamm"
	"github.com/gnosis/oba-services/internal/diagnostics"
	"github.com/gnosis/oba-services/internal/orderbookclient"
	"github.com/gnosis/oba-services/internal/poolregistry"
	"github.com/gnosis/oba-services/internal/settlementcall"
	"github.com/gnosis/oba-services/internal/solverclient"
	"github.com/gnosis/oba-services/pkg/address"
)

const tickInterval = 2 * time.Second

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("SOLVERDRIVER_CONFIG"); p != "" {
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

	vaultAddr, err := address.Parse(cfg.Chain.VaultAddress)
	if err != nil {
		logger.Error("invalid chain.vault_address", "error", err)
		os.Exit(1)
	}
	settlementAddr, err := address.Parse(cfg.Chain.SettlementContract)
	if err != nil {
		logger.Error("invalid chain.settlement_contract", "error", err)
		os.Exit(1)
	}
	solverAddr, err := address.Parse(cfg.Chain.SolverAddress)
	if err != nil {
		logger.Error("invalid chain.solver_address", "error", err)
		os.Exit(1)
	}
	cpFactoryAddr, err := address.Parse(cfg.Chain.ConstantProductFactory)
	if err != nil {
		logger.Error("invalid chain.constant_product_factory", "error", err)
		os.Exit(1)
	}

	dialCtx, cancelDial := context.WithTimeout(context.Background(), cfg.Chain.NodeTimeout)
	ethClient, err := ethclient.DialContext(dialCtx, cfg.Chain.NodeURL)
	cancelDial()
	if err != nil {
		logger.Error("failed to dial chain node", "error", err)
		os.Exit(1)
	}

	checkpointStore, err := poolregistry.OpenCheckpointStore(cfg.PoolRegistry.CheckpointDir)
	if err != nil {
		logger.Error("failed to open pool registry checkpoint store", "error", err)
		os.Exit(1)
	}
	checkpoint, err := checkpointStore.Load()
	if err != nil {
		logger.Error("failed to load pool registry checkpoint", "error", err)
		os.Exit(1)
	}
	registry := poolregistry.Restore(checkpoint)
	registryDriver := poolregistry.NewDriver(registry)
	if checkpoint != nil {
		logger.Info("pool registry restored from checkpoint", "last_event_block", checkpoint.LastEventBlock, "pools", len(checkpoint.Pools))
	} else {
		logger.Info("no pool registry checkpoint found, starting from genesis")
	}

	decoder := chaindecode.New(vaultAddr)
	feed := chainfeed.New(
		cfg.Chain.NodeURL,
		ethereum.FilterQuery{Addresses: []gethcommon.Address{vaultAddr.Common()}},
		ethClient,
		decoder,
		registryDriver,
		logger,
	)

	feedCtx, cancelFeed := context.WithCancel(context.Background())
	go func() {
		if err := feed.Run(feedCtx); err != nil && feedCtx.Err() == nil {
			logger.Error("chain log feed stopped", "error", err)
		}
	}()

	reserveFetcher := chainreserve.New(ethClient, chainreserve.FactoryLocator(ethClient, cpFactoryAddr))
	pools := cpamm.New(cfg.PoolCache.TTL, reserveFetcher.Fetch)

	orderSource := orderbookclient.New(cfg.OrderBook.ClientBaseURL, cfg.Chain.NodeTimeout, logger)

	solver := solverclient.NewClient(solverclient.Config{
		BaseURL:         cfg.Solver.BaseURL,
		APIKey:          cfg.Solver.APIKey,
		MaxNrExecOrders: cfg.Solver.MaxNrExecOrders,
		TimeLimit:       cfg.Solver.TimeLimit,
		RateLimit:       cfg.Solver.RateLimit,
	}, logger)

	builder := settlementcall.NewBuilder(settlementAddr, solverAddr)

	driver := auctiondriver.New(orderSource, pools, solver, ethClient, builder, auctiondriver.Config{NetworkID: cfg.Chain.NetworkID}, logger)

	diagServer := diagnostics.NewServer(cfg.Diagnostics.ListenAddr, orderSource, registryDriver, driver, logger)

	tickCtx, cancelTick := context.WithCancel(context.Background())
	go runTickLoop(tickCtx, driver, logger)

	checkpointCtx, cancelCheckpoint := context.WithCancel(context.Background())
	go runCheckpointLoop(checkpointCtx, checkpointStore, registry, cfg.PoolRegistry.CheckpointInterval, logger)

	go func() {
		if err := diagServer.Start(); err != nil {
			logger.Error("diagnostics server failed", "error", err)
		}
	}()
	logger.Info("solverdriver started", "diagnostics_addr", cfg.Diagnostics.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	cancelTick()
	cancelFeed()
	cancelCheckpoint()
	if err := checkpointStore.Save(registry); err != nil {
		logger.Error("failed to save pool registry checkpoint on shutdown", "error", err)
	}
	if err := diagServer.Stop(); err != nil {
		logger.Error("failed to stop diagnostics server", "error", err)
	}
}

func runCheckpointLoop(ctx context.Context, store *poolregistry.CheckpointStore, registry *poolregistry.Registry, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Save(registry); err != nil {
				logger.Error("failed to save pool registry checkpoint", "error", err)
			}
		}
	}
}

func runTickLoop(ctx context.Context, driver *auctiondriver.Driver, logger *slog.Logger) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := driver.Tick(ctx); err != nil {
				logger.Error("auction tick failed", "error", err)
			}
		}
	}
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
