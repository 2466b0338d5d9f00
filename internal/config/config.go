// Package config defines configuration for the orderbookd and solverdriver
// binaries. Config is loaded from a YAML file with sensitive fields
// overridable via SOLVER_*/ORDERBOOK_* environment variables, following the
// teacher's internal/config/config.go viper + mapstructure convention.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration shared by both binaries; each
// process only reads the sections relevant to it.
type Config struct {
	Logging      LoggingConfig      `mapstructure:"logging"`
	Chain        ChainConfig        `mapstructure:"chain"`
	Solver       SolverConfig       `mapstructure:"solver"`
	PoolCache    PoolCacheConfig    `mapstructure:"pool_cache"`
	PoolRegistry PoolRegistryConfig `mapstructure:"pool_registry"`
	OrderBook    OrderBookConfig    `mapstructure:"orderbook"`
	Diagnostics  DiagnosticsConfig  `mapstructure:"diagnostics"`
	Baseline     BaselineConfig     `mapstructure:"baseline"`
}

// LoggingConfig controls the slog handler. Level maps to LOG_FILTER.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ChainConfig describes the node connection and domain separator used for
// EIP-712 signature recovery.
type ChainConfig struct {
	NodeURL                        string        `mapstructure:"node_url"`
	NodeTimeout                    time.Duration `mapstructure:"node_timeout"`
	DomainSeparator                string        `mapstructure:"domain_separator"`
	GasEstimators                  []string      `mapstructure:"gas_estimators"`
	BlockStreamPollIntervalSeconds int           `mapstructure:"block_stream_poll_interval_seconds"`
	NetworkID                      string        `mapstructure:"network_id"`
	VaultAddress                   string        `mapstructure:"vault_address"`
	SettlementContract             string        `mapstructure:"settlement_contract"`
	SolverAddress                  string        `mapstructure:"solver_address"`
	ConstantProductFactory         string        `mapstructure:"constant_product_factory"`
}

// SolverConfig parameterizes internal/solverclient.Client.
type SolverConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	MaxNrExecOrders int           `mapstructure:"max_nr_exec_orders"`
	TimeLimit       time.Duration `mapstructure:"time_limit"`
	RateLimit       float64       `mapstructure:"rate_limit"`
}

// PoolCacheConfig parameterizes the constant-product reserve cache.
type PoolCacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// PoolRegistryConfig parameterizes the weighted-pool registry's checkpoint
// persistence. The checkpoint seeds the registry when solverdriver starts;
// the chain feed's initial resync still fetches the full event history and
// replaces the registry from block 0, so a restart does not skip replay.
type PoolRegistryConfig struct {
	CheckpointDir      string        `mapstructure:"checkpoint_dir"`
	CheckpointInterval time.Duration `mapstructure:"checkpoint_interval"`
}

// OrderBookConfig parameterizes the order admission HTTP service run by
// orderbookd, and the read-only client solverdriver uses to reach it.
type OrderBookConfig struct {
	ListenAddr          string        `mapstructure:"listen_addr"`
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
	ClientBaseURL       string        `mapstructure:"client_base_url"`
}

// DiagnosticsConfig parameterizes solverdriver's read-only snapshot
// endpoint, kept separate from OrderBookConfig.ListenAddr since the two
// binaries run independent HTTP listeners.
type DiagnosticsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// BaselineConfig mirrors the original implementation's baseline-liquidity
// tuning knobs (BASE_TOKENS, FEE_DISCOUNT_FACTOR, BASELINE_SOURCES). They are
// loaded but not read by any component; the auction-tick driver picks pools
// from the open orders' token pairs alone.
type BaselineConfig struct {
	BaseTokens        []string `mapstructure:"base_tokens"`
	FeeDiscountFactor float64  `mapstructure:"fee_discount_factor"`
	Sources           []string `mapstructure:"baseline_sources"`
}

// Load reads config from a YAML file with SOLVER_/ORDERBOOK_ env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if sep := os.Getenv("DOMAIN_SEPARATOR"); sep != "" {
		cfg.Chain.DomainSeparator = sep
	}
	if url := os.Getenv("NODE_URL"); url != "" {
		cfg.Chain.NodeURL = url
	}
	if key := os.Getenv("SOLVER_API_KEY"); key != "" {
		cfg.Solver.APIKey = key
	}
	if filter := os.Getenv("LOG_FILTER"); filter != "" {
		cfg.Logging.Level = filter
	}

	return &cfg, nil
}

// Validate rejects a config that would leave the service unable to start.
func (c *Config) Validate() error {
	if c.Chain.NodeURL == "" {
		return fmt.Errorf("chain.node_url is required (set NODE_URL)")
	}
	if c.Chain.DomainSeparator == "" {
		return fmt.Errorf("chain.domain_separator is required (set DOMAIN_SEPARATOR)")
	}
	if c.Chain.VaultAddress == "" {
		return fmt.Errorf("chain.vault_address is required")
	}
	if c.Chain.SettlementContract == "" {
		return fmt.Errorf("chain.settlement_contract is required")
	}
	if c.Chain.SolverAddress == "" {
		return fmt.Errorf("chain.solver_address is required")
	}
	if c.Chain.ConstantProductFactory == "" {
		return fmt.Errorf("chain.constant_product_factory is required")
	}
	if c.Chain.NodeTimeout <= 0 {
		return fmt.Errorf("chain.node_timeout must be > 0")
	}
	if c.Solver.BaseURL == "" {
		return fmt.Errorf("solver.base_url is required")
	}
	if c.Solver.MaxNrExecOrders <= 0 {
		return fmt.Errorf("solver.max_nr_exec_orders must be > 0")
	}
	if c.Solver.TimeLimit <= 0 {
		return fmt.Errorf("solver.time_limit must be > 0")
	}
	if c.PoolCache.TTL <= 0 {
		return fmt.Errorf("pool_cache.ttl must be > 0")
	}
	if c.PoolRegistry.CheckpointDir == "" {
		return fmt.Errorf("pool_registry.checkpoint_dir is required")
	}
	if c.PoolRegistry.CheckpointInterval <= 0 {
		return fmt.Errorf("pool_registry.checkpoint_interval must be > 0")
	}
	if c.OrderBook.ListenAddr == "" {
		return fmt.Errorf("orderbook.listen_addr is required")
	}
	if c.OrderBook.ClientBaseURL == "" {
		return fmt.Errorf("orderbook.client_base_url is required")
	}
	if c.Diagnostics.ListenAddr == "" {
		return fmt.Errorf("diagnostics.listen_addr is required")
	}
	return nil
}
