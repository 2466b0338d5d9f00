// Package auctiondriver wires the order book, liquidity sources, solver
// client, settlement construction and simulation together into a single
// auction tick, the orchestration internal/engine/engine.go performed for
// the teacher's scan→quote→place loop.
package auctiondriver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gnosis/oba-services/internal/auction"
	"github.com/gnosis/oba-services/internal/cpamm"
	"github.com/gnosis/oba-services/internal/diagnostics"
	"github.com/gnosis/oba-services/internal/liquidity"
	"github.com/gnosis/oba-services/internal/orderbook"
	"github.com/gnosis/oba-services/internal/settlement"
	"github.com/gnosis/oba-services/internal/simulator"
	"github.com/gnosis/oba-services/pkg/tokenpair"
)

// Config tunes one driver instance.
type Config struct {
	NetworkID string
}

// Solver is the seam onto the solver HTTP client, satisfied by
// *solverclient.Client in production and a fake in tests.
type Solver interface {
	Solve(ctx context.Context, model auction.BatchAuctionModel) (*auction.SettledBatchAuctionModel, error)
}

// OrderSource is the seam onto the currently open order set. Satisfied by
// *orderbook.Book when the driver shares a process with the book, and by
// *orderbookclient.Client when it runs as the separate solverdriver binary
// reading a remote orderbookd's admission surface.
type OrderSource interface {
	List() []orderbook.Order
}

// Driver runs repeated auction ticks: gather liquidity, ask the solver,
// convert its response into a settlement, simulate, pick a winner.
type Driver struct {
	book      OrderSource
	pools     *cpamm.Cache
	solver    Solver
	caller    simulator.ChainCaller
	builder   simulator.Builder
	networkID string
	logger    *slog.Logger

	lastMu     sync.Mutex
	lastResult diagnostics.SimulationSummary
}

// New constructs a Driver.
func New(book OrderSource, pools *cpamm.Cache, solver Solver, caller simulator.ChainCaller, builder simulator.Builder, cfg Config, logger *slog.Logger) *Driver {
	return &Driver{
		book:      book,
		pools:     pools,
		solver:    solver,
		caller:    caller,
		builder:   builder,
		networkID: cfg.NetworkID,
		logger:    logger.With("component", "auctiondriver"),
	}
}

// LastSimulation implements diagnostics.SimulationProvider.
func (d *Driver) LastSimulation() diagnostics.SimulationSummary {
	d.lastMu.Lock()
	defer d.lastMu.Unlock()
	return d.lastResult
}

func (d *Driver) setLastSimulation(s diagnostics.SimulationSummary) {
	d.lastMu.Lock()
	d.lastResult = s
	d.lastMu.Unlock()
}

// Tick runs a single auction round: it gathers the currently open orders and
// the AMM pools relevant to their token pairs, asks the solver for one
// settlement proposal, converts it into a single candidate, simulates it,
// and returns it if it survives. A nil settlement with a nil error means no
// settlement was selected (no open orders, or the candidate failed
// simulation).
func (d *Driver) Tick(ctx context.Context) (*settlement.Settlement, error) {
	orders := d.book.List()
	if len(orders) == 0 {
		d.setLastSimulation(diagnostics.SimulationSummary{Timestamp: nowFunc()})
		return nil, nil
	}

	items := make([]liquidity.Liquidity, 0, len(orders))
	limitOrders := make([]*liquidity.LimitOrder, 0, len(orders))
	for _, o := range orders {
		lo := &liquidity.LimitOrder{
			ID:                o.UID,
			SellToken:         o.Creation.SellToken,
			BuyToken:          o.Creation.BuyToken,
			SellAmount:        o.Creation.SellAmount,
			BuyAmount:         o.Creation.BuyAmount,
			Kind:              o.Creation.Kind,
			PartiallyFillable: o.Creation.PartiallyFillable,
			FeeAmount:         o.Creation.FeeAmount,
			Handling:          liquidity.DefaultLimitOrderHandling{},
		}
		limitOrders = append(limitOrders, lo)
		items = append(items, lo)
	}

	amms, err := d.gatherPools(ctx, limitOrders)
	if err != nil {
		return nil, fmt.Errorf("auctiondriver: gather pool liquidity: %w", err)
	}
	for _, amm := range amms {
		items = append(items, amm)
	}

	prepared, err := auction.Prepare(items)
	if err != nil {
		return nil, fmt.Errorf("auctiondriver: prepare batch auction model: %w", err)
	}

	response, err := d.solver.Solve(ctx, prepared.Model)
	if err != nil {
		return nil, fmt.Errorf("auctiondriver: solve: %w", err)
	}

	settled, err := settlement.ConvertSettlement(response, prepared)
	if err != nil {
		return nil, fmt.Errorf("auctiondriver: convert solver response: %w", err)
	}

	candidates := []*settlement.Settlement{settled}
	simErrs, err := simulator.Simulate(ctx, d.caller, d.builder, candidates, simulator.Config{NetworkID: d.networkID})
	if err != nil {
		return nil, fmt.Errorf("auctiondriver: simulate: %w", err)
	}

	winner, err := simulator.Select(candidates, simErrs, simulator.DefaultScore)

	summary := diagnostics.SimulationSummary{
		Timestamp:      nowFunc(),
		CandidateCount: len(candidates),
		SelectedFound:  err == nil,
	}
	for _, simErr := range simErrs {
		if simErr != nil {
			summary.FailureLinks = append(summary.FailureLinks, simErr.Error())
		}
	}
	d.setLastSimulation(summary)

	if err != nil {
		d.logger.Warn("no settlement candidate survived simulation", "error", err)
		return nil, nil
	}
	return winner, nil
}

// gatherPools fetches constant-product reserves for every distinct token
// pair appearing among limitOrders, mirroring the original implementation's
// "baseline" liquidity collection restricted to pairs an order could
// actually use.
func (d *Driver) gatherPools(ctx context.Context, orders []*liquidity.LimitOrder) ([]*liquidity.ConstantProductOrder, error) {
	seen := make(map[tokenpair.Pair]struct{})
	var pairs []tokenpair.Pair
	for _, o := range orders {
		pair, err := tokenpair.New(o.SellToken, o.BuyToken)
		if err != nil {
			continue
		}
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].First().Less(pairs[j].First()) })

	out := make([]*liquidity.ConstantProductOrder, 0, len(pairs))
	for _, pair := range pairs {
		amm, err := d.pools.Get(ctx, pair)
		if err != nil {
			d.logger.Warn("skipping pool with unavailable reserves", "error", err)
			continue
		}
		amm.Handling = liquidity.DefaultAmmHandling{}
		out = append(out, amm)
	}
	return out, nil
}

// nowFunc is overridden in tests for determinism.
var nowFunc = time.Now
