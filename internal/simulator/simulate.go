// Package simulator checks candidate settlements against the current chain
// state via an eth_call batch and picks the best one that would succeed,
// grounded on settlement_simulation.rs's simulate_settlements and
// tenderly_link.
package simulator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"golang.org/x/sync/errgroup"

	"github.com/gnosis/oba-services/internal/settlement"
	"github.com/gnosis/oba-services/pkg/address"
)

// flushSize bounds how many simulation calls run concurrently in one pass,
// matching settlement_simulation.rs's SIMULATE_BATCH_SIZE.
const flushSize = 10

// ChainCaller is the consumed seam onto the chain node: an eth_call for
// simulating a settlement transaction, and the current block number for the
// tenderly diagnostic link. *ethclient.Client satisfies this directly.
type ChainCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// SettlementCall is the settlement contract call an EncodedSettlement
// compiles to: the fields the tenderly link and the eth_call both need.
type SettlementCall struct {
	From address.Address
	To   address.Address
	Data []byte
}

// Builder compiles a Settlement into the on-chain call that would submit it.
// Its implementation lives outside this package (the settlement contract
// ABI and transaction-builder seam).
type Builder interface {
	BuildCall(s *settlement.Settlement) (SettlementCall, error)
}

// Config parameterizes Simulate's diagnostic link construction.
type Config struct {
	NetworkID string
}

// SimulationFailed wraps a failed candidate's underlying error with a
// tenderly diagnostic link.
type SimulationFailed struct {
	Link string
	Err  error
}

func (e *SimulationFailed) Error() string {
	return fmt.Sprintf("simulator: simulation failed (%s): %v", e.Link, e.Err)
}

func (e *SimulationFailed) Unwrap() error { return e.Err }

// Simulate checks every candidate against the current chain state and
// returns a parallel slice of errors: nil for a candidate that would
// succeed, non-nil for one that would not (either because the call couldn't
// be built, e.g. a settlement whose AMM interactions this Builder doesn't
// encode, or because the eth_call itself reverted).
func Simulate(ctx context.Context, caller ChainCaller, builder Builder, candidates []*settlement.Settlement, cfg Config) ([]error, error) {
	calls := make([]SettlementCall, len(candidates))
	results := make([]error, len(candidates))
	var simulable []int
	for i, c := range candidates {
		call, err := builder.BuildCall(c)
		if err != nil {
			results[i] = fmt.Errorf("simulator: build call for candidate %d: %w", i, err)
			continue
		}
		calls[i] = call
		simulable = append(simulable, i)
	}
	if len(simulable) == 0 {
		return results, nil
	}

	var blockNumber uint64
	blockGroup, blockCtx := errgroup.WithContext(ctx)
	blockGroup.Go(func() error {
		bn, err := caller.BlockNumber(blockCtx)
		if err != nil {
			return fmt.Errorf("simulator: fetch current block number: %w", err)
		}
		blockNumber = bn
		return nil
	})

	callErrs := make([]error, len(candidates))
	callGroup, callCtx := errgroup.WithContext(ctx)
	callGroup.SetLimit(flushSize)
	for _, idx := range simulable {
		i := idx
		call := calls[i]
		callGroup.Go(func() error {
			to := call.To.Common()
			_, err := caller.CallContract(callCtx, ethereum.CallMsg{
				From: call.From.Common(),
				To:   &to,
				Data: call.Data,
			}, nil)
			callErrs[i] = err
			return nil
		})
	}
	if err := callGroup.Wait(); err != nil {
		return nil, err
	}
	if err := blockGroup.Wait(); err != nil {
		return nil, err
	}

	for _, i := range simulable {
		if callErrs[i] == nil {
			continue
		}
		results[i] = &SimulationFailed{
			Link: tenderlyLink(blockNumber, cfg.NetworkID, calls[i]),
			Err:  callErrs[i],
		}
	}
	return results, nil
}

// tenderlyLink reproduces settlement_simulation.rs's tenderly_link format
// exactly, down to the workspace/project path segments.
func tenderlyLink(currentBlock uint64, networkID string, call SettlementCall) string {
	return fmt.Sprintf(
		"https://dashboard.tenderly.co/gp-v2/staging/simulator/new?block=%d&blockIndex=0&from=%s&gas=8000000&gasPrice=0&value=0&contractAddress=%s&rawFunctionInput=0x%x&network=%s",
		currentBlock, call.From.String(), call.To.String(), call.Data, networkID,
	)
}
