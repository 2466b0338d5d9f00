// Package settlementcall implements simulator.Builder by ABI-encoding a call
// to the settlement contract's settle(address[],uint256[],Trade[],
// Interaction[][3]) method, the "consumed bind.ContractCaller/
// transaction-builder seam" SPEC_FULL.md describes for turning a candidate
// settlement into a call object the simulator can execute.
package settlementcall

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	gethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/gnosis/oba-services/internal/orderbook"
	"github.com/gnosis/oba-services/internal/settlement"
	"github.com/gnosis/oba-services/internal/simulator"
	"github.com/gnosis/oba-services/pkg/address"
)

var settleMethod = mustSettleMethod()

func mustSettleMethod() abi.Method {
	tokens, _ := abi.NewType("address[]", "", nil)
	prices, _ := abi.NewType("uint256[]", "", nil)
	trade, _ := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "sellTokenIndex", Type: "uint256"},
		{Name: "buyTokenIndex", Type: "uint256"},
		{Name: "receiver", Type: "address"},
		{Name: "sellAmount", Type: "uint256"},
		{Name: "buyAmount", Type: "uint256"},
		{Name: "validTo", Type: "uint32"},
		{Name: "appData", Type: "bytes32"},
		{Name: "feeAmount", Type: "uint256"},
		{Name: "flags", Type: "uint256"},
		{Name: "executedAmount", Type: "uint256"},
		{Name: "signature", Type: "bytes"},
	})
	// GPv2Settlement.settle's last parameter is Interaction.Data[][3]: three
	// fixed slots (pre-, intra- and post-settlement interactions), each a
	// dynamic array of interaction tuples.
	interactions, _ := abi.NewType("tuple[][3]", "", []abi.ArgumentMarshaling{
		{Name: "target", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "callData", Type: "bytes"},
	})

	return abi.NewMethod("settle", "settle", abi.Function, "external", false, false,
		abi.Arguments{
			{Name: "tokens", Type: tokens},
			{Name: "clearingPrices", Type: prices},
			{Name: "trades", Type: trade},
			{Name: "interactions", Type: interactions},
		},
		nil,
	)
}

// tradeArg mirrors GPv2Trade.Data's field order; go-ethereum's abi packer
// matches tuple components positionally against exported struct fields in
// declaration order.
type tradeArg struct {
	SellTokenIndex *big.Int
	BuyTokenIndex  *big.Int
	Receiver       gethcommon.Address
	SellAmount     *big.Int
	BuyAmount      *big.Int
	ValidTo        uint32
	AppData        [32]byte
	FeeAmount      *big.Int
	Flags          *big.Int
	ExecutedAmount *big.Int
	Signature      []byte
}

// sellOrderFlags marks a trade as a sell order with no partial fill and no
// interaction with a balancer internal balance, the zero value of the
// packed flags byte GPv2Settlement expects.
const sellOrderFlags = 0

// Builder implements simulator.Builder restricted to limit-order fills.
// Constant-product and weighted-pool trades require router-specific
// interaction calldata (Uniswap-style swap calls, Balancer batchSwap) this
// package does not encode — BuildCall rejects a settlement carrying any
// AmmTrades rather than silently dropping them. simulator.Simulate treats
// that rejection as a per-candidate failure, not a fatal error, so a tick
// that gathers AMM liquidity the solver ends up filling still completes:
// the candidate is scored out by simulator.Select instead of aborting the
// whole tick.
type Builder struct {
	settlementContract address.Address
	solver             address.Address
}

// NewBuilder constructs a Builder targeting the deployed settlement
// contract, submitting calls as solver.
func NewBuilder(settlementContract, solver address.Address) *Builder {
	return &Builder{settlementContract: settlementContract, solver: solver}
}

// BuildCall implements simulator.Builder.
func (b *Builder) BuildCall(s *settlement.Settlement) (simulator.SettlementCall, error) {
	if len(s.AmmTrades) > 0 {
		return simulator.SettlementCall{}, fmt.Errorf("settlementcall: AMM trade interaction encoding is not implemented, got %d AMM trades", len(s.AmmTrades))
	}

	tokens := sortedTokens(s.ClearingPrices)
	tokenIndex := make(map[address.Address]int, len(tokens))
	prices := make([]*big.Int, len(tokens))
	for i, t := range tokens {
		tokenIndex[t] = i
		prices[i] = rationalToWei(s.ClearingPrices[t])
	}

	trades := make([]tradeArg, 0, len(s.LimitOrderFills))
	for _, fill := range s.LimitOrderFills {
		sellIdx, ok := tokenIndex[fill.Order.SellToken]
		if !ok {
			return simulator.SettlementCall{}, fmt.Errorf("settlementcall: no clearing price for sell token %s", fill.Order.SellToken)
		}
		buyIdx, ok := tokenIndex[fill.Order.BuyToken]
		if !ok {
			return simulator.SettlementCall{}, fmt.Errorf("settlementcall: no clearing price for buy token %s", fill.Order.BuyToken)
		}

		flags := sellOrderFlags
		if fill.Order.Kind == orderbook.KindBuy {
			flags = 1
		}

		trades = append(trades, tradeArg{
			SellTokenIndex: big.NewInt(int64(sellIdx)),
			BuyTokenIndex:  big.NewInt(int64(buyIdx)),
			SellAmount:     fill.Order.SellAmount.Big(),
			BuyAmount:      fill.Order.BuyAmount.Big(),
			FeeAmount:      fill.Order.FeeAmount.Big(),
			Flags:          big.NewInt(int64(flags)),
			ExecutedAmount: fill.ExecSellAmount.Big(),
		})
	}

	tokenAddrs := make([]gethcommon.Address, len(tokens))
	for i, t := range tokens {
		tokenAddrs[i] = t.Common()
	}

	type interactionArg struct {
		Target   gethcommon.Address
		Value    *big.Int
		CallData []byte
	}
	var interactions [3][]interactionArg

	packed, err := settleMethod.Inputs.Pack(tokenAddrs, prices, trades, interactions)
	if err != nil {
		return simulator.SettlementCall{}, fmt.Errorf("settlementcall: pack settle args: %w", err)
	}

	data := append(append([]byte{}, settleMethod.ID...), packed...)
	return simulator.SettlementCall{
		From: b.solver,
		To:   b.settlementContract,
		Data: data,
	}, nil
}

func sortedTokens(prices map[address.Address]*big.Rat) []address.Address {
	tokens := make([]address.Address, 0, len(prices))
	for t := range prices {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Less(tokens[j]) })
	return tokens
}

// rationalToWei truncates a clearing price's exact rational representation
// to an integer wei-scale price, the precision GPv2Settlement's on-chain
// uint256 clearingPrices array stores.
func rationalToWei(price *big.Rat) *big.Int {
	out := new(big.Int)
	out.Quo(price.Num(), price.Denom())
	return out
}
