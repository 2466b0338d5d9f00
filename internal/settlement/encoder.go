// Package settlement builds a candidate Settlement from a solver's response,
// by replaying each executed order or AMM trade through its liquidity
// instance's SettlementHandling capability, the same "interface-object per
// instance rather than reflection" dispatch the batch auction model
// describes (see internal/liquidity).
package settlement

import (
	"math/big"

	"github.com/gnosis/oba-services/internal/liquidity"
	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/bigmath"
)

// LimitOrderFill is one limit order's recorded execution.
type LimitOrderFill struct {
	Order          *liquidity.LimitOrder
	ExecSellAmount bigmath.UInt256
	ExecBuyAmount  bigmath.UInt256
}

// AmmTrade is one AMM's recorded execution.
type AmmTrade struct {
	Order     *liquidity.ConstantProductOrder
	Execution liquidity.AmmOrderExecution
}

// Settlement is the accumulated result of encoding every executed order and
// AMM trade a solver proposed, plus the uniform clearing prices it quoted.
// It is the settlement package's concrete analogue of the opaque
// EncodedSettlement the SettlementHandling capability writes into.
type Settlement struct {
	LimitOrderFills []LimitOrderFill
	AmmTrades       []AmmTrade
	ClearingPrices  map[address.Address]*big.Rat
}

// Encoder is the concrete SettlementEncoder every SettlementHandling
// implementation writes into. It has no notion of "how" an order or AMM
// trade becomes an on-chain interaction; it only records what a solver
// proposed, in the order proposals arrive.
type Encoder struct {
	fills  []LimitOrderFill
	trades []AmmTrade
	prices map[address.Address]*big.Rat
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{prices: make(map[address.Address]*big.Rat)}
}

// AddLimitOrderExecution implements liquidity.SettlementEncoder.
func (e *Encoder) AddLimitOrderExecution(order *liquidity.LimitOrder, execSellAmount, execBuyAmount bigmath.UInt256) error {
	e.fills = append(e.fills, LimitOrderFill{Order: order, ExecSellAmount: execSellAmount, ExecBuyAmount: execBuyAmount})
	return nil
}

// AddAmmExecution implements liquidity.SettlementEncoder.
func (e *Encoder) AddAmmExecution(order *liquidity.ConstantProductOrder, execution liquidity.AmmOrderExecution) error {
	e.trades = append(e.trades, AmmTrade{Order: order, Execution: execution})
	return nil
}

// SetClearingPrice implements liquidity.SettlementEncoder.
func (e *Encoder) SetClearingPrice(token address.Address, price *big.Rat) {
	e.prices[token] = price
}

// Build returns the accumulated Settlement.
func (e *Encoder) Build() *Settlement {
	return &Settlement{
		LimitOrderFills: e.fills,
		AmmTrades:       e.trades,
		ClearingPrices:  e.prices,
	}
}
