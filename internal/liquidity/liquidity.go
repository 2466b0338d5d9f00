// Package liquidity defines the closed set of tradeable liquidity a batch
// auction can settle against: signed limit orders and the two supported AMM
// families. Each variant carries a SettlementHandling capability, the one
// point of dynamic dispatch in the system — the auction translator and
// settlement builder never need to know how a particular liquidity kind
// encodes its on-chain interaction.
package liquidity

import (
	"fmt"
	"math/big"

	"github.com/gnosis/oba-services/internal/orderbook"
	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/bigmath"
	"github.com/gnosis/oba-services/pkg/tokenpair"
)

// Liquidity is the closed variant set: Limit | ConstantProduct |
// WeightedProduct. Translation and settlement code dispatch on concrete
// type via a type switch.
type Liquidity interface {
	isLiquidity()
}

// Rational32 is a small exact fraction used for constant-product pool fees.
type Rational32 struct {
	Num, Denom int32
}

// Float64 converts the fraction to a float64 for wire serialization.
func (r Rational32) Float64() float64 {
	if r.Denom == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Denom)
}

// BigRational is an exact arbitrary-precision fraction used for
// weighted-pool fees and weights.
type BigRational struct {
	r *big.Rat
}

// NewBigRational builds a BigRational from numerator and denominator
// decimal strings.
func NewBigRational(num, denom string) (BigRational, error) {
	n, ok := new(big.Int).SetString(num, 10)
	if !ok {
		return BigRational{}, fmt.Errorf("liquidity: invalid rational numerator %q", num)
	}
	d, ok := new(big.Int).SetString(denom, 10)
	if !ok {
		return BigRational{}, fmt.Errorf("liquidity: invalid rational denominator %q", denom)
	}
	return BigRational{r: new(big.Rat).SetFrac(n, d)}, nil
}

// Float64 converts to a float64 for wire serialization, losing precision.
func (b BigRational) Float64() float64 {
	if b.r == nil {
		return 0
	}
	f, _ := b.r.Float64()
	return f
}

// AmmOrderExecution is the signed-delta execution a solver proposes for an
// AMM trade: tokens and amounts flowing in and out of the pool.
type AmmOrderExecution struct {
	Input  TokenAmount
	Output TokenAmount
}

// TokenAmount pairs a token with an amount.
type TokenAmount struct {
	Token  address.Address
	Amount bigmath.UInt256
}

// SettlementEncoder accumulates the interactions and clearing prices that
// make up a candidate settlement. Its internals are opaque to this package;
// it is defined in package settlement and consumed here only through the
// SettlementHandling interfaces below.
type SettlementEncoder interface {
	AddLimitOrderExecution(order *LimitOrder, execSellAmount, execBuyAmount bigmath.UInt256) error
	AddAmmExecution(order *ConstantProductOrder, execution AmmOrderExecution) error
	SetClearingPrice(token address.Address, price *big.Rat)
}

// LimitOrderSettlementHandling encodes a limit order's fill into a
// SettlementEncoder.
type LimitOrderSettlementHandling interface {
	Encode(order *LimitOrder, execSellAmount, execBuyAmount bigmath.UInt256, enc SettlementEncoder) error
}

// AmmSettlementHandling encodes an AMM's trade into a SettlementEncoder.
type AmmSettlementHandling interface {
	Encode(order *ConstantProductOrder, execution AmmOrderExecution, enc SettlementEncoder) error
}

// LimitOrder is orderbook liquidity eligible for inclusion in a batch
// auction.
type LimitOrder struct {
	ID                orderbook.OrderUid
	SellToken         address.Address
	BuyToken          address.Address
	SellAmount        bigmath.UInt256
	BuyAmount         bigmath.UInt256
	Kind              orderbook.OrderKind
	PartiallyFillable bool
	FeeAmount         bigmath.UInt256
	Handling          LimitOrderSettlementHandling
}

func (*LimitOrder) isLiquidity() {}

// FullExecutionAmount is the amount fully filling this order would consume
// or produce: SellAmount for a sell order, BuyAmount for a buy order.
func (o *LimitOrder) FullExecutionAmount() bigmath.UInt256 {
	if o.Kind == orderbook.KindBuy {
		return o.BuyAmount
	}
	return o.SellAmount
}

// ConstantProductOrder is a two-token constant-product (Uniswap-style) pool
// snapshot.
type ConstantProductOrder struct {
	Tokens   tokenpair.Pair
	Reserve0 bigmath.UInt256
	Reserve1 bigmath.UInt256
	Fee      Rational32
	Handling AmmSettlementHandling
}

func (*ConstantProductOrder) isLiquidity() {}

// ConstantProduct returns reserve0*reserve1 widened to arbitrary precision,
// the AMM's invariant quantity.
func (o *ConstantProductOrder) ConstantProduct() bigmath.BigUInt {
	return o.Reserve0.MulToBigUInt(o.Reserve1)
}

// WeightedTokenState is one token's balance, normalized weight and decimal
// scaling exponent within a weighted pool.
type WeightedTokenState struct {
	Balance         bigmath.UInt256
	Weight          BigRational
	ScalingExponent uint8
}

// WeightedProductOrder is a Balancer-style weighted pool snapshot.
type WeightedProductOrder struct {
	PoolID   address.Address
	Reserves map[address.Address]WeightedTokenState
	Fee      BigRational
	Handling AmmSettlementHandling
}

func (*WeightedProductOrder) isLiquidity() {}

// Tokens returns the pool's token set in no particular order.
func (o *WeightedProductOrder) Tokens() []address.Address {
	out := make([]address.Address, 0, len(o.Reserves))
	for t := range o.Reserves {
		out = append(out, t)
	}
	return out
}

// weightTolerance bounds how far a weighted pool's normalized weights may
// deviate from summing to 1, absorbing typical fixed-point rounding in
// vault-style weight storage.
var weightTolerance = big.NewRat(1, 1_000_000_000)

// ValidateWeights checks that o has at least two tokens and that its
// weights sum to 1 within weightTolerance.
func (o *WeightedProductOrder) ValidateWeights() error {
	if len(o.Reserves) < 2 {
		return fmt.Errorf("liquidity: weighted pool must have at least two tokens, got %d", len(o.Reserves))
	}
	sum := new(big.Rat)
	for _, state := range o.Reserves {
		if state.Weight.r == nil {
			return fmt.Errorf("liquidity: weighted pool token missing weight")
		}
		sum.Add(sum, state.Weight.r)
	}
	diff := new(big.Rat).Sub(sum, big.NewRat(1, 1))
	diff.Abs(diff)
	if diff.Cmp(weightTolerance) > 0 {
		return fmt.Errorf("liquidity: weighted pool weights sum to %s, want 1 (+/- %s)", sum.FloatString(12), weightTolerance.FloatString(12))
	}
	return nil
}
