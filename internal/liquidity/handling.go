package liquidity

import "github.com/gnosis/oba-services/pkg/bigmath"

// DefaultLimitOrderHandling is the production LimitOrderSettlementHandling:
// it has no on-chain interaction of its own, it just records the fill into
// the encoder, mirroring liquidity.rs's LimitOrderSettlementHandler.
type DefaultLimitOrderHandling struct{}

// Encode implements LimitOrderSettlementHandling.
func (DefaultLimitOrderHandling) Encode(order *LimitOrder, execSellAmount, execBuyAmount bigmath.UInt256, enc SettlementEncoder) error {
	return enc.AddLimitOrderExecution(order, execSellAmount, execBuyAmount)
}

// DefaultAmmHandling is the production AmmSettlementHandling for
// constant-product pools: records the execution into the encoder. Turning
// the recorded execution into a router swap call is the settlement-call
// builder's job, not this handling capability's.
type DefaultAmmHandling struct{}

// Encode implements AmmSettlementHandling.
func (DefaultAmmHandling) Encode(order *ConstantProductOrder, execution AmmOrderExecution, enc SettlementEncoder) error {
	return enc.AddAmmExecution(order, execution)
}
