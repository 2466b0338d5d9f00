package auction

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gnosis/oba-services/internal/liquidity"
	"github.com/gnosis/oba-services/internal/orderbook"
	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/bigmath"
)

// defaultDecimals is used for every token in absence of a resolver.
const defaultDecimals = 18

// PreparedModel holds the four aligned artifacts the translator produces
// from a liquidity set: the wire model itself, plus the index needed to map
// a solver's response back onto the original objects.
type PreparedModel struct {
	Model      BatchAuctionModel
	Tokens     map[string]address.Address
	LimitOrders map[string]*liquidity.LimitOrder
	AmmOrders   map[string]*liquidity.ConstantProductOrder
}

// tokenToString renders a token address as the solver's stable string id:
// "t" followed by lowercase hex, without a 0x prefix. The leading letter is
// required by the wire format (ids must not look like bare numbers).
func tokenToString(t address.Address) string {
	return "t" + strings.TrimPrefix(t.String(), "0x")
}

// amountToWireString formats a UInt256 as an exact decimal string via
// shopspring/decimal, matching the teacher's use of decimal.Decimal at
// other amount/price wire boundaries.
func amountToWireString(amount bigmath.UInt256) string {
	d, err := decimal.NewFromString(amount.String())
	if err != nil {
		// amount.String() is always a valid base-10 integer produced by
		// bigmath, so a parse failure here is a programming error.
		panic(fmt.Sprintf("auction: format amount as decimal: %v", err))
	}
	return d.String()
}

// Prepare splits liquidity into limit orders and constant-product AMMs (the
// only two liquidity kinds the wire protocol represents — weighted pools
// are projected as UniswapModel-shaped entries would be a modeling error,
// so weighted liquidity is not yet supported by this translator; see
// DESIGN.md), collects every referenced token, and builds the
// BatchAuctionModel plus the string-id index.
func Prepare(items []liquidity.Liquidity) (*PreparedModel, error) {
	var limitOrders []*liquidity.LimitOrder
	var ammOrders []*liquidity.ConstantProductOrder
	for _, item := range items {
		switch v := item.(type) {
		case *liquidity.LimitOrder:
			limitOrders = append(limitOrders, v)
		case *liquidity.ConstantProductOrder:
			ammOrders = append(ammOrders, v)
		default:
			return nil, fmt.Errorf("auction: unsupported liquidity kind %T", item)
		}
	}

	tokens := collectTokens(limitOrders, ammOrders)

	indexedOrders := make(map[string]*liquidity.LimitOrder, len(limitOrders))
	for i, o := range limitOrders {
		indexedOrders[fmt.Sprintf("%d", i)] = o
	}
	indexedAmms := make(map[string]*liquidity.ConstantProductOrder, len(ammOrders))
	for i, a := range ammOrders {
		indexedAmms[fmt.Sprintf("%d", i)] = a
	}

	model := BatchAuctionModel{
		Tokens:     tokenModels(tokens),
		Orders:     orderModels(indexedOrders),
		Uniswaps:   ammModels(indexedAmms),
		DefaultFee: 0.0,
	}

	return &PreparedModel{
		Model:       model,
		Tokens:      tokens,
		LimitOrders: indexedOrders,
		AmmOrders:   indexedAmms,
	}, nil
}

func collectTokens(orders []*liquidity.LimitOrder, amms []*liquidity.ConstantProductOrder) map[string]address.Address {
	seen := make(map[address.Address]struct{})
	for _, o := range orders {
		seen[o.SellToken] = struct{}{}
		seen[o.BuyToken] = struct{}{}
	}
	for _, a := range amms {
		seen[a.Tokens.First()] = struct{}{}
		seen[a.Tokens.Second()] = struct{}{}
	}

	out := make(map[string]address.Address, len(seen))
	for t := range seen {
		out[tokenToString(t)] = t
	}
	return out
}

func tokenModels(tokens map[string]address.Address) map[string]TokenModel {
	out := make(map[string]TokenModel, len(tokens))
	for id := range tokens {
		out[id] = TokenModel{Decimals: defaultDecimals}
	}
	return out
}

func orderModels(orders map[string]*liquidity.LimitOrder) map[string]OrderModel {
	out := make(map[string]OrderModel, len(orders))
	for id, o := range orders {
		out[id] = OrderModel{
			SellToken:        tokenToString(o.SellToken),
			BuyToken:         tokenToString(o.BuyToken),
			SellAmount:       amountToWireString(o.SellAmount),
			BuyAmount:        amountToWireString(o.BuyAmount),
			AllowPartialFill: o.PartiallyFillable,
			IsSellOrder:      o.Kind == orderbook.KindSell,
		}
	}
	return out
}

func ammModels(amms map[string]*liquidity.ConstantProductOrder) map[string]UniswapModel {
	out := make(map[string]UniswapModel, len(amms))
	for id, a := range amms {
		out[id] = UniswapModel{
			Token1:    tokenToString(a.Tokens.First()),
			Token2:    tokenToString(a.Tokens.Second()),
			Balance1:  amountToWireString(a.Reserve0),
			Balance2:  amountToWireString(a.Reserve1),
			Fee:       a.Fee.Float64(),
			Mandatory: false,
		}
	}
	return out
}
