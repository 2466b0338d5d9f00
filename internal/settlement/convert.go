package settlement

import (
	"fmt"
	"math/big"

	"github.com/gnosis/oba-services/internal/auction"
	"github.com/gnosis/oba-services/internal/liquidity"
	"github.com/gnosis/oba-services/pkg/bigmath"
)

// InconsistentSolverResponse is returned when a solver's response references
// an order, AMM, or token id that was not part of the prepared auction. It
// is fatal for the candidate settlement being built.
type InconsistentSolverResponse struct {
	Kind string // "order", "uniswap", or "token"
	ID   string
}

func (e *InconsistentSolverResponse) Error() string {
	return fmt.Sprintf("settlement: solver response references unknown %s id %q", e.Kind, e.ID)
}

// ConvertSettlement replays a solver's proposed executions through each
// referenced liquidity instance's SettlementHandling capability and attaches
// the quoted clearing prices, producing a candidate Settlement.
func ConvertSettlement(response *auction.SettledBatchAuctionModel, prepared *auction.PreparedModel) (*Settlement, error) {
	enc := NewEncoder()

	for id, executed := range response.Orders {
		order, ok := prepared.LimitOrders[id]
		if !ok {
			return nil, &InconsistentSolverResponse{Kind: "order", ID: id}
		}

		execSell, err := bigmath.ParseUInt256(executed.ExecSellAmount)
		if err != nil {
			return nil, fmt.Errorf("settlement: order %s exec_sell_amount: %w", id, err)
		}
		execBuy, err := bigmath.ParseUInt256(executed.ExecBuyAmount)
		if err != nil {
			return nil, fmt.Errorf("settlement: order %s exec_buy_amount: %w", id, err)
		}

		if err := order.Handling.Encode(order, execSell, execBuy, enc); err != nil {
			return nil, fmt.Errorf("settlement: encode order %s: %w", id, err)
		}
	}

	for id, executed := range response.Uniswaps {
		amm, ok := prepared.AmmOrders[id]
		if !ok {
			return nil, &InconsistentSolverResponse{Kind: "uniswap", ID: id}
		}

		execution, err := ammExecution(amm, executed)
		if err != nil {
			return nil, fmt.Errorf("settlement: uniswap %s: %w", id, err)
		}

		if err := amm.Handling.Encode(amm, execution, enc); err != nil {
			return nil, fmt.Errorf("settlement: encode uniswap %s: %w", id, err)
		}
	}

	for tokenID, priceStr := range response.Prices {
		token, ok := prepared.Tokens[tokenID]
		if !ok {
			return nil, &InconsistentSolverResponse{Kind: "token", ID: tokenID}
		}
		price, ok := new(big.Rat).SetString(priceStr)
		if !ok {
			return nil, fmt.Errorf("settlement: token %s price %q is not a valid rational", tokenID, priceStr)
		}
		enc.SetClearingPrice(token, price)
	}

	return enc.Build(), nil
}

// ammExecution translates a solver's signed balance updates into an
// AmmOrderExecution: a negative update means the pool paid that token out
// (it is the Output leg); a positive update means the pool received it (the
// Input leg). Exactly one of the two balances must be negative and the
// other non-negative, mirroring a genuine two-token swap.
func ammExecution(amm *liquidity.ConstantProductOrder, executed auction.ExecutedUniswapModel) (liquidity.AmmOrderExecution, error) {
	delta1, ok := new(big.Int).SetString(executed.BalanceUpdate1, 10)
	if !ok {
		return liquidity.AmmOrderExecution{}, fmt.Errorf("balance_update1 %q is not a valid integer", executed.BalanceUpdate1)
	}
	delta2, ok := new(big.Int).SetString(executed.BalanceUpdate2, 10)
	if !ok {
		return liquidity.AmmOrderExecution{}, fmt.Errorf("balance_update2 %q is not a valid integer", executed.BalanceUpdate2)
	}

	token1 := amm.Tokens.First()
	token2 := amm.Tokens.Second()

	switch {
	case delta1.Sign() < 0 && delta2.Sign() >= 0:
		out, err := bigmath.ParseUInt256(new(big.Int).Neg(delta1).String())
		if err != nil {
			return liquidity.AmmOrderExecution{}, err
		}
		in, err := bigmath.ParseUInt256(delta2.String())
		if err != nil {
			return liquidity.AmmOrderExecution{}, err
		}
		return liquidity.AmmOrderExecution{
			Input:  liquidity.TokenAmount{Token: token2, Amount: in},
			Output: liquidity.TokenAmount{Token: token1, Amount: out},
		}, nil
	case delta2.Sign() < 0 && delta1.Sign() >= 0:
		out, err := bigmath.ParseUInt256(new(big.Int).Neg(delta2).String())
		if err != nil {
			return liquidity.AmmOrderExecution{}, err
		}
		in, err := bigmath.ParseUInt256(delta1.String())
		if err != nil {
			return liquidity.AmmOrderExecution{}, err
		}
		return liquidity.AmmOrderExecution{
			Input:  liquidity.TokenAmount{Token: token1, Amount: in},
			Output: liquidity.TokenAmount{Token: token2, Amount: out},
		}, nil
	default:
		return liquidity.AmmOrderExecution{}, fmt.Errorf("balance updates (%s, %s) do not describe a single-direction swap", delta1, delta2)
	}
}
