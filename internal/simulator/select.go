package simulator

import (
	"errors"
	"math/big"

	"github.com/gnosis/oba-services/internal/settlement"
)

// ScoreFunc ranks a settlement candidate; higher is better.
type ScoreFunc func(*settlement.Settlement) *big.Rat

// DefaultScore scores a settlement by its total limit-order trade volume at
// clearing prices: sum over every filled order of execSellAmount priced in
// the clearing price of its sell token. A fill whose sell token has no
// quoted clearing price contributes zero.
func DefaultScore(s *settlement.Settlement) *big.Rat {
	total := new(big.Rat)
	for _, fill := range s.LimitOrderFills {
		price, ok := s.ClearingPrices[fill.Order.SellToken]
		if !ok {
			continue
		}
		amount, ok := new(big.Int).SetString(fill.ExecSellAmount.String(), 10)
		if !ok {
			continue
		}
		volume := new(big.Rat).Mul(new(big.Rat).SetInt(amount), price)
		total.Add(total, volume)
	}
	return total
}

// Select picks, among the candidates whose parallel error entry is nil, the
// one score ranks highest. score defaults to DefaultScore when nil. Returns
// an error if no candidate simulated successfully.
func Select(candidates []*settlement.Settlement, simErrs []error, score ScoreFunc) (*settlement.Settlement, error) {
	if score == nil {
		score = DefaultScore
	}

	var best *settlement.Settlement
	var bestScore *big.Rat
	for i, candidate := range candidates {
		if simErrs[i] != nil {
			continue
		}
		s := score(candidate)
		if best == nil || s.Cmp(bestScore) > 0 {
			best, bestScore = candidate, s
		}
	}
	if best == nil {
		return nil, errors.New("simulator: no candidate settlement simulated successfully")
	}
	return best, nil
}
