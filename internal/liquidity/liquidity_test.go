package liquidity

import (
	"testing"

	"github.com/gnosis/oba-services/internal/orderbook"
	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/bigmath"
	"github.com/gnosis/oba-services/pkg/tokenpair"
)

func addr(b byte) address.Address {
	var a address.Address
	a[19] = b
	return a
}

func TestFullExecutionAmount(t *testing.T) {
	sellOrder := &LimitOrder{
		Kind:       orderbook.KindSell,
		SellAmount: bigmath.NewUInt256FromUint64(100),
		BuyAmount:  bigmath.NewUInt256FromUint64(90),
	}
	if got := sellOrder.FullExecutionAmount(); got.Cmp(bigmath.NewUInt256FromUint64(100)) != 0 {
		t.Fatalf("sell order FullExecutionAmount = %s, want 100", got.String())
	}

	buyOrder := &LimitOrder{
		Kind:       orderbook.KindBuy,
		SellAmount: bigmath.NewUInt256FromUint64(100),
		BuyAmount:  bigmath.NewUInt256FromUint64(90),
	}
	if got := buyOrder.FullExecutionAmount(); got.Cmp(bigmath.NewUInt256FromUint64(90)) != 0 {
		t.Fatalf("buy order FullExecutionAmount = %s, want 90", got.String())
	}
}

func TestConstantProductWidening(t *testing.T) {
	pair, _ := tokenpair.New(addr(1), addr(2))
	order := &ConstantProductOrder{
		Tokens:   pair,
		Reserve0: bigmath.NewUInt256FromUint64(1_000_000),
		Reserve1: bigmath.NewUInt256FromUint64(2_000_000),
		Fee:      Rational32{Num: 3, Denom: 1000},
	}
	got := order.ConstantProduct()
	want, _ := bigmath.ParseBigUInt("2000000000000")
	if got.Cmp(want) != 0 {
		t.Fatalf("ConstantProduct() = %s, want %s", got.String(), want.String())
	}
}

func TestValidateWeightsAcceptsExactSplit(t *testing.T) {
	w1, _ := NewBigRational("1", "2")
	w2, _ := NewBigRational("1", "2")
	order := &WeightedProductOrder{
		Reserves: map[address.Address]WeightedTokenState{
			addr(1): {Balance: bigmath.NewUInt256FromUint64(1), Weight: w1},
			addr(2): {Balance: bigmath.NewUInt256FromUint64(1), Weight: w2},
		},
	}
	if err := order.ValidateWeights(); err != nil {
		t.Fatalf("ValidateWeights: %v", err)
	}
}

func TestValidateWeightsRejectsBadSum(t *testing.T) {
	w1, _ := NewBigRational("1", "2")
	w2, _ := NewBigRational("1", "4")
	order := &WeightedProductOrder{
		Reserves: map[address.Address]WeightedTokenState{
			addr(1): {Balance: bigmath.NewUInt256FromUint64(1), Weight: w1},
			addr(2): {Balance: bigmath.NewUInt256FromUint64(1), Weight: w2},
		},
	}
	if err := order.ValidateWeights(); err == nil {
		t.Fatal("expected error for weights summing to 3/4")
	}
}

func TestValidateWeightsRejectsSingleToken(t *testing.T) {
	w1, _ := NewBigRational("1", "1")
	order := &WeightedProductOrder{
		Reserves: map[address.Address]WeightedTokenState{
			addr(1): {Balance: bigmath.NewUInt256FromUint64(1), Weight: w1},
		},
	}
	if err := order.ValidateWeights(); err == nil {
		t.Fatal("expected error for single-token pool")
	}
}
