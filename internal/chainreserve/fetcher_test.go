package chainreserve

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"

	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/tokenpair"
)

func addr(b byte) address.Address {
	var a address.Address
	a[19] = b
	return a
}

type fakeCaller struct {
	responses map[string][]byte
}

func (f fakeCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	selector := string(call.Data[:4])
	return f.responses[selector], nil
}

func TestFactoryLocatorThenFetch(t *testing.T) {
	pairAddr := addr(42)
	packedPair, err := getPairMethod.Outputs.Pack(pairAddr.Common())
	if err != nil {
		t.Fatalf("pack getPair result: %v", err)
	}
	packedReserves, err := getReservesMethod.Outputs.Pack(big.NewInt(1000), big.NewInt(2000), uint32(0))
	if err != nil {
		t.Fatalf("pack getReserves result: %v", err)
	}

	caller := fakeCaller{responses: map[string][]byte{
		string(getPairMethod.ID):      packedPair,
		string(getReservesMethod.ID): packedReserves,
	}}

	locate := FactoryLocator(caller, addr(1))
	fetcher := New(caller, locate)

	pair, err := tokenpair.New(addr(2), addr(3))
	if err != nil {
		t.Fatalf("tokenpair.New: %v", err)
	}

	order, err := fetcher.Fetch(context.Background(), pair)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if order.Reserve0.String() != "1000" || order.Reserve1.String() != "2000" {
		t.Fatalf("reserves = %s/%s, want 1000/2000", order.Reserve0, order.Reserve1)
	}
	if order.Fee.Num != defaultFeeNum || order.Fee.Denom != defaultFeeDenom {
		t.Fatalf("fee = %d/%d, want %d/%d", order.Fee.Num, order.Fee.Denom, defaultFeeNum, defaultFeeDenom)
	}
}

func TestFactoryLocatorRejectsZeroAddress(t *testing.T) {
	packedPair, _ := getPairMethod.Outputs.Pack(addr(0).Common())
	caller := fakeCaller{responses: map[string][]byte{string(getPairMethod.ID): packedPair}}

	locate := FactoryLocator(caller, addr(1))
	pair, _ := tokenpair.New(addr(2), addr(3))

	if _, err := locate(context.Background(), pair); err == nil {
		t.Fatal("expected error for undeployed pair")
	}
}
