// Package chainreserve implements cpamm.ReserveFetcher against a live node,
// calling getReserves() on the constant-product pair contract for a token
// pair the same way internal/chaindecode decodes Balancer vault logs: a
// thin go-ethereum/accounts/abi adapter grounded on well-known, public
// contract interfaces: a Uniswap V2-style factory and pair, one of the
// baseline liquidity sources the original solver also targets alongside
// Balancer weighted pools.
package chainreserve

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	gethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/gnosis/oba-services/internal/liquidity"
	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/bigmath"
	"github.com/gnosis/oba-services/pkg/tokenpair"
)

// defaultFeeNum/defaultFeeDenom is the 0.3% constant-product swap fee common
// to the Uniswap V2 family of pair contracts; the fee itself is not on-chain
// discoverable from getReserves() and pair contracts that charge something
// else are out of scope here.
const (
	defaultFeeNum   = 3
	defaultFeeDenom = 1000
)

var getReservesMethod = mustGetReservesMethod()

func mustGetReservesMethod() abi.Method {
	reserve0, _ := abi.NewType("uint112", "", nil)
	reserve1, _ := abi.NewType("uint112", "", nil)
	blockTimestampLast, _ := abi.NewType("uint32", "", nil)
	return abi.NewMethod("getReserves", "getReserves", abi.Function, "view", false, false,
		nil,
		abi.Arguments{
			{Name: "reserve0", Type: reserve0},
			{Name: "reserve1", Type: reserve1},
			{Name: "blockTimestampLast", Type: blockTimestampLast},
		},
	)
}

// PairLocator maps a token pair to the address of its constant-product pair
// contract.
type PairLocator func(ctx context.Context, pair tokenpair.Pair) (address.Address, error)

// Caller performs the eth_call RPC, satisfied by *ethclient.Client.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var getPairMethod = mustGetPairMethod()

func mustGetPairMethod() abi.Method {
	tokenA, _ := abi.NewType("address", "", nil)
	tokenB, _ := abi.NewType("address", "", nil)
	pairType, _ := abi.NewType("address", "", nil)
	return abi.NewMethod("getPair", "getPair", abi.Function, "view", false, false,
		abi.Arguments{{Name: "tokenA", Type: tokenA}, {Name: "tokenB", Type: tokenB}},
		abi.Arguments{{Name: "pair", Type: pairType}},
	)
}

// FactoryLocator builds a PairLocator that asks a Uniswap V2-style factory
// contract's getPair(tokenA, tokenB) for the pair address, rather than
// recomputing it from a CREATE2 init code hash the factory's deployer never
// publishes on-chain.
func FactoryLocator(caller Caller, factory address.Address) PairLocator {
	return func(ctx context.Context, pair tokenpair.Pair) (address.Address, error) {
		packed, err := getPairMethod.Inputs.Pack(pair.First().Common(), pair.Second().Common())
		if err != nil {
			return address.Address{}, fmt.Errorf("chainreserve: pack getPair call: %w", err)
		}
		data := append(append([]byte{}, getPairMethod.ID...), packed...)

		out, err := caller.CallContract(ctx, ethereum.CallMsg{
			To:   addrPtr(factory.Common()),
			Data: data,
		}, nil)
		if err != nil {
			return address.Address{}, fmt.Errorf("chainreserve: call getPair: %w", err)
		}

		values, err := getPairMethod.Outputs.Unpack(out)
		if err != nil {
			return address.Address{}, fmt.Errorf("chainreserve: unpack getPair result: %w", err)
		}
		pairAddr, ok := values[0].(gethcommon.Address)
		if !ok {
			return address.Address{}, fmt.Errorf("chainreserve: unexpected getPair result type %T", values[0])
		}
		if pairAddr == (gethcommon.Address{}) {
			return address.Address{}, fmt.Errorf("chainreserve: no pair deployed for %s/%s", pair.First(), pair.Second())
		}
		return address.FromCommon(pairAddr), nil
	}
}

// Fetcher adapts a live node into a cpamm.ReserveFetcher.
type Fetcher struct {
	caller Caller
	locate PairLocator
	feeNum int32
	feeDen int32
}

// New builds a Fetcher that locates each pair's contract via locate and
// reads its reserves through caller, with the 0.3% Uniswap V2 default fee.
func New(caller Caller, locate PairLocator) *Fetcher {
	return &Fetcher{caller: caller, locate: locate, feeNum: defaultFeeNum, feeDen: defaultFeeDenom}
}

// Fetch implements cpamm.ReserveFetcher.
func (f *Fetcher) Fetch(ctx context.Context, pair tokenpair.Pair) (*liquidity.ConstantProductOrder, error) {
	pairAddr, err := f.locate(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("chainreserve: locate pair contract: %w", err)
	}

	packed, err := getReservesMethod.Inputs.Pack()
	if err != nil {
		return nil, fmt.Errorf("chainreserve: pack getReserves call: %w", err)
	}
	data := append(append([]byte{}, getReservesMethod.ID...), packed...)

	out, err := f.caller.CallContract(ctx, ethereum.CallMsg{
		To:   addrPtr(pairAddr.Common()),
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("chainreserve: call getReserves: %w", err)
	}

	values, err := getReservesMethod.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("chainreserve: unpack getReserves result: %w", err)
	}
	reserve0, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chainreserve: unexpected reserve0 type %T", values[0])
	}
	reserve1, ok := values[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chainreserve: unexpected reserve1 type %T", values[1])
	}

	r0, err := bigmath.ParseUInt256(reserve0.String())
	if err != nil {
		return nil, fmt.Errorf("chainreserve: reserve0 out of range: %w", err)
	}
	r1, err := bigmath.ParseUInt256(reserve1.String())
	if err != nil {
		return nil, fmt.Errorf("chainreserve: reserve1 out of range: %w", err)
	}

	return &liquidity.ConstantProductOrder{
		Tokens:   pair,
		Reserve0: r0,
		Reserve1: r1,
		Fee:      liquidity.Rational32{Num: f.feeNum, Denom: f.feeDen},
	}, nil
}

func addrPtr(a gethcommon.Address) *gethcommon.Address {
	return &a
}
