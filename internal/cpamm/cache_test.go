package cpamm

import (
	"context"
	"testing"
	"time"

	"github.com/gnosis/oba-services/internal/liquidity"
	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/bigmath"
	"github.com/gnosis/oba-services/pkg/tokenpair"
)

func addr(b byte) address.Address {
	var a address.Address
	a[19] = b
	return a
}

func TestCacheServesWithinTTL(t *testing.T) {
	pair, _ := tokenpair.New(addr(1), addr(2))
	calls := 0
	cache := New(time.Hour, func(ctx context.Context, p tokenpair.Pair) (*liquidity.ConstantProductOrder, error) {
		calls++
		return &liquidity.ConstantProductOrder{Tokens: p, Reserve0: bigmath.NewUInt256FromUint64(1), Reserve1: bigmath.NewUInt256FromUint64(2)}, nil
	})

	if _, err := cache.Get(context.Background(), pair); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := cache.Get(context.Background(), pair); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1 (second Get should hit cache)", calls)
	}
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	pair, _ := tokenpair.New(addr(1), addr(2))
	calls := 0
	cache := New(time.Nanosecond, func(ctx context.Context, p tokenpair.Pair) (*liquidity.ConstantProductOrder, error) {
		calls++
		return &liquidity.ConstantProductOrder{Tokens: p, Reserve0: bigmath.NewUInt256FromUint64(1), Reserve1: bigmath.NewUInt256FromUint64(2)}, nil
	})

	if _, err := cache.Get(context.Background(), pair); err != nil {
		t.Fatalf("Get: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := cache.Get(context.Background(), pair); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if calls != 2 {
		t.Fatalf("fetch called %d times, want 2 (TTL should have expired)", calls)
	}
}

func TestCacheInvalidate(t *testing.T) {
	pair, _ := tokenpair.New(addr(1), addr(2))
	calls := 0
	cache := New(time.Hour, func(ctx context.Context, p tokenpair.Pair) (*liquidity.ConstantProductOrder, error) {
		calls++
		return &liquidity.ConstantProductOrder{Tokens: p, Reserve0: bigmath.NewUInt256FromUint64(1), Reserve1: bigmath.NewUInt256FromUint64(2)}, nil
	})

	if _, err := cache.Get(context.Background(), pair); err != nil {
		t.Fatalf("Get: %v", err)
	}
	cache.Invalidate(pair)
	if _, err := cache.Get(context.Background(), pair); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if calls != 2 {
		t.Fatalf("fetch called %d times, want 2 after invalidate", calls)
	}
}
