// Package cpamm caches constant-product pool reserves, supplementing the
// event-sourced weighted-pool registry (package poolregistry) for the other
// AMM family the auction translator consumes. Constant-product pair
// addresses are deterministic (CREATE2), so unlike weighted pools there is
// no registration event to replay — a bounded-TTL read-through cache over a
// collaborator-provided reserve fetch is sufficient, mirroring the
// teacher's mutex-guarded, directory-backed Store in shape (here: an
// in-memory map instead of files, since reserves are cheap to re-fetch and
// do not need crash persistence).
package cpamm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gnosis/oba-services/internal/liquidity"
	"github.com/gnosis/oba-services/pkg/tokenpair"
)

// ReserveFetcher fetches current reserves for a token pair's constant
// product pool from the chain. Implementations live outside this package
// (the consumed blockchain call transport).
type ReserveFetcher func(ctx context.Context, pair tokenpair.Pair) (*liquidity.ConstantProductOrder, error)

type cacheEntry struct {
	order     *liquidity.ConstantProductOrder
	fetchedAt time.Time
}

// Cache is a read-through, bounded-TTL cache of constant-product pool
// snapshots keyed by token pair.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	fetch   ReserveFetcher
	entries map[tokenpair.Pair]cacheEntry
}

// New constructs a Cache that re-fetches reserves via fetch whenever a
// cached entry is older than ttl.
func New(ttl time.Duration, fetch ReserveFetcher) *Cache {
	return &Cache{
		ttl:     ttl,
		fetch:   fetch,
		entries: make(map[tokenpair.Pair]cacheEntry),
	}
}

// Get returns the constant-product snapshot for pair, fetching fresh
// reserves if the cached entry is absent or stale.
func (c *Cache) Get(ctx context.Context, pair tokenpair.Pair) (*liquidity.ConstantProductOrder, error) {
	c.mu.Lock()
	entry, ok := c.entries[pair]
	c.mu.Unlock()

	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.order, nil
	}

	order, err := c.fetch(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("cpamm: fetch reserves for pair: %w", err)
	}

	c.mu.Lock()
	c.entries[pair] = cacheEntry{order: order, fetchedAt: time.Now()}
	c.mu.Unlock()

	return order, nil
}

// Invalidate drops any cached entry for pair, forcing the next Get to
// re-fetch.
func (c *Cache) Invalidate(pair tokenpair.Pair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, pair)
}
