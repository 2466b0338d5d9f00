package poolregistry

import (
	"fmt"

	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/tokenpair"
)

// Event is the closed set of events the registry consumes: either half of a
// pool's registration.
type Event interface {
	poolID() PoolID
}

// PoolRegistered wraps a PoolRegisteredEvent for insertion.
type PoolRegistered struct{ Event PoolRegisteredEvent }

func (e PoolRegistered) poolID() PoolID { return e.Event.PoolID }

// TokensRegistered wraps a TokensRegisteredEvent for insertion.
type TokensRegistered struct{ Event TokensRegisteredEvent }

func (e TokensRegistered) poolID() PoolID { return e.Event.PoolID }

// IndexedEvent pairs an Event with its position in the chain's event log.
type IndexedEvent struct {
	Index EventIndex
	Event Event
}

// Registry holds the materialized and pending pool state. It is not itself
// concurrency-safe — callers needing concurrent access should use Driver,
// which wraps a Registry behind a mutex the way the event handler that tails
// the chain's log is expected to.
type Registry struct {
	poolsByToken map[address.Address]map[PoolID]struct{}
	pools        map[PoolID]RegisteredPool
	pending      map[PoolID]partialPool
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		poolsByToken: make(map[address.Address]map[PoolID]struct{}),
		pools:        make(map[PoolID]RegisteredPool),
		pending:      make(map[PoolID]partialPool),
	}
}

// PoolsContainingPair returns every fully materialized pool trading both
// tokens of pair, computed as a set intersection of each token's pool-id
// bucket.
func (r *Registry) PoolsContainingPair(pair tokenpair.Pair) []RegisteredPool {
	firstSet := r.poolsByToken[pair.First()]
	secondSet := r.poolsByToken[pair.Second()]
	if len(firstSet) == 0 || len(secondSet) == 0 {
		return nil
	}

	small, big := firstSet, secondSet
	if len(big) < len(small) {
		small, big = big, small
	}

	var out []RegisteredPool
	for id := range small {
		if _, ok := big[id]; !ok {
			continue
		}
		pool, ok := r.pools[id]
		if !ok {
			panic("poolregistry: pool id present in index but missing from pools map")
		}
		out = append(out, pool)
	}
	return out
}

// AppendEvents folds new tip events into pending pool state and attempts to
// upgrade any pending pool that now has both halves of its registration.
func (r *Registry) AppendEvents(events []IndexedEvent) error {
	return r.insertEvents(events)
}

// ReplaceEvents handles a reorg: it drops every pool and pending pool with
// BlockCreated >= fromBlock, then replays events onto what survives.
func (r *Registry) ReplaceEvents(fromBlock uint64, events []IndexedEvent) error {
	r.deletePools(fromBlock)
	return r.insertEvents(events)
}

// LastEventBlock returns the maximum BlockCreated across pending and
// materialized pools, or 0 if the registry is empty.
func (r *Registry) LastEventBlock() uint64 {
	var max uint64
	for _, p := range r.pending {
		if p.blockCreated > max {
			max = p.blockCreated
		}
	}
	for _, p := range r.pools {
		if p.BlockCreated > max {
			max = p.BlockCreated
		}
	}
	return max
}

func (r *Registry) insertEvents(events []IndexedEvent) error {
	for _, ie := range events {
		switch e := ie.Event.(type) {
		case PoolRegistered:
			r.insertPool(ie.Index, e.Event)
		case TokensRegistered:
			r.insertTokenData(ie.Index, e.Event)
		default:
			return fmt.Errorf("poolregistry: unknown event type %T", ie.Event)
		}
	}
	return r.tryUpgrade()
}

func (r *Registry) insertPool(index EventIndex, reg PoolRegisteredEvent) {
	p, ok := r.pending[reg.PoolID]
	if !ok {
		p = partialPool{blockCreated: index.BlockNumber}
	}
	p.poolRegistration = &reg
	r.pending[reg.PoolID] = p
}

func (r *Registry) insertTokenData(index EventIndex, reg TokensRegisteredEvent) {
	p, ok := r.pending[reg.PoolID]
	if !ok {
		p = partialPool{blockCreated: index.BlockNumber}
	}
	p.tokensRegistration = &reg
	r.pending[reg.PoolID] = p
}

// tryUpgrade materializes every pending pool that now has both halves of its
// registration. Ready pool ids are collected before mutating r.pending so
// iteration never observes the map it is deleting from mid-range.
func (r *Registry) tryUpgrade() error {
	var ready []PoolID
	for id, p := range r.pending {
		if p.ready() {
			ready = append(ready, id)
		}
	}

	for _, id := range ready {
		pool, err := r.pending[id].materialize()
		if err != nil {
			return err
		}
		r.pools[id] = pool
		delete(r.pending, id)
		for _, token := range pool.Tokens {
			set, ok := r.poolsByToken[token]
			if !ok {
				set = make(map[PoolID]struct{})
				r.poolsByToken[token] = set
			}
			set[id] = struct{}{}
		}
	}
	return nil
}

// deletePools drops every pool and pending pool with BlockCreated >=
// fromBlock, and re-intersects every token's pool-id bucket against the
// surviving set. Buckets may become empty; they are not removed.
func (r *Registry) deletePools(fromBlock uint64) {
	for id, p := range r.pools {
		if p.BlockCreated >= fromBlock {
			delete(r.pools, id)
		}
	}
	for id, p := range r.pending {
		if p.blockCreated >= fromBlock {
			delete(r.pending, id)
		}
	}

	for token, set := range r.poolsByToken {
		for id := range set {
			if _, ok := r.pools[id]; !ok {
				delete(set, id)
			}
		}
		r.poolsByToken[token] = set
	}
}
