// Package poolregistry reconstructs a consistent in-memory view of weighted
// (Balancer-style) pools from a stream of out-of-order, reorg-prone
// blockchain events. It is the event-sourced half of the liquidity model;
// see package cpamm for the constant-product side.
package poolregistry

import (
	"fmt"

	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/hash"
	"github.com/gnosis/oba-services/pkg/tokenpair"
)

// PoolID identifies a pool, independent of its on-chain address.
type PoolID = hash.Hash

// EventIndex totally orders events within and across blocks.
type EventIndex struct {
	BlockNumber uint64
	LogIndex    uint64
}

// Less reports whether e sorts strictly before other.
func (e EventIndex) Less(other EventIndex) bool {
	if e.BlockNumber != other.BlockNumber {
		return e.BlockNumber < other.BlockNumber
	}
	return e.LogIndex < other.LogIndex
}

// PoolSpecialization selects one of three optimized vault swap interfaces.
type PoolSpecialization uint8

const (
	General         PoolSpecialization = 0
	MinimalSwapInfo PoolSpecialization = 1
	TwoToken        PoolSpecialization = 2
)

// ParsePoolSpecialization validates a raw on-chain specialization tag.
func ParsePoolSpecialization(v uint8) (PoolSpecialization, error) {
	switch v {
	case 0, 1, 2:
		return PoolSpecialization(v), nil
	default:
		return 0, fmt.Errorf("poolregistry: invalid pool specialization value %d (> 2)", v)
	}
}

// PoolRegisteredEvent is emitted when a pool registers with the vault.
type PoolRegisteredEvent struct {
	PoolID         PoolID
	PoolAddress    address.Address
	Specialization PoolSpecialization
}

// TokensRegisteredEvent is emitted, in the same transaction as
// PoolRegisteredEvent, listing the pool's constituent tokens.
type TokensRegisteredEvent struct {
	PoolID PoolID
	Tokens []address.Address
}

// RegisteredPool is a fully materialized pool: both its registration and
// token events have arrived.
type RegisteredPool struct {
	PoolID         PoolID
	PoolAddress    address.Address
	Specialization PoolSpecialization
	Tokens         []address.Address
	BlockCreated   uint64
}

// containsPair reports whether p's tokens include both sides of pair.
func (p RegisteredPool) containsPair(pair tokenpair.Pair) bool {
	var hasFirst, hasSecond bool
	for _, t := range p.Tokens {
		if t == pair.First() {
			hasFirst = true
		}
		if t == pair.Second() {
			hasSecond = true
		}
	}
	return hasFirst && hasSecond
}

// partialPool accumulates the two halves of a pool's registration.
// BlockCreated is fixed at first insertion and never updated thereafter,
// even if a later event for the same pool arrives at a different block.
type partialPool struct {
	poolRegistration  *PoolRegisteredEvent
	tokensRegistration *TokensRegisteredEvent
	blockCreated       uint64
}

func (p partialPool) ready() bool {
	return p.poolRegistration != nil && p.tokensRegistration != nil
}

func (p partialPool) materialize() (RegisteredPool, error) {
	if !p.ready() {
		return RegisteredPool{}, fmt.Errorf("poolregistry: pool and token registration events must be emitted together")
	}
	return RegisteredPool{
		PoolID:         p.poolRegistration.PoolID,
		PoolAddress:    p.poolRegistration.PoolAddress,
		Specialization: p.poolRegistration.Specialization,
		Tokens:         p.tokensRegistration.Tokens,
		BlockCreated:   p.blockCreated,
	}, nil
}
