// Package tokenpair defines the unordered, canonicalized pair of distinct
// token addresses shared by the liquidity registry and the auction
// translator.
package tokenpair

import (
	"errors"

	"github.com/gnosis/oba-services/pkg/address"
)

// ErrSameToken is returned when both addresses in a pair are identical.
var ErrSameToken = errors.New("tokenpair: both tokens are identical")

// Pair is an unordered pair of distinct token addresses, stored in canonical
// (ascending byte-order) order so equality ignores submission order.
type Pair struct {
	first, second address.Address
}

// New builds a canonical Pair from two addresses. Fails if a == b.
func New(a, b address.Address) (Pair, error) {
	if a == b {
		return Pair{}, ErrSameToken
	}
	if a.Less(b) {
		return Pair{first: a, second: b}, nil
	}
	return Pair{first: b, second: a}, nil
}

// First returns the lexicographically smaller token.
func (p Pair) First() address.Address { return p.first }

// Second returns the lexicographically larger token.
func (p Pair) Second() address.Address { return p.second }

// Contains reports whether t is one of the pair's two tokens.
func (p Pair) Contains(t address.Address) bool {
	return p.first == t || p.second == t
}

// Other returns the token in the pair other than t. Panics if t is not a
// member of the pair — callers must check Contains first when t's
// membership is not already guaranteed by construction.
func (p Pair) Other(t address.Address) address.Address {
	switch t {
	case p.first:
		return p.second
	case p.second:
		return p.first
	default:
		panic("tokenpair: Other called with a token not in the pair")
	}
}
