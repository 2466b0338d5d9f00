// Package address defines the 20-byte address primitive used throughout the
// order book, liquidity registry and auction model.
package address

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address is an opaque 20-byte identifier. It interoperates with
// go-ethereum's common.Address since signature recovery and event decoding
// are both built on go-ethereum primitives.
type Address [20]byte

// Zero is the zero address.
var Zero = Address{}

// FromCommon converts a go-ethereum common.Address.
func FromCommon(a common.Address) Address {
	return Address(a)
}

// Common converts back to a go-ethereum common.Address.
func (a Address) Common() common.Address {
	return common.Address(a)
}

// Parse decodes a hex string, with or without a leading "0x", into an
// Address. The string must decode to exactly 20 bytes.
func Parse(s string) (Address, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	if len(b) != 20 {
		return Address{}, fmt.Errorf("parse address %q: want 20 bytes, got %d", s, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// String renders the address as lowercase hex with a 0x prefix.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Less reports whether a sorts strictly before b in canonical (byte-wise)
// order. Used to canonicalize TokenPair.
func (a Address) Less(b Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Bytes returns the raw 20-byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}
