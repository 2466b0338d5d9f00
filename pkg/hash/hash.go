// Package hash defines the 32-byte hash primitive shared by order struct
// hashes, domain separators, pool ids and app data.
package hash

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Hash is an opaque 32-byte identifier.
type Hash [32]byte

// Zero is the zero hash.
var Zero = Hash{}

// FromCommon converts a go-ethereum common.Hash.
func FromCommon(h common.Hash) Hash {
	return Hash(h)
}

// Common converts back to a go-ethereum common.Hash.
func (h Hash) Common() common.Hash {
	return common.Hash(h)
}

// Parse decodes a hex string, with or without a leading "0x", into a Hash.
func Parse(s string) (Hash, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("parse hash %q: %w", s, err)
	}
	if len(b) != 32 {
		return Hash{}, fmt.Errorf("parse hash %q: want 32 bytes, got %d", s, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// String renders the hash as lowercase hex with a 0x prefix.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte slice.
func (h Hash) Bytes() []byte {
	return h[:]
}
