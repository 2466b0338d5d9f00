// Package bigmath holds the two distinct integer types used at the wire and
// reserve-arithmetic boundaries: UInt256, a bounded 256-bit unsigned integer,
// and BigUInt, an unbounded non-negative integer. The two are never
// interchanged implicitly — only the wire layer converts between them.
package bigmath

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// UInt256 is a bounded unsigned integer in [0, 2^256-1], backed by
// github.com/holiman/uint256.
type UInt256 struct {
	v uint256.Int
}

// ZeroUInt256 is the additive identity.
func ZeroUInt256() UInt256 { return UInt256{} }

// NewUInt256FromUint64 constructs a UInt256 from a uint64.
func NewUInt256FromUint64(v uint64) UInt256 {
	return UInt256{v: *uint256.NewInt(v)}
}

// ParseUInt256 parses a base-10 decimal string.
func ParseUInt256(s string) (UInt256, error) {
	i, err := uint256.FromDecimal(s)
	if err != nil {
		return UInt256{}, fmt.Errorf("parse uint256 %q: %w", s, err)
	}
	return UInt256{v: *i}, nil
}

// String renders the value as a base-10 decimal string.
func (u UInt256) String() string {
	return u.v.Dec()
}

// IsZero reports whether u == 0.
func (u UInt256) IsZero() bool {
	return u.v.IsZero()
}

// Cmp compares u to other: -1, 0, or 1.
func (u UInt256) Cmp(other UInt256) int {
	return u.v.Cmp(&other.v)
}

// Add returns u + other, wrapping on overflow (matches uint256's modular
// arithmetic; callers computing reserve products must widen first, see Mul).
func (u UInt256) Add(other UInt256) UInt256 {
	var out uint256.Int
	out.Add(&u.v, &other.v)
	return UInt256{v: out}
}

// Mul returns u * other as a UInt256, wrapping on overflow. For reserve
// products that may exceed 256 bits even though both factors fit in 256
// bits, use MulToBigUInt instead.
func (u UInt256) Mul(other UInt256) UInt256 {
	var out uint256.Int
	out.Mul(&u.v, &other.v)
	return UInt256{v: out}
}

// MulToBigUInt widens u and other to arbitrary precision before multiplying,
// matching the constant-product invariant's reserve0*reserve1 computation
// (128-bit reserves whose product can exceed 256 bits after widening is not
// actually possible for true 256-bit factors, but this keeps the computation
// exact rather than silently wrapping — see ConstantProduct in the
// settlement package).
func (u UInt256) MulToBigUInt(other UInt256) BigUInt {
	a := u.v.ToBig()
	b := other.v.ToBig()
	out := new(big.Int).Mul(a, b)
	return BigUInt{v: out}
}

// ToBigUInt widens to an unbounded BigUInt.
func (u UInt256) ToBigUInt() BigUInt {
	return BigUInt{v: u.v.ToBig()}
}

// Big returns the value as a math/big.Int, for callers (ABI encoding,
// decimal formatting) that need the standard library's representation.
func (u UInt256) Big() *big.Int {
	return u.v.ToBig()
}

// BigUInt is an unbounded non-negative integer, backed by math/big.Int.
type BigUInt struct {
	v *big.Int
}

// ZeroBigUInt is the additive identity.
func ZeroBigUInt() BigUInt {
	return BigUInt{v: new(big.Int)}
}

// ParseBigUInt parses a base-10 decimal string; negative values are rejected.
func ParseBigUInt(s string) (BigUInt, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return BigUInt{}, fmt.Errorf("parse biguint %q: invalid decimal", s)
	}
	if v.Sign() < 0 {
		return BigUInt{}, fmt.Errorf("parse biguint %q: negative value", s)
	}
	return BigUInt{v: v}, nil
}

// String renders the value as a base-10 decimal string.
func (b BigUInt) String() string {
	if b.v == nil {
		return "0"
	}
	return b.v.String()
}

// IsZero reports whether b == 0.
func (b BigUInt) IsZero() bool {
	return b.v == nil || b.v.Sign() == 0
}

// Cmp compares b to other: -1, 0, or 1.
func (b BigUInt) Cmp(other BigUInt) int {
	bv, ov := b.v, other.v
	if bv == nil {
		bv = new(big.Int)
	}
	if ov == nil {
		ov = new(big.Int)
	}
	return bv.Cmp(ov)
}

// Add returns b + other.
func (b BigUInt) Add(other BigUInt) BigUInt {
	bv, ov := b.v, other.v
	if bv == nil {
		bv = new(big.Int)
	}
	if ov == nil {
		ov = new(big.Int)
	}
	return BigUInt{v: new(big.Int).Add(bv, ov)}
}

// Sub returns b - other; panics if the result would be negative, since
// BigUInt is a non-negative type (callers in the settlement/simulation paths
// must check ordering before subtracting, e.g. via Cmp).
func (b BigUInt) Sub(other BigUInt) BigUInt {
	bv, ov := b.v, other.v
	if bv == nil {
		bv = new(big.Int)
	}
	if ov == nil {
		ov = new(big.Int)
	}
	out := new(big.Int).Sub(bv, ov)
	if out.Sign() < 0 {
		panic(fmt.Sprintf("bigmath: Sub underflow: %s - %s", b.String(), other.String()))
	}
	return BigUInt{v: out}
}
