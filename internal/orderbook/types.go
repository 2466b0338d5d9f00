package orderbook

import (
	"encoding/hex"
	"fmt"

	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/bigmath"
	"github.com/gnosis/oba-services/pkg/hash"
)

// Owner is the address that signed an order.
type Owner = address.Address

// DomainSeparator binds order signatures to a specific chain and contract
// instance.
type DomainSeparator hash.Hash

// OrderKind distinguishes which side's amount is the order's limit.
type OrderKind uint8

const (
	// KindSell fixes SellAmount as the limit; BuyAmount is the minimum
	// acceptable output.
	KindSell OrderKind = iota
	// KindBuy fixes BuyAmount as the limit; SellAmount is the maximum
	// acceptable input.
	KindBuy
)

// OrderCreation is the user-signed order payload. Two OrderCreation values
// with identical fields (including Signature) are considered the same order
// by the book's duplicate check.
type OrderCreation struct {
	SellToken         address.Address
	BuyToken          address.Address
	SellAmount        bigmath.UInt256
	BuyAmount         bigmath.UInt256
	ValidTo           uint32
	Kind              OrderKind
	PartiallyFillable bool
	FeeAmount         bigmath.UInt256
	AppData           hash.Hash
	Signature         [65]byte
}

// OrderUid is a 56-byte identifier: 32-byte order struct hash, 20-byte
// owner, 4-byte big-endian valid_to.
type OrderUid [56]byte

// DeriveOrderUid builds an OrderUid from an order's struct hash and owner.
func DeriveOrderUid(order OrderCreation, owner Owner) OrderUid {
	var uid OrderUid
	h := StructHash(order)
	copy(uid[0:32], h[:])
	copy(uid[32:52], owner[:])
	uid[52] = byte(order.ValidTo >> 24)
	uid[53] = byte(order.ValidTo >> 16)
	uid[54] = byte(order.ValidTo >> 8)
	uid[55] = byte(order.ValidTo)
	return uid
}

// String renders the OrderUid as lowercase hex without a 0x prefix, per the
// wire representation.
func (u OrderUid) String() string {
	return hex.EncodeToString(u[:])
}

// ParseOrderUid decodes a 112-character hex string, with or without a 0x
// prefix, into an OrderUid.
func ParseOrderUid(s string) (OrderUid, error) {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return OrderUid{}, fmt.Errorf("parse order uid %q: %w", s, err)
	}
	if len(b) != 56 {
		return OrderUid{}, fmt.Errorf("parse order uid %q: want 56 bytes, got %d", s, len(b))
	}
	var uid OrderUid
	copy(uid[:], b)
	return uid, nil
}
