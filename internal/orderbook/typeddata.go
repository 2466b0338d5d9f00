package orderbook

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/gnosis/oba-services/pkg/hash"
)

// orderEIP712Types describes the "Order" struct for EIP-712 hashing. Field
// order is the struct-hash tuple (sellToken, buyToken, sellAmount,
// buyAmount, validTo, appData, feeAmount, kind, partiallyFillable), which
// differs from OrderCreation's field order.
var orderEIP712Types = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": {
		{Name: "sellToken", Type: "address"},
		{Name: "buyToken", Type: "address"},
		{Name: "sellAmount", Type: "uint256"},
		{Name: "buyAmount", Type: "uint256"},
		{Name: "validTo", Type: "uint32"},
		{Name: "appData", Type: "bytes32"},
		{Name: "feeAmount", Type: "uint256"},
		{Name: "kind", Type: "uint8"},
		{Name: "partiallyFillable", Type: "bool"},
	},
}

func orderMessage(order OrderCreation) apitypes.TypedDataMessage {
	return apitypes.TypedDataMessage{
		"sellToken":         order.SellToken.Common().Hex(),
		"buyToken":          order.BuyToken.Common().Hex(),
		"sellAmount":        order.SellAmount.String(),
		"buyAmount":         order.BuyAmount.String(),
		"validTo":           fmt.Sprintf("%d", order.ValidTo),
		"appData":           order.AppData.Common().Hex(),
		"feeAmount":         order.FeeAmount.String(),
		"kind":              fmt.Sprintf("%d", order.Kind),
		"partiallyFillable": order.PartiallyFillable,
	}
}

// StructHash returns the EIP-712 struct hash of order (hashStruct("Order",
// message)), independent of any domain separator. It is the first 32 bytes
// of the OrderUid.
func StructHash(order OrderCreation) hash.Hash {
	typedData := apitypes.TypedData{
		Types:       orderEIP712Types,
		PrimaryType: "Order",
		Message:     orderMessage(order),
	}
	h, err := typedData.HashStruct("Order", typedData.Message)
	if err != nil {
		// The message is built entirely from this package's own types, so a
		// hashing failure here indicates a programming error in
		// orderEIP712Types, not a runtime condition callers can act on.
		panic(fmt.Sprintf("orderbook: hash order struct: %v", err))
	}
	var out hash.Hash
	copy(out[:], h)
	return out
}

// signingHash returns keccak256(0x19 || 0x01 || domainSeparator ||
// structHash(order)), the digest that is both signed and recovered against.
func signingHash(order OrderCreation, domainSeparator DomainSeparator) common.Hash {
	structHash := StructHash(order)
	raw := make([]byte, 0, 2+32+32)
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator[:]...)
	raw = append(raw, structHash[:]...)
	return crypto.Keccak256Hash(raw)
}

// EIP712Recoverer recovers order signers via EIP-712 typed-data signature
// recovery. It implements Recoverer.
type EIP712Recoverer struct{}

// RecoverOwner recovers the address that produced order.Signature over the
// domain-separated struct hash.
func (EIP712Recoverer) RecoverOwner(order OrderCreation, domainSeparator DomainSeparator) (Owner, error) {
	digest := signingHash(order, domainSeparator)

	sig := make([]byte, 65)
	copy(sig, order.Signature[:])
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return Owner{}, fmt.Errorf("recover public key: %w", err)
	}
	return Owner(crypto.PubkeyToAddress(*pubKey)), nil
}

// SignOrder signs order with privateKey under domainSeparator, mirroring the
// teacher's SignTypedData but over this package's Order struct. Used by
// tests to construct validly signed fixtures.
func SignOrder(order OrderCreation, domainSeparator DomainSeparator, sign func(digest []byte) ([]byte, error)) ([65]byte, error) {
	digest := signingHash(order, domainSeparator)
	sig, err := sign(digest.Bytes())
	if err != nil {
		return [65]byte{}, fmt.Errorf("sign order: %w", err)
	}
	if len(sig) != 65 {
		return [65]byte{}, fmt.Errorf("sign order: expected 65-byte signature, got %d", len(sig))
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	var out [65]byte
	copy(out[:], sig)
	return out, nil
}
