package orderapi

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gnosis/oba-services/internal/orderbook"
	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/bigmath"
	"github.com/gnosis/oba-services/pkg/hash"
)

// OrderWire is the full wire representation of an admitted order, served by
// GET /api/v1/orders so a remote reader (internal/orderbookclient) can
// reconstruct an orderbook.Order without access to the book's process.
type OrderWire struct {
	UID          string `json:"uid"`
	Owner        string `json:"owner"`
	CreationDate string `json:"creationDate"`
	orderCreationWire
}

// EncodeOrder renders an admitted order in its wire representation.
func EncodeOrder(o orderbook.Order) OrderWire {
	return OrderWire{
		UID:          o.UID.String(),
		Owner:        o.Owner.String(),
		CreationDate: o.CreationDate.Format(time.RFC3339),
		orderCreationWire: orderCreationWire{
			SellToken:         o.Creation.SellToken.String(),
			BuyToken:          o.Creation.BuyToken.String(),
			SellAmount:        o.Creation.SellAmount.String(),
			BuyAmount:         o.Creation.BuyAmount.String(),
			ValidTo:           o.Creation.ValidTo,
			Kind:              kindString(o.Creation.Kind),
			PartiallyFillable: o.Creation.PartiallyFillable,
			FeeAmount:         o.Creation.FeeAmount.String(),
			AppData:           o.Creation.AppData.String(),
			Signature:         "0x" + hex.EncodeToString(o.Creation.Signature[:]),
		},
	}
}

// DecodeOrder parses a wire order back into its domain representation. It
// does not re-verify the signature; callers that need that guarantee should
// route through orderbook.Book.Add instead.
func DecodeOrder(w OrderWire) (orderbook.Order, error) {
	creation, err := parseOrderCreation(w.orderCreationWire)
	if err != nil {
		return orderbook.Order{}, err
	}
	owner, err := address.Parse(w.Owner)
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("owner: %w", err)
	}
	uid, err := orderbook.ParseOrderUid(w.UID)
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("uid: %w", err)
	}
	creationDate, err := time.Parse(time.RFC3339, w.CreationDate)
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("creationDate: %w", err)
	}
	return orderbook.Order{
		Creation:     creation,
		CreationDate: creationDate,
		Owner:        owner,
		UID:          uid,
	}, nil
}

func kindString(k orderbook.OrderKind) string {
	if k == orderbook.KindBuy {
		return "buy"
	}
	return "sell"
}

func parseOrderCreation(w orderCreationWire) (orderbook.OrderCreation, error) {
	sellToken, err := address.Parse(w.SellToken)
	if err != nil {
		return orderbook.OrderCreation{}, fmt.Errorf("sellToken: %w", err)
	}
	buyToken, err := address.Parse(w.BuyToken)
	if err != nil {
		return orderbook.OrderCreation{}, fmt.Errorf("buyToken: %w", err)
	}
	sellAmount, err := bigmath.ParseUInt256(w.SellAmount)
	if err != nil {
		return orderbook.OrderCreation{}, fmt.Errorf("sellAmount: %w", err)
	}
	buyAmount, err := bigmath.ParseUInt256(w.BuyAmount)
	if err != nil {
		return orderbook.OrderCreation{}, fmt.Errorf("buyAmount: %w", err)
	}
	feeAmount, err := bigmath.ParseUInt256(w.FeeAmount)
	if err != nil {
		return orderbook.OrderCreation{}, fmt.Errorf("feeAmount: %w", err)
	}

	var appData hash.Hash
	if w.AppData != "" {
		appData, err = hash.Parse(w.AppData)
		if err != nil {
			return orderbook.OrderCreation{}, fmt.Errorf("appData: %w", err)
		}
	}

	kind, err := parseKind(w.Kind)
	if err != nil {
		return orderbook.OrderCreation{}, err
	}

	signature, err := parseSignature(w.Signature)
	if err != nil {
		return orderbook.OrderCreation{}, fmt.Errorf("signature: %w", err)
	}

	return orderbook.OrderCreation{
		SellToken:         sellToken,
		BuyToken:          buyToken,
		SellAmount:        sellAmount,
		BuyAmount:         buyAmount,
		ValidTo:           w.ValidTo,
		Kind:              kind,
		PartiallyFillable: w.PartiallyFillable,
		FeeAmount:         feeAmount,
		AppData:           appData,
		Signature:         signature,
	}, nil
}

func parseKind(s string) (orderbook.OrderKind, error) {
	switch strings.ToLower(s) {
	case "sell":
		return orderbook.KindSell, nil
	case "buy":
		return orderbook.KindBuy, nil
	default:
		return 0, fmt.Errorf("kind: must be %q or %q, got %q", "sell", "buy", s)
	}
}

func parseSignature(s string) ([65]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return [65]byte{}, err
	}
	if len(b) != 65 {
		return [65]byte{}, fmt.Errorf("want 65 bytes, got %d", len(b))
	}
	var out [65]byte
	copy(out[:], b)
	return out, nil
}
