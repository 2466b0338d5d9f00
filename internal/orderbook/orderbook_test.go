package orderbook

import (
	"errors"
	"math"
	"testing"

	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/bigmath"
)

// stubRecoverer always recovers to the same fixed owner, regardless of the
// order or domain separator, letting admission tests focus on the book's
// own logic rather than signature verification.
type stubRecoverer struct {
	owner Owner
	err   error
}

func (s stubRecoverer) RecoverOwner(OrderCreation, DomainSeparator) (Owner, error) {
	return s.owner, s.err
}

func addr(b byte) address.Address {
	var a address.Address
	a[19] = b
	return a
}

func fixedClock(t uint32) func() uint32 {
	return func() uint32 { return t }
}

func sampleOrder(validTo uint32) OrderCreation {
	return OrderCreation{
		SellToken:  addr(1),
		BuyToken:   addr(2),
		SellAmount: bigmath.NewUInt256FromUint64(100),
		BuyAmount:  bigmath.NewUInt256FromUint64(90),
		ValidTo:    validTo,
		Kind:       KindSell,
		Signature:  [65]byte{1},
	}
}

func TestCannotAddOrderTwice(t *testing.T) {
	book := New(DomainSeparator{}, stubRecoverer{owner: addr(9)}, fixedClock(0))
	order := sampleOrder(math.MaxUint32)

	if _, err := book.Add(order); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if _, err := book.Add(order); !errors.Is(err, ErrDuplicatedOrder) {
		t.Fatalf("second Add: got %v, want ErrDuplicatedOrder", err)
	}
	if got := len(book.List()); got != 1 {
		t.Fatalf("List() len = %d, want 1", got)
	}
}

func TestSimpleRemovingOrder(t *testing.T) {
	book := New(DomainSeparator{}, stubRecoverer{owner: addr(9)}, fixedClock(0))
	order := sampleOrder(math.MaxUint32)

	if _, err := book.Add(order); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := book.Remove(order); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := len(book.List()); got != 0 {
		t.Fatalf("List() len = %d, want 0", got)
	}
	if err := book.Remove(order); !errors.Is(err, ErrDoesNotExist) {
		t.Fatalf("second Remove: got %v, want ErrDoesNotExist", err)
	}
}

func TestRemovesExpiredOrders(t *testing.T) {
	const validTo = math.MaxUint32 - 10

	book := New(DomainSeparator{}, stubRecoverer{owner: addr(9)}, fixedClock(0))
	order := sampleOrder(validTo)
	if _, err := book.Add(order); err != nil {
		t.Fatalf("Add: %v", err)
	}

	book.now = fixedClock(math.MaxUint32 - 11)
	book.RunMaintenance()
	if got := len(book.List()); got != 1 {
		t.Fatalf("after maintenance at valid_to-1: List() len = %d, want 1 (order must survive)", got)
	}

	book.now = fixedClock(math.MaxUint32 - 9)
	book.RunMaintenance()
	if got := len(book.List()); got != 0 {
		t.Fatalf("after maintenance past valid_to: List() len = %d, want 0 (order must be swept)", got)
	}
}

func TestAddRejectsPastValidTo(t *testing.T) {
	book := New(DomainSeparator{}, stubRecoverer{owner: addr(9)}, fixedClock(100))
	order := sampleOrder(100)
	if _, err := book.Add(order); !errors.Is(err, ErrPastValidTo) {
		t.Fatalf("got %v, want ErrPastValidTo", err)
	}
}

func TestAddRejectsInvalidSignature(t *testing.T) {
	book := New(DomainSeparator{}, stubRecoverer{err: errors.New("bad sig")}, fixedClock(0))
	order := sampleOrder(math.MaxUint32)
	if _, err := book.Add(order); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("got %v, want ErrInvalidSignature", err)
	}
}

func TestOrderUidRoundTrip(t *testing.T) {
	order := sampleOrder(math.MaxUint32)
	owner := addr(42)
	uid := DeriveOrderUid(order, owner)

	s := uid.String()
	if len(s) != 112 {
		t.Fatalf("OrderUid string len = %d, want 112", len(s))
	}

	parsed, err := ParseOrderUid(s)
	if err != nil {
		t.Fatalf("ParseOrderUid: %v", err)
	}
	if parsed != uid {
		t.Fatalf("ParseOrderUid round trip mismatch")
	}

	parsedWithPrefix, err := ParseOrderUid("0x" + s)
	if err != nil {
		t.Fatalf("ParseOrderUid with 0x prefix: %v", err)
	}
	if parsedWithPrefix != uid {
		t.Fatalf("ParseOrderUid with prefix round trip mismatch")
	}
}
