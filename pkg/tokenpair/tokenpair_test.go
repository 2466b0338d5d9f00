package tokenpair

import (
	"testing"

	"github.com/gnosis/oba-services/pkg/address"
)

func addr(b byte) address.Address {
	var a address.Address
	a[19] = b
	return a
}

func TestNewCanonicalizesOrder(t *testing.T) {
	a, b := addr(1), addr(2)
	p1, err := New(a, b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p2, err := New(b, a)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p1 != p2 {
		t.Fatalf("expected canonical pairs to be equal regardless of submission order")
	}
	if p1.First() != a || p1.Second() != b {
		t.Fatalf("expected First()=a, Second()=b")
	}
}

func TestNewRejectsSameToken(t *testing.T) {
	a := addr(1)
	if _, err := New(a, a); err != ErrSameToken {
		t.Fatalf("expected ErrSameToken, got %v", err)
	}
}

func TestContainsAndOther(t *testing.T) {
	a, b := addr(1), addr(2)
	p, _ := New(a, b)
	if !p.Contains(a) || !p.Contains(b) {
		t.Fatal("expected pair to contain both tokens")
	}
	if p.Other(a) != b || p.Other(b) != a {
		t.Fatal("Other() did not return the counterpart token")
	}
}
