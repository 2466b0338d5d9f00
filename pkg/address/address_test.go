package address

import "testing"

func TestParseRoundTrip(t *testing.T) {
	const s = "0x000102030405060708090a0b0c0d0e0f10111213"
	a, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := a.String(); got != s {
		t.Fatalf("String() = %s, want %s", got, s)
	}
}

func TestParseWithoutPrefix(t *testing.T) {
	a, err := Parse("0000000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a[19] != 1 {
		t.Fatalf("expected last byte 1, got %d", a[19])
	}
}

func TestParseInvalidLength(t *testing.T) {
	if _, err := Parse("0x1234"); err == nil {
		t.Fatal("expected error for short address")
	}
}

func TestLess(t *testing.T) {
	a, _ := Parse("0x0000000000000000000000000000000000000001")
	b, _ := Parse("0x0000000000000000000000000000000000000002")
	if !a.Less(b) {
		t.Fatal("expected a < b")
	}
	if b.Less(a) {
		t.Fatal("expected b > a")
	}
	if a.Less(a) {
		t.Fatal("expected a not less than itself")
	}
}
