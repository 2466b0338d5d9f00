package orderapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gnosis/oba-services/internal/orderbook"
)

type fixedRecoverer struct{ owner orderbook.Owner }

func (r fixedRecoverer) RecoverOwner(order orderbook.OrderCreation, domainSeparator orderbook.DomainSeparator) (orderbook.Owner, error) {
	return r.owner, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBook() *orderbook.Book {
	return orderbook.New(orderbook.DomainSeparator{}, fixedRecoverer{}, func() uint32 { return 100 })
}

func TestHandleCreateAndList(t *testing.T) {
	s := NewServer(":0", testBook(), testLogger())

	zeroSig := make([]byte, 130)
	for i := range zeroSig {
		zeroSig[i] = '0'
	}
	body, _ := json.Marshal(orderCreationWire{
		SellToken:  "0x0100000000000000000000000000000000000000",
		BuyToken:   "0x0200000000000000000000000000000000000000",
		SellAmount: "100",
		BuyAmount:  "90",
		FeeAmount:  "0",
		ValidTo:    1_000_000,
		Kind:       "sell",
		Signature:  "0x" + string(zeroSig),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	listRec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(listRec, listReq)

	var wire []OrderWire
	if err := json.NewDecoder(listRec.Body).Decode(&wire); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(wire) != 1 {
		t.Fatalf("got %d orders, want 1", len(wire))
	}
	if _, err := DecodeOrder(wire[0]); err != nil {
		t.Fatalf("DecodeOrder: %v", err)
	}
}

func TestHandleCreateRejectsBadKind(t *testing.T) {
	s := NewServer(":0", testBook(), testLogger())

	body, _ := json.Marshal(orderCreationWire{
		SellToken:  "0x0100000000000000000000000000000000000000",
		BuyToken:   "0x0200000000000000000000000000000000000000",
		SellAmount: "100",
		BuyAmount:  "90",
		FeeAmount:  "0",
		ValidTo:    1_000_000,
		Kind:       "invalid",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
