package orderbookclient

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gnosis/oba-services/internal/orderapi"
	"github.com/gnosis/oba-services/internal/orderbook"
	"github.com/gnosis/oba-services/pkg/address"
	"github.com/gnosis/oba-services/pkg/bigmath"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func addr(b byte) address.Address {
	var a address.Address
	a[19] = b
	return a
}

func TestListDecodesRemoteOrders(t *testing.T) {
	order := orderbook.Order{
		Creation: orderbook.OrderCreation{
			SellToken:  addr(1),
			BuyToken:   addr(2),
			SellAmount: bigmath.NewUInt256FromUint64(100),
			BuyAmount:  bigmath.NewUInt256FromUint64(90),
			ValidTo:    1_000_000,
			Kind:       orderbook.KindSell,
		},
		Owner: addr(9),
	}
	wire := []orderapi.OrderWire{orderapi.EncodeOrder(order)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wire)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, testLogger())
	orders := c.List()
	if len(orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(orders))
	}
}

func TestListReturnsNilOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, testLogger())
	if orders := c.List(); orders != nil {
		t.Fatalf("expected nil orders, got %v", orders)
	}
}
