package book

import (
	"testing"

	"matchengine/decimal"
	"matchengine/domain"
	"matchengine/id"
)

func TestDepthTopN(t *testing.T) {
	b := NewOrderBook(id.InstrumentID{}, 2)
	_ = b.AddResting(newTestOrder(domain.Bid, "100.00", "1"))
	_ = b.AddResting(newTestOrder(domain.Bid, "99.00", "1"))
	_ = b.AddResting(newTestOrder(domain.Bid, "98.00", "1"))
	_ = b.AddResting(newTestOrder(domain.Ask, "101.00", "1"))

	d := Depth(b, 2)
	if len(d.Bids) != 2 {
		t.Fatalf("expected top-2 bids, got %d", len(d.Bids))
	}
	if !decimal.Equal(d.Bids[0].Price, decimal.MustFromString("100.00")) {
		t.Fatalf("expected best bid first, got %v", d.Bids[0].Price)
	}
	if len(d.Asks) != 1 {
		t.Fatalf("expected 1 ask level, got %d", len(d.Asks))
	}
}

func TestDepthEmptyBook(t *testing.T) {
	b := NewOrderBook(id.InstrumentID{}, 2)
	d := Depth(b, 10)
	if len(d.Bids) != 0 || len(d.Asks) != 0 {
		t.Fatalf("expected empty depth on empty book")
	}
}
