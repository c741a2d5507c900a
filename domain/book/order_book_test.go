package book

import (
	"testing"
	"time"

	"matchengine/decimal"
	"matchengine/domain"
	"matchengine/id"
)

func newTestOrder(side domain.Side, price string, qty string) *domain.Order {
	amt := decimal.MustFromString(qty)
	return &domain.Order{
		ID:            id.NewOrderID(),
		InstrumentID:  id.InstrumentID{},
		Side:          side,
		Type:          domain.Limit,
		LimitPrice:    decimal.MustFromString(price),
		HasLimitPrice: true,
		BaseAmount:    amt,
		Remaining:     amt,
		Status:        domain.New,
		TIF:           domain.GTC,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func TestAddRestingUpdatesBestPrice(t *testing.T) {
	b := NewOrderBook(id.InstrumentID{}, 2)

	bid := newTestOrder(domain.Bid, "100.00", "1")
	if err := b.AddResting(bid); err != nil {
		t.Fatalf("AddResting: %v", err)
	}
	price, ok := b.BestBid()
	if !ok || !decimal.Equal(price, decimal.MustFromString("100.00")) {
		t.Fatalf("unexpected best bid: %v ok=%v", price, ok)
	}

	higher := newTestOrder(domain.Bid, "101.00", "1")
	if err := b.AddResting(higher); err != nil {
		t.Fatalf("AddResting: %v", err)
	}
	price, _ = b.BestBid()
	if !decimal.Equal(price, decimal.MustFromString("101.00")) {
		t.Fatalf("expected best bid to move to 101.00, got %v", price)
	}
}

func TestAddRestingDuplicateRejected(t *testing.T) {
	b := NewOrderBook(id.InstrumentID{}, 2)
	o := newTestOrder(domain.Bid, "100.00", "1")
	if err := b.AddResting(o); err != nil {
		t.Fatalf("AddResting: %v", err)
	}
	if err := b.AddResting(o); err != domain.ErrDuplicateOrderID {
		t.Fatalf("expected ErrDuplicateOrderID, got %v", err)
	}
}

func TestCancelRoundTrip(t *testing.T) {
	b := NewOrderBook(id.InstrumentID{}, 2)
	o := newTestOrder(domain.Ask, "100.00", "1")
	if err := b.AddResting(o); err != nil {
		t.Fatalf("AddResting: %v", err)
	}

	cancelled, err := b.Cancel(o.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.ID != o.ID {
		t.Fatalf("cancelled wrong order")
	}
	if _, ok := b.BestAsk(); ok {
		t.Fatalf("expected empty book after cancelling only resting order")
	}
	if b.LevelCount(domain.Ask) != 0 {
		t.Fatalf("expected level to be dropped once empty")
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	b := NewOrderBook(id.InstrumentID{}, 2)
	if _, err := b.Cancel(id.NewOrderID()); err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestPriceTimeOrderingWithinLevel(t *testing.T) {
	b := NewOrderBook(id.InstrumentID{}, 2)
	first := newTestOrder(domain.Ask, "100.00", "0.5")
	second := newTestOrder(domain.Ask, "100.00", "0.5")

	_ = b.AddResting(first)
	_ = b.AddResting(second)

	level := b.BestLevel(domain.Ask)
	if level.HeadOrder().ID != first.ID {
		t.Fatalf("expected FIFO: first order should be at head")
	}
}

func TestCheckFOKLiquidity(t *testing.T) {
	b := NewOrderBook(id.InstrumentID{}, 2)
	_ = b.AddResting(newTestOrder(domain.Ask, "100.00", "0.4"))
	_ = b.AddResting(newTestOrder(domain.Ask, "101.00", "0.5"))

	limit := decimal.MustFromString("101.00")
	if b.CheckFOKLiquidity(domain.Bid, limit, true, decimal.MustFromString("1.0")) {
		t.Fatalf("expected insufficient liquidity for 1.0 (only 0.9 available)")
	}
	if !b.CheckFOKLiquidity(domain.Bid, limit, true, decimal.MustFromString("0.9")) {
		t.Fatalf("expected sufficient liquidity for 0.9")
	}
}

func TestVolumeAtAndOrdersAt(t *testing.T) {
	b := NewOrderBook(id.InstrumentID{}, 2)
	_ = b.AddResting(newTestOrder(domain.Bid, "99.00", "1"))
	_ = b.AddResting(newTestOrder(domain.Bid, "99.00", "2"))

	vol, ok := b.VolumeAt(domain.Bid, decimal.MustFromString("99.00"))
	if !ok || !decimal.Equal(vol, decimal.MustFromString("3")) {
		t.Fatalf("expected aggregated volume 3, got %v", vol)
	}
	count, _ := b.OrdersAt(domain.Bid, decimal.MustFromString("99.00"))
	if count != 2 {
		t.Fatalf("expected 2 orders, got %d", count)
	}
}
