package matcher

import (
	"testing"
	"time"

	"matchengine/decimal"
	"matchengine/domain"
	"matchengine/domain/book"
	"matchengine/id"
)

const scale = int32(2)

func newMatcher() *Matcher {
	instrument := id.InstrumentID{}
	m := New(book.NewOrderBook(instrument, scale), scale)
	m.Now = func() time.Time { return time.Unix(0, 0).UTC() }
	return m
}

func place(instrument id.InstrumentID, side domain.Side, typ domain.OrderType, tif domain.TimeInForce, price, trigger, qty string) domain.Command {
	p := &domain.PlaceCommand{
		OrderID:      id.NewOrderID(),
		AccountID:    id.AccountID{},
		InstrumentID: instrument,
		Side:         side,
		Type:         typ,
		TIF:          tif,
		BaseAmount:   decimal.MustFromString(qty),
		Source:       domain.SourceAPI,
	}
	if price != "" {
		p.LimitPrice = decimal.MustFromString(price)
		p.HasLimitPrice = true
	}
	if trigger != "" {
		p.TriggerPrice = decimal.MustFromString(trigger)
		p.HasTriggerPrice = true
	}
	return domain.NewPlace(p)
}

// S1 — simple full fill.
func TestScenarioSimpleFullFill(t *testing.T) {
	m := newMatcher()
	instrument := m.Book.InstrumentID

	askOut, err := m.Process(place(instrument, domain.Ask, domain.Limit, domain.GTC, "100.00", "", "1.0"))
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if askOut.Taker.Status != domain.New {
		t.Fatalf("expected resting ask to be New, got %v", askOut.Taker.Status)
	}

	bidOut, err := m.Process(place(instrument, domain.Bid, domain.Limit, domain.GTC, "100.00", "", "1.0"))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if len(bidOut.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(bidOut.Trades))
	}
	if bidOut.Taker.Status != domain.Filled {
		t.Fatalf("expected bid Filled, got %v", bidOut.Taker.Status)
	}
	if askOut.Taker.Status != domain.Filled {
		t.Fatalf("expected ask Filled, got %v", askOut.Taker.Status)
	}
	if _, ok := m.Book.BestBid(); ok {
		t.Fatalf("expected empty book")
	}
	if _, ok := m.Book.BestAsk(); ok {
		t.Fatalf("expected empty book")
	}
}

// S2 — partial fill then rest.
func TestScenarioPartialFillAndRest(t *testing.T) {
	m := newMatcher()
	instrument := m.Book.InstrumentID

	m.Process(place(instrument, domain.Ask, domain.Limit, domain.GTC, "100.00", "", "0.5"))
	bidOut, err := m.Process(place(instrument, domain.Bid, domain.Limit, domain.GTC, "101.00", "", "1.0"))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if len(bidOut.Trades) != 1 || !decimal.Equal(bidOut.Trades[0].Price, decimal.MustFromString("100.00")) {
		t.Fatalf("expected one trade at 100.00")
	}
	if bidOut.Taker.Status != domain.PartiallyFilled {
		t.Fatalf("expected bid PartiallyFilled, got %v", bidOut.Taker.Status)
	}
	if !decimal.Equal(bidOut.Taker.Remaining, decimal.MustFromString("0.5")) {
		t.Fatalf("expected remaining 0.5, got %v", bidOut.Taker.Remaining)
	}
	bestBid, ok := m.Book.BestBid()
	if !ok || !decimal.Equal(bestBid, decimal.MustFromString("101.00")) {
		t.Fatalf("expected bid resting at 101.00")
	}
	if _, ok := m.Book.BestAsk(); ok {
		t.Fatalf("expected no asks left")
	}
}

// S3 — IOC kills the unfilled remainder instead of resting it.
func TestScenarioIOCKillsRemainder(t *testing.T) {
	m := newMatcher()
	instrument := m.Book.InstrumentID

	m.Process(place(instrument, domain.Ask, domain.Limit, domain.GTC, "100.00", "", "0.3"))
	bidOut, err := m.Process(place(instrument, domain.Bid, domain.Limit, domain.IOC, "100.00", "", "1.0"))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if len(bidOut.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(bidOut.Trades))
	}
	if bidOut.Taker.Status != domain.PartialFillCancelled {
		t.Fatalf("expected PartialFillCancelled, got %v", bidOut.Taker.Status)
	}
	if !decimal.Equal(bidOut.Taker.Remaining, decimal.MustFromString("0.7")) {
		t.Fatalf("expected remaining 0.7, got %v", bidOut.Taker.Remaining)
	}
	if _, ok := m.Book.BestBid(); ok {
		t.Fatalf("expected IOC remainder not rested")
	}
}

// S4 — FOK all-or-nothing, both the killed and the filled case.
func TestScenarioFOKAllOrNothing(t *testing.T) {
	m := newMatcher()
	instrument := m.Book.InstrumentID

	m.Process(place(instrument, domain.Ask, domain.Limit, domain.GTC, "100.00", "", "0.4"))
	m.Process(place(instrument, domain.Ask, domain.Limit, domain.GTC, "101.00", "", "0.5"))

	killed, err := m.Process(place(instrument, domain.Bid, domain.Limit, domain.FOK, "101.00", "", "1.0"))
	if err != nil {
		t.Fatalf("killed fok: %v", err)
	}
	if len(killed.Trades) != 0 {
		t.Fatalf("expected no trades on insufficient liquidity, got %d", len(killed.Trades))
	}
	if killed.Taker.Status != domain.Cancelled {
		t.Fatalf("expected Cancelled, got %v", killed.Taker.Status)
	}

	filled, err := m.Process(place(instrument, domain.Bid, domain.Limit, domain.FOK, "101.00", "", "0.9"))
	if err != nil {
		t.Fatalf("filled fok: %v", err)
	}
	if len(filled.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(filled.Trades))
	}
	if filled.Taker.Status != domain.Filled {
		t.Fatalf("expected Filled, got %v", filled.Taker.Status)
	}
	if _, ok := m.Book.BestAsk(); ok {
		t.Fatalf("expected book empty after full fill")
	}
}

// S5 — price-time priority within a level.
func TestScenarioPriceTimePriority(t *testing.T) {
	m := newMatcher()
	instrument := m.Book.InstrumentID

	a1, _ := m.Process(place(instrument, domain.Ask, domain.Limit, domain.GTC, "100.00", "", "0.5"))
	a2, _ := m.Process(place(instrument, domain.Ask, domain.Limit, domain.GTC, "100.00", "", "0.5"))
	bidOut, err := m.Process(place(instrument, domain.Bid, domain.Limit, domain.GTC, "100.00", "", "0.7"))
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if len(bidOut.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(bidOut.Trades))
	}
	if bidOut.Trades[0].MakerOrderID != a1.Taker.ID {
		t.Fatalf("expected first trade against A1 (FIFO)")
	}
	if a1.Taker.Status != domain.Filled {
		t.Fatalf("expected A1 Filled")
	}
	if a2.Taker.Status != domain.PartiallyFilled {
		t.Fatalf("expected A2 PartiallyFilled, got %v", a2.Taker.Status)
	}
	if !decimal.Equal(a2.Taker.Remaining, decimal.MustFromString("0.3")) {
		t.Fatalf("expected A2 remaining 0.3, got %v", a2.Taker.Remaining)
	}
	bestAsk, ok := m.Book.BestAsk()
	if !ok || !decimal.Equal(bestAsk, decimal.MustFromString("100.00")) {
		t.Fatalf("expected best ask still at 100.00")
	}
	vol, _ := m.Book.VolumeAt(domain.Ask, decimal.MustFromString("100.00"))
	if !decimal.Equal(vol, decimal.MustFromString("0.3")) {
		t.Fatalf("expected remaining ask volume 0.3, got %v", vol)
	}
	if bidOut.Taker.Status != domain.Filled {
		t.Fatalf("expected bid Filled")
	}
}

// S6 — Stop order parks in the trigger pool, then fires once the
// reference price (driven by executed trades) reaches it.
func TestScenarioStopTriggering(t *testing.T) {
	m := newMatcher()
	instrument := m.Book.InstrumentID
	m.setLastTradePrice(decimal.MustFromString("100.00"))

	stopOut, err := m.Process(place(instrument, domain.Bid, domain.Stop, domain.GTC, "", "105.00", "1.0"))
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopOut.Taker.Status != domain.WaitingTrigger {
		t.Fatalf("expected WaitingTrigger, got %v", stopOut.Taker.Status)
	}
	if _, ok := m.Book.BestBid(); ok {
		t.Fatalf("waiting-trigger order must not enter the book")
	}

	m.Process(place(instrument, domain.Ask, domain.Limit, domain.GTC, "104.00", "", "1.0"))
	firstTrade, err := m.Process(place(instrument, domain.Bid, domain.Limit, domain.GTC, "104.00", "", "1.0"))
	if err != nil {
		t.Fatalf("trade at 104: %v", err)
	}
	if len(firstTrade.Triggered) != 0 {
		t.Fatalf("stop must not trigger at reference 104 < 105")
	}

	m.Process(place(instrument, domain.Ask, domain.Limit, domain.GTC, "106.00", "", "1.0"))
	secondTrade, err := m.Process(place(instrument, domain.Bid, domain.Limit, domain.GTC, "106.00", "", "1.0"))
	if err != nil {
		t.Fatalf("trade at 106: %v", err)
	}
	if len(secondTrade.Triggered) != 1 {
		t.Fatalf("expected the stop to trigger once reference reaches 106, got %d", len(secondTrade.Triggered))
	}
	fired := secondTrade.Triggered[0]
	if fired.Order.ID != stopOut.Taker.ID {
		t.Fatalf("wrong order triggered")
	}
	if fired.Order.Status != domain.Cancelled {
		t.Fatalf("expected triggered market stop to cancel on empty book, got %v", fired.Order.Status)
	}
}

func TestRejectZeroAmount(t *testing.T) {
	m := newMatcher()
	out, err := m.Process(place(m.Book.InstrumentID, domain.Bid, domain.Limit, domain.GTC, "100.00", "", "0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Taker.Status != domain.Rejected {
		t.Fatalf("expected Rejected, got %v", out.Taker.Status)
	}
}

func TestRejectMissingLimitPrice(t *testing.T) {
	m := newMatcher()
	out, _ := m.Process(place(m.Book.InstrumentID, domain.Bid, domain.Limit, domain.GTC, "", "", "1.0"))
	if out.Taker.Status != domain.Rejected {
		t.Fatalf("expected Rejected, got %v", out.Taker.Status)
	}
}

func TestCancelRestingOrder(t *testing.T) {
	m := newMatcher()
	instrument := m.Book.InstrumentID
	placed, _ := m.Process(place(instrument, domain.Ask, domain.Limit, domain.GTC, "100.00", "", "1.0"))

	cancelOut, err := m.Process(domain.NewCancel(&domain.CancelCommand{InstrumentID: instrument, OrderID: placed.Taker.ID}))
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelOut.CancelledOrder.Status != domain.Cancelled {
		t.Fatalf("expected Cancelled, got %v", cancelOut.CancelledOrder.Status)
	}
	if _, ok := m.Book.BestAsk(); ok {
		t.Fatalf("expected book empty after cancel")
	}
}
