package matcher

import (
	"time"

	"matchengine/decimal"
	"matchengine/domain"
)

// runTaker dispatches a validated, non-conditional order to its
// specialized (type, TIF) algorithm (§4.3). Every path bottoms out in
// matchOneLevel so the book-mutation logic exists exactly once.
func (m *Matcher) runTaker(taker *domain.Order, now time.Time) (*Outcome, error) {
	switch taker.Type {
	case domain.Market:
		return m.processMarket(taker, now)
	case domain.Limit:
		switch taker.TIF {
		case domain.FOK:
			return m.processLimitFOK(taker, now)
		case domain.IOC:
			return m.processLimitIOC(taker, now)
		default:
			return m.processLimitGTC(taker, now)
		}
	default:
		return nil, domain.NewFatalError(nil, "runTaker called with a conditional order type")
	}
}

// processLimitGTC matches against the book up to the taker's limit price,
// then rests any remainder (§4.3 Limit+GTC).
func (m *Matcher) processLimitGTC(taker *domain.Order, now time.Time) (*Outcome, error) {
	trades, makers := m.runMatchLoop(taker, taker.LimitPrice, true, now)
	out := &Outcome{Taker: taker, Trades: trades, TouchedMakers: makers}
	if taker.RemainingNonZero() {
		taker.Rest(now)
		if err := m.Book.AddResting(taker); err != nil {
			return nil, err
		}
		out.RestedOrder = taker
	}
	return m.withTriggers(out, now)
}

// processLimitIOC matches up to the limit price, then kills any
// unfilled remainder rather than resting it (§4.3 Limit+IOC).
func (m *Matcher) processLimitIOC(taker *domain.Order, now time.Time) (*Outcome, error) {
	trades, makers := m.runMatchLoop(taker, taker.LimitPrice, true, now)
	out := &Outcome{Taker: taker, Trades: trades, TouchedMakers: makers}
	if taker.RemainingNonZero() {
		taker.CancelRemainder(now)
	}
	return m.withTriggers(out, now)
}

// processLimitFOK pre-checks that the opposite side can cover the full
// taker size within the limit price before matching a single unit; if it
// cannot, the order is killed with zero trades (§4.3 Limit+FOK).
func (m *Matcher) processLimitFOK(taker *domain.Order, now time.Time) (*Outcome, error) {
	if !m.Book.CheckFOKLiquidity(taker.Side, taker.LimitPrice, true, taker.BaseAmount) {
		taker.CancelRemainder(now)
		return m.withTriggers(&Outcome{Taker: taker}, now)
	}
	trades, makers := m.runMatchLoop(taker, taker.LimitPrice, true, now)
	out := &Outcome{Taker: taker, Trades: trades, TouchedMakers: makers}
	if taker.RemainingNonZero() {
		// The liquidity pre-check guarantees this cannot happen outside of a
		// concurrent mutation, which the single-worker model precludes.
		return nil, domain.NewFatalError(nil, "FOK pre-check passed but order left with a remainder")
	}
	return m.withTriggers(out, now)
}

// processMarket matches with no price bound and kills any remainder —
// including the case of a completely empty opposite side, which resolves
// to Cancelled rather than Rejected (§4.3 Market, SPEC_FULL §10.6). A FOK
// market order is first pre-checked against the whole opposite side and
// killed with zero trades if it cannot be filled in full.
func (m *Matcher) processMarket(taker *domain.Order, now time.Time) (*Outcome, error) {
	var bound decimal.Decimal
	if taker.TIF == domain.FOK && !m.Book.CheckFOKLiquidity(taker.Side, bound, false, taker.BaseAmount) {
		taker.CancelRemainder(now)
		return m.withTriggers(&Outcome{Taker: taker}, now)
	}
	trades, makers := m.runMatchLoop(taker, bound, false, now)
	out := &Outcome{Taker: taker, Trades: trades, TouchedMakers: makers}
	if taker.RemainingNonZero() {
		taker.CancelRemainder(now)
	}
	return m.withTriggers(out, now)
}

// runMatchLoop repeatedly matches taker against the best opposite level
// until it is filled, the book runs out of eligible levels, or the price
// bound (when present) stops crossing.
func (m *Matcher) runMatchLoop(taker *domain.Order, priceBound decimal.Decimal, hasBound bool, now time.Time) ([]*domain.Trade, []*domain.Order) {
	var trades []*domain.Trade
	var makers []*domain.Order
	for taker.RemainingNonZero() {
		trade, maker, ok := m.matchOneLevel(taker, priceBound, hasBound, now)
		if !ok {
			break
		}
		trades = append(trades, trade)
		makers = append(makers, maker)
	}
	return trades, makers
}

// matchOneLevel executes a single match between taker and the head order
// of the best opposite-side level, if one is eligible. This is the single
// monomorphic routine every (type, TIF) path shares (§4.1, §9).
func (m *Matcher) matchOneLevel(taker *domain.Order, priceBound decimal.Decimal, hasBound bool, now time.Time) (*domain.Trade, *domain.Order, bool) {
	opposite := taker.Side.Opposite()
	level := m.Book.BestLevel(opposite)
	if level == nil {
		return nil, nil, false
	}
	if hasBound && !priceCrosses(taker.Side, priceBound, level.Price) {
		return nil, nil, false
	}
	maker := level.HeadOrder()
	if maker == nil {
		return nil, nil, false
	}
	if m.SelfTrade != nil && m.SelfTrade(taker, maker) {
		return nil, nil, false
	}

	matchQty := decimal.Min(taker.Remaining, maker.Remaining)
	price := maker.LimitPrice
	quote := decimal.MulRoundHalfAwayFromZero(matchQty, price, m.QuoteScale)

	if !taker.Fill(matchQty, quote, now) || !maker.Fill(matchQty, quote, now) {
		return nil, nil, false
	}
	m.Book.ApplyFillToHead(opposite, matchQty)
	m.Book.PopHeadIfFilled(opposite)
	m.setLastTradePrice(price)

	trade := &domain.Trade{
		ID:           newTradeID(),
		InstrumentID: m.Book.InstrumentID,
		MakerOrderID: maker.ID,
		TakerOrderID: taker.ID,
		MakerSide:    maker.Side,
		BaseAmount:   matchQty,
		QuoteAmount:  quote,
		Price:        price,
		CreatedAt:    now,
	}
	return trade, maker, true
}

// priceCrosses reports whether a resting level at levelPrice is within a
// taker's limit bound: a bid taker matches asks at or below its limit, an
// ask taker matches bids at or above its limit.
func priceCrosses(takerSide domain.Side, bound, levelPrice decimal.Decimal) bool {
	if takerSide == domain.Bid {
		return decimal.Cmp(levelPrice, bound) <= 0
	}
	return decimal.Cmp(levelPrice, bound) >= 0
}
