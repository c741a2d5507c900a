// Package matcher implements the single-order processing hot path (§4.3,
// C6): Process(command) runs one specialized algorithm per (OrderType,
// TimeInForce) pair, each built on a single shared one-level match helper,
// and returns every trade, status transition, and touched maker the
// caller (the Engine Worker) needs to publish as events.
package matcher

import (
	"time"

	"matchengine/decimal"
	"matchengine/domain"
	"matchengine/domain/book"
	"matchengine/id"
	"matchengine/infra/memory"
)

// Outcome bundles everything Process produced for one command: the
// resulting trades, the taker's final snapshot, every maker order touched,
// and any dormant Stop/StopLimit orders that triggered and were
// re-processed inline as part of this same step (SPEC_FULL §10.6).
type Outcome struct {
	Taker          *domain.Order
	Trades         []*domain.Trade
	TouchedMakers  []*domain.Order
	RestedOrder    *domain.Order // non-nil if Taker was inserted into the book
	CancelledOrder *domain.Order // non-nil for a Cancel command
	RejectReason   string        // non-empty when Taker.Status == domain.Rejected
	Triggered      []*TriggerOutcome
}

// TriggerOutcome records a Stop/StopLimit order that fired during this
// step, together with the nested Outcome of re-processing it as
// Market/Limit.
type TriggerOutcome struct {
	Order   *domain.Order
	Nested  *Outcome
}

// SelfTradePolicy, if non-nil, is consulted before executing a match and
// may veto it. The core implements no self-trade prevention by default
// (SPEC_FULL §10.6); this is strictly an opt-in hook.
type SelfTradePolicy func(taker, maker *domain.Order) (skip bool)

// ReferencePriceOracle overrides the default last-trade reference price
// used to evaluate Stop/StopLimit triggers (§6.4, SPEC_FULL §10.6).
type ReferencePriceOracle func() (decimal.Decimal, bool)

// Matcher owns one instrument's book, trigger pool, and reference price.
// It is not safe for concurrent use — exactly one Engine Worker goroutine
// drives it (§5).
type Matcher struct {
	Book       *book.OrderBook
	QuoteScale int32

	triggers *triggerPool

	referencePrice    decimal.Decimal
	hasReferencePrice bool
	oracle            ReferencePriceOracle

	SelfTrade SelfTradePolicy

	Now func() time.Time

	orders *memory.OrderPool
}

// New constructs a Matcher over an already-constructed book.
func New(b *book.OrderBook, quoteScale int32) *Matcher {
	return &Matcher{
		Book:       b,
		QuoteScale: quoteScale,
		triggers:   newTriggerPool(),
		Now:        func() time.Time { return time.Now().UTC() },
		orders:     memory.NewOrderPool(),
	}
}

// SetReferencePriceOracle installs a collaborator-supplied reference price
// source (§6.4); when unset, the matcher defaults to last-trade price.
func (m *Matcher) SetReferencePriceOracle(o ReferencePriceOracle) { m.oracle = o }

// ReferencePrice returns the price currently used to evaluate triggers.
func (m *Matcher) ReferencePrice() (decimal.Decimal, bool) {
	if m.oracle != nil {
		return m.oracle()
	}
	return m.referencePrice, m.hasReferencePrice
}

func (m *Matcher) setLastTradePrice(p decimal.Decimal) {
	m.referencePrice = p
	m.hasReferencePrice = true
}

// Process is the single entry point for the matching hot path (§4.3).
func (m *Matcher) Process(cmd domain.Command) (*Outcome, error) {
	if cmd.IsCancel() {
		return m.processCancel(cmd.Cancel)
	}
	return m.processPlace(cmd.Place)
}

func (m *Matcher) processCancel(c *domain.CancelCommand) (*Outcome, error) {
	now := m.Now()

	if order, ok := m.triggers.remove(c.OrderID); ok {
		if !order.CancelRemainder(now) {
			return nil, domain.NewFatalError(nil, "invalid cancel transition for waiting-trigger order")
		}
		return &Outcome{Taker: order, CancelledOrder: order}, nil
	}

	order, err := m.Book.Cancel(c.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.CancelRemainder(now) {
		return nil, domain.NewFatalError(nil, "invalid cancel transition")
	}
	return &Outcome{Taker: order, CancelledOrder: order}, nil
}

func (m *Matcher) processPlace(p *domain.PlaceCommand) (*Outcome, error) {
	now := m.Now()
	order, rejection := m.buildAndValidate(p, now)
	if rejection != nil {
		order.Reject(now)
		return &Outcome{Taker: order, RejectReason: rejection.Error()}, nil
	}

	switch order.Type {
	case domain.Stop, domain.StopLimit:
		return m.processConditional(order, now)
	default:
		return m.runTaker(order, now)
	}
}

// buildAndValidate constructs the canonical Order from a command and
// applies the §4.3 edge-case validation rules. A non-nil second return
// means the order must be Rejected.
func (m *Matcher) buildAndValidate(p *domain.PlaceCommand, now time.Time) (*domain.Order, error) {
	order := m.orders.Get()
	*order = domain.Order{
		ID:              p.OrderID,
		ClientOrderID:   p.ClientOrderID,
		AccountID:       p.AccountID,
		InstrumentID:    p.InstrumentID,
		Side:            p.Side,
		Type:            p.Type,
		TIF:             p.TIF,
		LimitPrice:      p.LimitPrice,
		HasLimitPrice:   p.HasLimitPrice,
		TriggerPrice:    p.TriggerPrice,
		HasTriggerPrice: p.HasTriggerPrice,
		TriggerType:     p.TriggerType,
		BaseAmount:      p.BaseAmount,
		Remaining:       p.BaseAmount,
		FilledBase:      decimal.Zero(m.Book.Scale),
		FilledQuote:     decimal.Zero(m.QuoteScale),
		Status:          domain.PendingNew,
		Source:          p.Source,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if p.InstrumentID != m.Book.InstrumentID {
		return order, domain.ErrInstrumentMismatch
	}
	if order.BaseAmount.IsZero() || order.BaseAmount.IsNegative() {
		return order, domain.ErrZeroAmount
	}
	if order.HasLimitPrice && order.LimitPrice.IsNegative() {
		return order, domain.ErrNegativePrice
	}
	if order.HasTriggerPrice && order.TriggerPrice.IsNegative() {
		return order, domain.ErrNegativePrice
	}
	if (order.Type == domain.Limit || order.Type == domain.StopLimit) && !order.HasLimitPrice {
		return order, domain.ErrMissingLimitPrice
	}
	if (order.Type == domain.Stop || order.Type == domain.StopLimit) && !order.HasTriggerPrice {
		return order, domain.ErrMissingTriggerPrice
	}
	return order, nil
}

// ReleaseIfTerminal returns a terminal order to the internal allocation
// pool once the caller has finished publishing its final snapshot. It is
// a no-op for a resting (non-terminal) order, since the book still
// references it by pointer.
func (m *Matcher) ReleaseIfTerminal(o *domain.Order) {
	if o != nil && o.Status.IsTerminal() {
		m.orders.Put(o)
	}
}

// newTradeID is split out so tests can observe trade construction; kept as
// a thin wrapper rather than a field to avoid a non-deterministic id
// generator becoming part of the Matcher's exported surface.
func newTradeID() id.TradeID { return id.NewTradeID() }
