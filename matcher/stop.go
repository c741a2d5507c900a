package matcher

import (
	"sort"
	"time"

	"matchengine/decimal"
	"matchengine/domain"
	"matchengine/id"
)

// triggerPool holds dormant Stop/StopLimit orders keyed by order id. It is
// evaluated after every trade that moves the reference price (§4.3 Stop
// trigger pool).
type triggerPool struct {
	orders  map[id.OrderID]*domain.Order
	arrival map[id.OrderID]int64
	seq     int64
}

func newTriggerPool() *triggerPool {
	return &triggerPool{
		orders:  make(map[id.OrderID]*domain.Order),
		arrival: make(map[id.OrderID]int64),
	}
}

func (p *triggerPool) add(o *domain.Order) {
	p.seq++
	p.orders[o.ID] = o
	p.arrival[o.ID] = p.seq
}

func (p *triggerPool) remove(orderID id.OrderID) (*domain.Order, bool) {
	o, ok := p.orders[orderID]
	if !ok {
		return nil, false
	}
	delete(p.orders, orderID)
	delete(p.arrival, orderID)
	return o, true
}

// eligible removes and returns every order whose trigger condition the
// given reference price satisfies, ordered closest-trigger-first with
// arrival time as the tie-break (§4.3).
func (p *triggerPool) eligible(ref decimal.Decimal) []*domain.Order {
	var hit []*domain.Order
	for _, o := range p.orders {
		if conditionMet(o.Side, o.TriggerPrice, ref) {
			hit = append(hit, o)
		}
	}
	if len(hit) == 0 {
		return nil
	}
	sort.Slice(hit, func(i, j int) bool {
		di := distance(ref, hit[i].TriggerPrice)
		dj := distance(ref, hit[j].TriggerPrice)
		if c := decimal.Cmp(di, dj); c != 0 {
			return c < 0
		}
		return p.arrival[hit[i].ID] < p.arrival[hit[j].ID]
	})
	for _, o := range hit {
		delete(p.orders, o.ID)
		delete(p.arrival, o.ID)
	}
	return hit
}

func distance(a, b decimal.Decimal) decimal.Decimal {
	d := decimal.Sub(a, b)
	if d.IsNegative() {
		return decimal.Neg(d)
	}
	return d
}

// conditionMet implements the standard stop semantics: a buy-side stop
// triggers once the reference price has risen to or through the trigger;
// a sell-side stop triggers once it has fallen to or through it.
func conditionMet(side domain.Side, trigger, ref decimal.Decimal) bool {
	if side == domain.Bid {
		return decimal.Cmp(ref, trigger) >= 0
	}
	return decimal.Cmp(ref, trigger) <= 0
}

// processConditional handles a freshly validated Stop/StopLimit order: if
// its condition is already met against the current reference price it is
// re-processed inline as a Market (Stop) or Limit (StopLimit) taker;
// otherwise it is parked in the trigger pool (§4.3, SPEC_FULL §10.6).
func (m *Matcher) processConditional(order *domain.Order, now time.Time) (*Outcome, error) {
	ref, hasRef := m.ReferencePrice()
	if hasRef && conditionMet(order.Side, order.TriggerPrice, ref) {
		order.Trigger(now)
		return m.runConditionalTaker(order, now)
	}
	order.Wait(now)
	m.triggers.add(order)
	return &Outcome{Taker: order}, nil
}

// runConditionalTaker re-processes a just-triggered order as its
// underlying executable type: Stop becomes a Market order, StopLimit
// becomes a Limit order, both retaining the original TIF.
func (m *Matcher) runConditionalTaker(order *domain.Order, now time.Time) (*Outcome, error) {
	switch order.Type {
	case domain.Stop:
		return m.processMarket(order, now)
	case domain.StopLimit:
		switch order.TIF {
		case domain.FOK:
			return m.processLimitFOK(order, now)
		case domain.IOC:
			return m.processLimitIOC(order, now)
		default:
			return m.processLimitGTC(order, now)
		}
	default:
		return nil, domain.NewFatalError(nil, "runConditionalTaker called with a non-conditional order type")
	}
}

// withTriggers evaluates the trigger pool against the matcher's current
// reference price after every step that may have moved it, re-processing
// newly eligible Stop/StopLimit orders inline and folding their nested
// outcomes into out (§4.3, SPEC_FULL §10.6). It loops because a triggered
// order's own trades can move the reference price again; the pool only
// shrinks, so this always terminates.
func (m *Matcher) withTriggers(out *Outcome, now time.Time) (*Outcome, error) {
	for {
		ref, hasRef := m.ReferencePrice()
		if !hasRef {
			return out, nil
		}
		hit := m.triggers.eligible(ref)
		if len(hit) == 0 {
			return out, nil
		}
		for _, order := range hit {
			order.Trigger(now)
			nested, err := m.runConditionalTaker(order, now)
			if err != nil {
				return nil, err
			}
			out.Triggered = append(out.Triggered, &TriggerOutcome{Order: order, Nested: nested})
			out.Trades = append(out.Trades, nested.Trades...)
			out.TouchedMakers = append(out.TouchedMakers, nested.TouchedMakers...)
		}
	}
}
