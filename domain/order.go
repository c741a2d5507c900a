// Package domain defines the canonical order and trade entities shared by
// every layer of the engine: the matcher mutates them, the book indexes
// them, the event bus reports their transitions, and the journal persists
// them. Nothing in this package depends on how orders are routed or matched.
package domain

import (
	"time"

	"matchengine/decimal"
	"matchengine/id"
)

// Side is which side of the book an order rests on or trades against.
type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Ask {
		return "ask"
	}
	return "bid"
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// OrderType selects the matching algorithm a Place command runs.
type OrderType uint8

const (
	Limit OrderType = iota
	Market
	Stop
	StopLimit
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case Stop:
		return "stop"
	case StopLimit:
		return "stop_limit"
	default:
		return "unknown"
	}
}

// TimeInForce is the taker's fill policy.
type TimeInForce uint8

const (
	GTC TimeInForce = iota
	IOC
	FOK
)

func (t TimeInForce) String() string {
	switch t {
	case GTC:
		return "GTC"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	default:
		return "unknown"
	}
}

// Status is an order's lifecycle state. Transitions form a DAG; see
// CanTransition below. {Filled, Cancelled, PartialFillCancelled, Rejected}
// are terminal.
type Status uint8

const (
	PendingNew Status = iota
	New
	WaitingTrigger
	PartiallyFilled
	Filled
	Cancelled
	PartialFillCancelled
	Rejected
)

func (s Status) String() string {
	switch s {
	case PendingNew:
		return "pending_new"
	case New:
		return "new"
	case WaitingTrigger:
		return "waiting_trigger"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case PartialFillCancelled:
		return "partial_fill_cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status is one the engine never transitions
// out of.
func (s Status) IsTerminal() bool {
	switch s {
	case Filled, Cancelled, PartialFillCancelled, Rejected:
		return true
	default:
		return false
	}
}

// transitions enumerates the status DAG's edges. Any status pair not
// present here is an invalid transition.
var transitions = map[Status]map[Status]bool{
	PendingNew: {
		New:            true,
		WaitingTrigger: true,
		Rejected:       true,
		Filled:         true,
		PartiallyFilled: true,
		Cancelled:      true,
	},
	New: {
		PartiallyFilled:      true,
		Filled:               true,
		Cancelled:            true,
		PartialFillCancelled: true,
	},
	WaitingTrigger: {
		New:                  true,
		PartiallyFilled:      true,
		Filled:               true,
		Cancelled:            true,
		PartialFillCancelled: true,
	},
	PartiallyFilled: {
		PartiallyFilled:      true,
		Filled:               true,
		PartialFillCancelled: true,
	},
}

// CanTransition reports whether from -> to is a legal edge in the status
// DAG. Self-transitions on PartiallyFilled (another partial fill) are
// allowed; terminal states have no outgoing edges.
func CanTransition(from, to Status) bool {
	if from == to && from == PartiallyFilled {
		return true
	}
	edges, ok := transitions[from]
	if !ok {
		return false
	}
	return edges[to]
}

// CreatedFrom records the provenance of an order. It has no effect on
// matching; it exists for collaborators that want to filter or report on
// where orders originated (supplements original_source's CreatedFrom).
type CreatedFrom uint8

const (
	SourceAPI CreatedFrom = iota
	SourceFront
	SourceSystem
)

// TriggerType names which reference price a Stop/StopLimit order's
// TriggerPrice is compared against. Only TriggerLastPrice is implemented
// today, but the field is a first-class enum rather than an implicit
// default so a mark-price or index-price oracle can be added later
// without changing the Order shape (supplements original_source's
// explicit trigger_type, dropped by the distilled spec).
type TriggerType uint8

const (
	TriggerLastPrice TriggerType = iota
)

func (t TriggerType) String() string {
	switch t {
	case TriggerLastPrice:
		return "last_price"
	default:
		return "unknown"
	}
}

// Order is the canonical, mutable order entity. Only the Worker that owns
// the order's instrument ever mutates it.
type Order struct {
	ID           id.OrderID
	ClientOrderID string // optional external id from the caller; empty if absent
	AccountID    id.AccountID
	InstrumentID id.InstrumentID

	Side Side
	Type OrderType

	// LimitPrice is required for Limit and StopLimit, ignored otherwise.
	LimitPrice decimal.Decimal
	HasLimitPrice bool

	// TriggerPrice is required for Stop and StopLimit, ignored otherwise.
	TriggerPrice decimal.Decimal
	HasTriggerPrice bool
	TriggerType     TriggerType

	BaseAmount decimal.Decimal
	Remaining  decimal.Decimal
	FilledBase decimal.Decimal
	FilledQuote decimal.Decimal

	Status Status
	TIF    TimeInForce
	Source CreatedFrom

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RemainingNonZero reports whether the order still has base amount left to
// trade or rest.
func (o *Order) RemainingNonZero() bool {
	return !o.Remaining.IsZero()
}

// transition moves the order to a new status, validating the edge against
// the status DAG. Callers in matcher/worker are expected to treat a false
// return as a fatal invariant violation (§7).
func (o *Order) transition(to Status, now time.Time) bool {
	if !CanTransition(o.Status, to) {
		return false
	}
	o.Status = to
	o.UpdatedAt = now
	return true
}

// Fill records a partial or full execution of trade base/quote amounts
// against this order and advances its status accordingly. It returns false
// if the resulting state would violate the
// filled_base+remaining==base_amount invariant or attempts a decrease.
func (o *Order) Fill(base, quote decimal.Decimal, now time.Time) bool {
	if base.IsNegative() || base.IsZero() {
		return false
	}
	if decimal.Cmp(base, o.Remaining) > 0 {
		return false
	}
	o.FilledBase = decimal.Add(o.FilledBase, base)
	o.FilledQuote = decimal.Add(o.FilledQuote, quote)
	o.Remaining = decimal.Sub(o.Remaining, base)

	if o.Remaining.IsZero() {
		return o.transition(Filled, now)
	}
	if o.Status == PartiallyFilled {
		o.UpdatedAt = now
		return true
	}
	return o.transition(PartiallyFilled, now)
}

// Rest transitions a resting remainder to New (first rest) — it is a no-op
// status-wise if the order is already resting after a partial fill
// (PartiallyFilled is itself a valid resting state).
func (o *Order) Rest(now time.Time) bool {
	if o.Status == PartiallyFilled {
		return true
	}
	return o.transition(New, now)
}

// CancelRemainder transitions the order to Cancelled or
// PartialFillCancelled depending on whether any fill occurred, per the
// IOC/FOK "kill remainder" semantics (§4.3).
func (o *Order) CancelRemainder(now time.Time) bool {
	if o.FilledBase.IsZero() {
		return o.transition(Cancelled, now)
	}
	return o.transition(PartialFillCancelled, now)
}

// Reject transitions a just-created order straight to Rejected, used for
// validation failures (§4.3 edge cases, §7).
func (o *Order) Reject(now time.Time) bool {
	return o.transition(Rejected, now)
}

// Trigger transitions a WaitingTrigger Stop/StopLimit order to New just
// before it is re-processed inline as Market/Limit (§4.3, SPEC_FULL §10.6).
func (o *Order) Trigger(now time.Time) bool {
	return o.transition(New, now)
}

// Wait parks a freshly validated Stop/StopLimit order in WaitingTrigger
// because its trigger condition is not yet met against the current
// reference price (§4.3).
func (o *Order) Wait(now time.Time) bool {
	return o.transition(WaitingTrigger, now)
}
