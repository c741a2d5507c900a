package domain

import (
	"time"

	"matchengine/decimal"
	"matchengine/id"
)

// EventKind discriminates the payload carried by an Event (§4.7 Glossary).
type EventKind uint8

const (
	EventOrderAccepted EventKind = iota
	EventOrderRejected
	EventOrderAdded
	EventOrderMatched
	EventTradeExecuted
	EventOrderCancelled
	EventOrderCancelRejected
	EventOrderStatusChanged
	EventDepthUpdated
	EventTriggerFired
	EventBookHalted
	EventBookResumed
	EventSubscriberLagged
)

func (k EventKind) String() string {
	switch k {
	case EventOrderAccepted:
		return "OrderAccepted"
	case EventOrderRejected:
		return "OrderRejected"
	case EventOrderAdded:
		return "OrderAdded"
	case EventOrderMatched:
		return "OrderMatched"
	case EventTradeExecuted:
		return "TradeExecuted"
	case EventOrderCancelled:
		return "OrderCancelled"
	case EventOrderCancelRejected:
		return "OrderCancelRejected"
	case EventOrderStatusChanged:
		return "OrderStatusChanged"
	case EventDepthUpdated:
		return "DepthUpdated"
	case EventTriggerFired:
		return "TriggerFired"
	case EventBookHalted:
		return "BookHalted"
	case EventBookResumed:
		return "BookResumed"
	case EventSubscriberLagged:
		return "SubscriberLagged"
	default:
		return "Unknown"
	}
}

// Event is the envelope published on the Event Bus (§6.2): every event
// carries the instrument it concerns, a monotonic per-instrument sequence
// number, a wall-clock timestamp, and a kind-specific payload. Exactly one
// of the typed payload fields below is populated, matching Kind.
type Event struct {
	InstrumentID id.InstrumentID
	Sequence     uint64
	Kind         EventKind
	Timestamp    time.Time

	Order           *OrderSnapshot
	Trade           *Trade
	Depth           *DepthPayload
	Trigger         *TriggerPayload
	RejectedReason  string
	LaggedSubscriber string

	// CancelOrderID is populated only on OrderCancelRejected, since a
	// cancel of an unknown order id has no Order to snapshot.
	CancelOrderID id.OrderID
}

// OrderSnapshot is an immutable point-in-time copy of an order's fields,
// safe to hand to subscribers without risking a data race with the
// owning worker's subsequent mutations.
type OrderSnapshot struct {
	ID            id.OrderID
	ClientOrderID string
	AccountID     id.AccountID
	InstrumentID  id.InstrumentID
	Side          Side
	Type          OrderType
	TIF           TimeInForce
	LimitPrice    decimal.Decimal
	HasLimitPrice bool
	BaseAmount    decimal.Decimal
	Remaining     decimal.Decimal
	FilledBase    decimal.Decimal
	FilledQuote   decimal.Decimal
	Status        Status
	UpdatedAt     time.Time
}

// Snapshot copies the order's current, observable state.
func (o *Order) Snapshot() *OrderSnapshot {
	return &OrderSnapshot{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		AccountID:     o.AccountID,
		InstrumentID:  o.InstrumentID,
		Side:          o.Side,
		Type:          o.Type,
		TIF:           o.TIF,
		LimitPrice:    o.LimitPrice,
		HasLimitPrice: o.HasLimitPrice,
		BaseAmount:    o.BaseAmount,
		Remaining:     o.Remaining,
		FilledBase:    o.FilledBase,
		FilledQuote:   o.FilledQuote,
		Status:        o.Status,
		UpdatedAt:     o.UpdatedAt,
	}
}

// DepthLevel is one aggregated (price, volume, order-count) row.
type DepthLevel struct {
	Price      decimal.Decimal
	Volume     decimal.Decimal
	OrderCount int
}

// DepthPayload is a full top-N depth view of both sides, recomputed from
// the book; a DepthUpdated event carries the view as it stands after the
// command's book mutations, not an incremental delta.
type DepthPayload struct {
	Bids      []DepthLevel
	Asks      []DepthLevel
	Timestamp time.Time
}

// TriggerPayload reports a Stop/StopLimit order crossing its trigger price.
type TriggerPayload struct {
	OrderID      id.OrderID
	ReferencePrice decimal.Decimal
	TriggerPrice decimal.Decimal
}
