package domain

import (
	"matchengine/decimal"
	"matchengine/id"
)

// Command is the sum type the Matcher and Worker dispatch on: a new order
// to place, or an existing order to cancel (§4.3). Exactly one of Place or
// Cancel is set.
type Command struct {
	Place  *PlaceCommand
	Cancel *CancelCommand
}

// PlaceCommand carries everything needed to construct and process a new
// order. Callers are responsible for parsing any external representation
// into decimal.Decimal before constructing one — the core defines no wire
// format (§6).
type PlaceCommand struct {
	OrderID       id.OrderID
	ClientOrderID string
	AccountID     id.AccountID
	InstrumentID  id.InstrumentID

	Side Side
	Type OrderType
	TIF  TimeInForce

	LimitPrice    decimal.Decimal
	HasLimitPrice bool

	TriggerPrice    decimal.Decimal
	HasTriggerPrice bool
	TriggerType     TriggerType

	BaseAmount decimal.Decimal
	Source     CreatedFrom
}

// CancelCommand identifies an order to cancel.
type CancelCommand struct {
	InstrumentID id.InstrumentID
	OrderID      id.OrderID
}

// NewPlace wraps a PlaceCommand as a Command.
func NewPlace(p *PlaceCommand) Command { return Command{Place: p} }

// NewCancel wraps a CancelCommand as a Command.
func NewCancel(c *CancelCommand) Command { return Command{Cancel: c} }

// IsPlace reports whether this command is a Place.
func (c Command) IsPlace() bool { return c.Place != nil }

// IsCancel reports whether this command is a Cancel.
func (c Command) IsCancel() bool { return c.Cancel != nil }
