// Package id defines the opaque 128-bit identifiers used throughout the
// engine. Order, trade, account, and instrument ids are distinct Go types
// over the same underlying uuid.UUID representation, so a value of one
// kind cannot be passed where another is expected without an explicit
// conversion.
package id

import "github.com/google/uuid"

// OrderID identifies a single order, unique for the lifetime of the engine.
type OrderID uuid.UUID

// TradeID identifies a single trade.
type TradeID uuid.UUID

// AccountID identifies the account an order was placed on behalf of.
type AccountID uuid.UUID

// InstrumentID identifies the instrument (symbol) an order book belongs to.
type InstrumentID uuid.UUID

// Nil is the zero value for any of the id kinds above, used as a sentinel
// for "no id"; the IsNil methods compare against it.
var Nil = uuid.Nil

func (o OrderID) String() string      { return uuid.UUID(o).String() }
func (t TradeID) String() string      { return uuid.UUID(t).String() }
func (a AccountID) String() string    { return uuid.UUID(a).String() }
func (i InstrumentID) String() string { return uuid.UUID(i).String() }

func (o OrderID) IsNil() bool      { return uuid.UUID(o) == Nil }
func (t TradeID) IsNil() bool      { return uuid.UUID(t) == Nil }
func (a AccountID) IsNil() bool    { return uuid.UUID(a) == Nil }
func (i InstrumentID) IsNil() bool { return uuid.UUID(i) == Nil }

// NewOrderID allocates a fresh random order id.
func NewOrderID() OrderID { return OrderID(uuid.New()) }

// NewTradeID allocates a fresh random trade id.
func NewTradeID() TradeID { return TradeID(uuid.New()) }

// NewAccountID allocates a fresh random account id.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewInstrumentID allocates a fresh random instrument id.
func NewInstrumentID() InstrumentID { return InstrumentID(uuid.New()) }

// ParseOrderID parses a canonical UUID string into an OrderID.
func ParseOrderID(s string) (OrderID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OrderID{}, err
	}
	return OrderID(u), nil
}

// ParseAccountID parses a canonical UUID string into an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// ParseInstrumentID parses a canonical UUID string into an InstrumentID.
func ParseInstrumentID(s string) (InstrumentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return InstrumentID{}, err
	}
	return InstrumentID(u), nil
}
