package domain

import (
	"time"

	"matchengine/decimal"
	"matchengine/id"
)

// Trade records one match between a resting maker order and an incoming
// taker order. quote_amount == base_amount * price, rounded
// half-away-from-zero at the instrument's declared scale (§4.2).
type Trade struct {
	ID           id.TradeID
	InstrumentID id.InstrumentID

	MakerOrderID id.OrderID
	TakerOrderID id.OrderID

	MakerSide Side // the side the resting maker order sat on

	BaseAmount  decimal.Decimal
	QuoteAmount decimal.Decimal
	Price       decimal.Decimal

	CreatedAt time.Time
}
