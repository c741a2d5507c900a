package book

import (
	"matchengine/decimal"
	"matchengine/domain"
	"matchengine/id"
)

// OrderBook holds both sides of a single instrument: price levels in two
// red-black trees plus an order index for O(1)-amortized cancel (§3, §4.2).
// It has no locking of its own — it is only ever touched from the single
// worker goroutine that owns its instrument (§5).
type OrderBook struct {
	InstrumentID id.InstrumentID
	Scale        int32 // declared decimal scale for this instrument's quantities

	bids *rbTree // selection: highest price first
	asks *rbTree // selection: lowest price first

	index map[id.OrderID]*node

	bestBid    decimal.Decimal
	hasBestBid bool
	bestAsk    decimal.Decimal
	hasBestAsk bool
}

// NewOrderBook constructs an empty book for one instrument.
func NewOrderBook(instrumentID id.InstrumentID, scale int32) *OrderBook {
	return &OrderBook{
		InstrumentID: instrumentID,
		Scale:        scale,
		bids:         newRBTree(),
		asks:         newRBTree(),
		index:        make(map[id.OrderID]*node),
	}
}

func (b *OrderBook) treeFor(side domain.Side) *rbTree {
	if side == domain.Bid {
		return b.bids
	}
	return b.asks
}

// AddResting inserts a not-fully-matched limit/stop-limit remainder at
// order.LimitPrice, creating the level if absent, and refreshes the cached
// best price if this is a new extremum (§4.2).
func (b *OrderBook) AddResting(o *domain.Order) error {
	if _, exists := b.index[o.ID]; exists {
		return domain.ErrDuplicateOrderID
	}
	tree := b.treeFor(o.Side)
	level := tree.getOrCreate(o.LimitPrice, b.Scale)
	n := &node{order: o}
	level.append(n)
	b.index[o.ID] = n
	b.refreshBestOnInsert(o.Side, o.LimitPrice)
	return nil
}

// Cancel locates the order via the index, removes it from its level
// (dropping the level if it becomes empty), and refreshes the caches
// (§4.2).
func (b *OrderBook) Cancel(orderID id.OrderID) (*domain.Order, error) {
	n, ok := b.index[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	order := n.order
	level := n.level
	level.unlink(n)
	delete(b.index, orderID)

	side := order.Side
	if level.empty() {
		b.treeFor(side).delete(level.Price)
		b.refreshBestOnRemoveExtremum(side, level.Price)
	}
	return order, nil
}

// BestBid returns the cached best bid price, if any.
func (b *OrderBook) BestBid() (decimal.Decimal, bool) { return b.bestBid, b.hasBestBid }

// BestAsk returns the cached best ask price, if any.
func (b *OrderBook) BestAsk() (decimal.Decimal, bool) { return b.bestAsk, b.hasBestAsk }

// VolumeAt returns the cached total resting volume at a price on a side.
func (b *OrderBook) VolumeAt(side domain.Side, price decimal.Decimal) (decimal.Decimal, bool) {
	level := b.treeFor(side).find(price)
	if level == nil {
		return decimal.Zero(b.Scale), false
	}
	return level.TotalVolume, true
}

// OrdersAt returns the cached order count at a price on a side.
func (b *OrderBook) OrdersAt(side domain.Side, price decimal.Decimal) (int, bool) {
	level := b.treeFor(side).find(price)
	if level == nil {
		return 0, false
	}
	return level.OrderCount, true
}

// BestLevel returns the best-priority level on a side: highest bid or
// lowest ask, used by the matcher's inner loop.
func (b *OrderBook) BestLevel(side domain.Side) *PriceLevel {
	if side == domain.Bid {
		return b.bids.max()
	}
	return b.asks.min()
}

// HeadOrder returns the order at the front of the given level, or nil.
func (l *PriceLevel) HeadOrder() *domain.Order {
	n := l.front()
	if n == nil {
		return nil
	}
	return n.order
}

// ApplyFillToHead records that amount of the level's head order's remaining
// volume was just matched, keeping the level's cached TotalVolume coherent
// without moving the head's position (§4.1).
func (b *OrderBook) ApplyFillToHead(side domain.Side, amount decimal.Decimal) {
	level := b.BestLevel(side)
	if level == nil {
		return
	}
	level.decrementVolume(amount)
}

// PopHeadIfFilled removes the level's head order from the book when it has
// no remaining volume, dropping the level if it becomes empty and
// refreshing the best-price cache. It is a no-op if the head order still
// has remaining volume.
func (b *OrderBook) PopHeadIfFilled(side domain.Side) {
	level := b.BestLevel(side)
	if level == nil {
		return
	}
	n := level.front()
	if n == nil || n.order.RemainingNonZero() {
		return
	}
	level.unlink(n)
	delete(b.index, n.order.ID)
	if level.empty() {
		price := level.Price
		b.treeFor(side).delete(price)
		b.refreshBestOnRemoveExtremum(side, price)
	}
}

// CheckFOKLiquidity walks the opposite side's levels up to the taker's
// price bound (or unbounded, for Market) summing remaining volume, without
// mutating any state, and reports whether base is fully coverable (§4.2).
func (b *OrderBook) CheckFOKLiquidity(takerSide domain.Side, limitPrice decimal.Decimal, hasLimit bool, base decimal.Decimal) bool {
	opposite := takerSide.Opposite()
	tree := b.treeFor(opposite)
	covered := decimal.Zero(b.Scale)

	walk := tree.walkAscending
	if opposite == domain.Bid {
		walk = tree.walkDescending
	}

	walk(func(level *PriceLevel) bool {
		if hasLimit {
			if takerSide == domain.Bid && decimal.Cmp(level.Price, limitPrice) > 0 {
				return false
			}
			if takerSide == domain.Ask && decimal.Cmp(level.Price, limitPrice) < 0 {
				return false
			}
		}
		covered = decimal.Add(covered, level.TotalVolume)
		return decimal.Cmp(covered, base) < 0
	})

	return decimal.Cmp(covered, base) >= 0
}

// Walk visits every level on a side in selection order (best price first):
// descending for bids, ascending for asks.
func (b *OrderBook) Walk(side domain.Side, fn func(*PriceLevel) bool) {
	tree := b.treeFor(side)
	if side == domain.Bid {
		tree.walkDescending(fn)
		return
	}
	tree.walkAscending(fn)
}

// LevelCount reports how many distinct price levels exist on a side, used
// by invariant checks and tests.
func (b *OrderBook) LevelCount(side domain.Side) int { return b.treeFor(side).Size() }

func (b *OrderBook) refreshBestOnInsert(side domain.Side, price decimal.Decimal) {
	if side == domain.Bid {
		if !b.hasBestBid || decimal.Cmp(price, b.bestBid) > 0 {
			b.bestBid = price
			b.hasBestBid = true
		}
		return
	}
	if !b.hasBestAsk || decimal.Cmp(price, b.bestAsk) < 0 {
		b.bestAsk = price
		b.hasBestAsk = true
	}
}

// refreshBestOnRemoveExtremum recomputes the cached best price after a
// level is dropped, only doing the O(log n) tree-min/max lookup when the
// removed level was itself the cached extremum.
func (b *OrderBook) refreshBestOnRemoveExtremum(side domain.Side, removedPrice decimal.Decimal) {
	if side == domain.Bid {
		if b.hasBestBid && decimal.Equal(removedPrice, b.bestBid) {
			if top := b.bids.max(); top != nil {
				b.bestBid = top.Price
				b.hasBestBid = true
			} else {
				b.hasBestBid = false
			}
		}
		return
	}
	if b.hasBestAsk && decimal.Equal(removedPrice, b.bestAsk) {
		if top := b.asks.min(); top != nil {
			b.bestAsk = top.Price
			b.hasBestAsk = true
		} else {
			b.hasBestAsk = false
		}
	}
}
