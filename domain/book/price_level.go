// Package book implements the single-instrument order book: price levels
// ordered by a red-black tree, a FIFO queue per level, and an order index
// that gives the book O(1)-amortized cancellation (§4.1, §4.2).
package book

import (
	"matchengine/decimal"
	"matchengine/domain"
)

// node is a resting order's slot inside a PriceLevel's intrusive doubly
// linked list. The book's order index stores *node directly as its
// position hint (§4.1: "order id -> (side, price, position hint)"), so
// Cancel is a pointer-unlink, not a list search.
type node struct {
	order *domain.Order
	next  *node
	prev  *node
	level *PriceLevel
}

// PriceLevel is a time-ordered FIFO queue of resting orders at a single
// price, with a cached total volume and order count (§3, §4.1).
type PriceLevel struct {
	Price       decimal.Decimal
	head        *node
	tail        *node
	TotalVolume decimal.Decimal
	OrderCount  int
}

func newPriceLevel(price decimal.Decimal, scale int32) *PriceLevel {
	return &PriceLevel{Price: price, TotalVolume: decimal.Zero(scale)}
}

// append adds a node to the tail of the level (append-to-tail per §4.1) and
// updates the cached volume/count in O(1).
func (p *PriceLevel) append(n *node) {
	n.level = p
	if p.tail == nil {
		p.head = n
		p.tail = n
	} else {
		p.tail.next = n
		n.prev = p.tail
		p.tail = n
	}
	p.TotalVolume = decimal.Add(p.TotalVolume, n.order.Remaining)
	p.OrderCount++
}

// unlink removes n from the level's list in O(1) given the node pointer,
// which is exactly the position hint the order index carries.
func (p *PriceLevel) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		p.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		p.tail = n.prev
	}
	n.next = nil
	n.prev = nil
	n.level = nil
	p.TotalVolume = decimal.Sub(p.TotalVolume, n.order.Remaining)
	p.OrderCount--
}

// front returns the head node (the next one to trade against), or nil if
// the level is empty.
func (p *PriceLevel) front() *node { return p.head }

// empty reports whether the level has no resting orders left.
func (p *PriceLevel) empty() bool { return p.head == nil }

// decrementVolume adjusts the cached total volume after a partial fill of
// the head order, without moving its position (§4.1: "partial fills on the
// head order do not change position").
func (p *PriceLevel) decrementVolume(amount decimal.Decimal) {
	p.TotalVolume = decimal.Sub(p.TotalVolume, amount)
}

// Orders iterates the level's resting orders head-first (time order).
func (p *PriceLevel) Orders(fn func(*domain.Order) bool) {
	for n := p.head; n != nil; n = n.next {
		if !fn(n.order) {
			return
		}
	}
}
