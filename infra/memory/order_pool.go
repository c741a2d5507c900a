package memory

import "matchengine/domain"

// OrderPool recycles *domain.Order values across Place commands. The
// matcher overwrites every field when it builds an order; Put also zeroes
// the value before pooling it, so a recycled order carries no stale data.
type OrderPool struct {
	pool *Pool[domain.Order]
}

// NewOrderPool constructs an OrderPool.
func NewOrderPool() *OrderPool {
	return &OrderPool{pool: NewPool(func() *domain.Order { return &domain.Order{} })}
}

// Get returns a recycled or freshly allocated order.
func (p *OrderPool) Get() *domain.Order {
	return p.pool.Get()
}

// Put returns an order to the pool once it has reached a terminal status
// and every subscriber has observed its final snapshot.
func (p *OrderPool) Put(o *domain.Order) {
	*o = domain.Order{}
	p.pool.Put(o)
}
