package memory

import "sync"

// Pool is a typed object pool built directly on sync.Pool.
type Pool[T any] struct {
	p *sync.Pool
}

// NewPool constructs a pool that allocates a fresh *T via ctor whenever it
// has none to reuse.
func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

// Get returns a recycled or freshly constructed *T.
func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

// Put returns v to the pool for reuse. Callers must not touch v again
// after calling Put.
func (p *Pool[T]) Put(v *T) {
	p.p.Put(v)
}
