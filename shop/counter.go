package shop

import (
	"sync"
)

// CartCounter is the cart-length indicator. Cart mutations set it from
// the cart the server returned, without waiting for a refetch.
type CartCounter struct {
	mu        sync.Mutex
	count     int
	listeners map[uint64]func(int)
	nextID    uint64
}

// NewCartCounter creates a counter at zero.
func NewCartCounter() *CartCounter {
	return &CartCounter{listeners: make(map[uint64]func(int))}
}

// Count returns the current number of cart lines.
func (c *CartCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Set replaces the count and notifies listeners when it changed.
func (c *CartCounter) Set(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	if n == c.count {
		c.mu.Unlock()
		return
	}
	c.count = n
	fns := make([]func(int), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

// OnChange registers fn and returns a function that removes it.
func (c *CartCounter) OnChange(fn func(int)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}
