// Package memstore provides the in-memory keyed collections backing the
// planner's repositories. Entries live for the lifetime of the process.
package memstore

import "sync"

// Collection is a mutex-guarded map keyed by entity id. Iteration follows
// insertion order via a parallel index, so List results are deterministic
// instead of depending on map iteration.
//
// All access is serialized through the lock. The original behavior this
// replaces had no synchronization at all, so concurrent read-modify-write
// sequences against the same id can still interleave at the repository
// layer (last write wins); the lock only guarantees each single operation
// is atomic.
type Collection[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func NewCollection[T any]() *Collection[T] {
	return &Collection[T]{
		items: make(map[string]T),
	}
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[id]
	return v, ok
}

// Set inserts or replaces the entry for id. A new id is appended to the
// iteration order; replacing an existing id keeps its original position.
func (c *Collection[T]) Set(id string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		c.order = append(c.order, id)
	}
	c.items[id] = v
}

func (c *Collection[T]) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all entries in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes every entry. Used by tests to reset state between cases;
// nothing in the request path calls it.
func (c *Collection[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]T)
	c.order = nil
}
