// Package cache provides the small read-side cache the server puts in front
// of wishlist overviews.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache bounds both entry count and entry age. Recency order lives in a
// doubly linked list; the map indexes list elements by key. Overviews change
// on every contribution, so the TTL is deliberately short and writers call
// Delete rather than waiting it out.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	byKey   map[string]*list.Element
	recency *list.List // front = most recently used
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		byKey:   make(map[string]*list.Element),
		recency: list.New(),
	}
}

// Get returns the cached value for key. A hit refreshes recency but not the
// TTL; an entry past its TTL is dropped on access and reported as a miss.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.byKey[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.evict(elem)
		return zero, false
	}
	c.recency.MoveToFront(elem)
	return e.value, true
}

// Set stores value under key, restarting its TTL. When the cache is full the
// least recently used entry makes room.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)
	if elem, ok := c.byKey[key]; ok {
		e := elem.Value.(*entry[T])
		e.value = value
		e.expiresAt = expiresAt
		c.recency.MoveToFront(elem)
		return
	}

	c.byKey[key] = c.recency.PushFront(&entry[T]{key: key, value: value, expiresAt: expiresAt})
	for c.recency.Len() > c.maxSize {
		c.evict(c.recency.Back())
	}
}

// Delete removes key if present. Writers use this to invalidate an overview
// the moment the underlying wishlist changes.
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.byKey[key]; ok {
		c.evict(elem)
	}
}

// Size returns the number of live entries, expired or not.
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recency.Len()
}

// CleanExpired sweeps out everything past its TTL and returns how many
// entries were dropped. Expiry is not ordered by recency (Get refreshes
// position but not TTL), so the whole list is scanned.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	dropped := 0
	elem := c.recency.Front()
	for elem != nil {
		next := elem.Next()
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			c.evict(elem)
			dropped++
		}
		elem = next
	}
	return dropped
}

func (c *LRUCache[T]) evict(elem *list.Element) {
	delete(c.byKey, elem.Value.(*entry[T]).key)
	c.recency.Remove(elem)
}
