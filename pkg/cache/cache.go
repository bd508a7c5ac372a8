package cache

import (
	"sync"

	"golang.org/x/exp/rand"
)

type Cache[K comparable, V any] struct {
	entries map[K]V
	mu      sync.RWMutex
}

func New[K comparable, V any]() *Cache[K, V] {
	c := &Cache[K, V]{
		mu:      sync.RWMutex{},
		entries: make(map[K]V),
	}
	return c
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

func (c *Cache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Compute replaces the entry for key with the result of fn while holding the lock.
// fn receives the current value and whether it was present.
func (c *Cache[K, V]) Compute(key K, fn func(current V, ok bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.entries[key]
	next := fn(current, ok)
	c.entries[key] = next
	return next
}

// DeleteIf removes the entry for key when match reports true for its value
func (c *Cache[K, V]) DeleteIf(key K, match func(V) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.entries[key]
	if !ok || !match(current) {
		return false
	}
	delete(c.entries, key)
	return true
}

// Sample returns up to n keys picked at random
func (c *Cache[K, V]) Sample(n int) []K {
	keys := c.Keys()
	if n >= len(keys) {
		return keys
	}
	rand.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
	return keys[:n]
}

func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]K, len(c.entries))
	i := 0
	for k := range c.entries {
		keys[i] = k
		i++
	}
	return keys
}
