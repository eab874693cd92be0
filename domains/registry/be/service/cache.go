package service

import (
	"sync"

	"github.com/clubreserve/clubreserve/platform/go/club"
)

// Cache is the in-process club lookup cache, keyed by short name. Entries
// have no TTL: they are dropped only by an explicit Invalidate after a
// club-mutating administrative action. The cache is a constructed object
// handed to the Service, never an ambient singleton.
type Cache struct {
	mu    sync.RWMutex
	items map[string]club.Club
}

// NewCache constructs an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]club.Club)}
}

// Get returns the cached club for shortName, if present.
func (c *Cache) Get(shortName string) (club.Club, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[shortName]
	return item, ok
}

// Put stores a club under its short name.
func (c *Cache) Put(item club.Club) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ShortName] = item
}

// Invalidate drops one entry.
func (c *Cache) Invalidate(shortName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, shortName)
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]club.Club)
}

// Len reports the number of cached clubs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
