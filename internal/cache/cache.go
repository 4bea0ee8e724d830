// Package cache implements the bounded in-process memory tier.
package cache

import (
	"sync"
	"time"

	"geocache/internal/models"
)

// entry is one cached record with its position in the recency list.
type entry struct {
	key        string
	record     *models.Record
	insertedAt time.Time
	prev, next *entry
}

// Cache is a bounded LRU cache with per-entry TTL. Reads refresh recency;
// expired entries are removed lazily on Get and proactively by Sweep.
// All methods are safe for concurrent use and never block on I/O.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	head     *entry // most recently used
	tail     *entry // least recently used
	capacity int
	ttl      time.Duration

	now func() time.Time // injectable for tests
}

// New creates a cache holding at most capacity entries, each living for ttl.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		entries:  make(map[string]*entry, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the cached record for key, if present and not expired.
// An expired entry is treated as a miss and removed.
func (c *Cache) Get(key string) (*models.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.unlink(e)
		delete(c.entries, key)
		return nil, false
	}
	c.moveToFront(e)
	return e.record, true
}

// Put stores a record for key, replacing any existing entry. When at
// capacity, the least recently used entry is evicted first, so the cache
// never exceeds its configured size.
func (c *Cache) Put(key string, record *models.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.record = record
		e.insertedAt = c.now()
		c.moveToFront(e)
		return
	}

	if len(c.entries) >= c.capacity && c.tail != nil {
		evicted := c.tail
		c.unlink(evicted)
		delete(c.entries, evicted.key)
	}

	e := &entry{key: key, record: record, insertedAt: c.now()}
	c.entries[key] = e
	c.pushFront(e)
}

// Remove deletes the entry for key, reporting whether it was present.
func (c *Cache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.unlink(e)
	delete(c.entries, key)
	return true
}

// Sweep removes every TTL-expired entry and returns how many were removed.
// Run periodically so memory stays bounded even under low read traffic.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.insertedAt) > c.ttl {
			c.unlink(e)
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear empties the cache and returns how many entries were removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]*entry, c.capacity)
	c.head = nil
	c.tail = nil
	return n
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (c *Cache) moveToFront(e *entry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}
