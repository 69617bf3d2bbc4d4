// Package cache provides the bounded, expiring key/value store shared by the
// term generator and the paper providers.
//
// Eviction is insertion-order FIFO, not LRU: reading an entry never changes its
// position. Expired entries are logically absent as soon as their deadline passes
// and are physically removed lazily by Get or in bulk by Cleanup.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// Default limits.
const (
	DefaultMaxEntries = 1000
	DefaultTTL        = 3600 * time.Second
)

// KeyDelimiter separates the namespace prefix and arguments in cache keys.
const KeyDelimiter = ":"

// Config holds the cache limits.
type Config struct {
	// MaxEntries bounds the number of stored entries.
	MaxEntries int

	// TTL is the default time-to-live applied when Set is called without an override.
	TTL time.Duration
}

// DefaultConfig returns the default cache limits.
func DefaultConfig() Config {
	return Config{
		MaxEntries: DefaultMaxEntries,
		TTL:        DefaultTTL,
	}
}

// Stats is a point-in-time snapshot of the cache limits and occupancy.
type Stats struct {
	Size       int           `json:"size"`
	MaxEntries int           `json:"maxEntries"`
	TTL        time.Duration `json:"ttl"`
}

// Entry is a stored value with its absolute expiry.
type Entry struct {
	Key       string
	Value     any
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (e *Entry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithEvictionHook registers a callback invoked with the key of every entry
// removed to make room for a new one. The hook runs with the cache lock held
// and must not call back into the cache.
func WithEvictionHook(fn func(key string)) Option {
	return func(c *Cache) {
		c.onEvict = fn
	}
}

// Cache is a bounded TTL cache safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = oldest insertion
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	onEvict    func(key string)
}

// New creates a cache. Non-positive limits fall back to the defaults.
func New(cfg Config, opts ...Option) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	c := &Cache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key joins a namespace prefix and ordered arguments into a cache key,
// e.g. Key("arxiv", "graph networks") == "arxiv:graph networks".
func Key(prefix string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, prefix)
	parts = append(parts, args...)
	return strings.Join(parts, KeyDelimiter)
}

// Get returns the value stored under key. Expired entries are deleted and
// reported as absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*Entry)
	if entry.expired(c.now()) {
		c.removeElement(elem)
		return nil, false
	}
	return entry.Value, true
}

// GetAs returns the value stored under key when present and of type T.
func GetAs[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores value under key with the cache-wide TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key, expiring after ttl. A non-positive ttl
// uses the cache-wide default.
//
// Re-setting an existing key counts as a fresh insertion: the entry moves to the
// newest position and its expiry restarts. It never triggers an eviction.
// Inserting a new key into a full cache first evicts the oldest inserted entry.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*Entry)
		entry.Value = value
		entry.CreatedAt = now
		entry.ExpiresAt = now.Add(ttl)
		c.order.MoveToBack(elem)
		return
	}

	for c.order.Len() >= c.maxEntries {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
		if c.onEvict != nil {
			c.onEvict(oldest.Value.(*Entry).Key)
		}
	}

	c.entries[key] = c.order.PushBack(&Entry{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
}

// Has reports whether a live entry exists for key.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key and reports whether it was physically present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Cleanup sweeps every expired entry and returns how many were removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*Entry).expired(now) {
			c.removeElement(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// Len returns the number of physically stored entries, including expired
// entries that have not been swept yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats sweeps expired entries and returns the current occupancy and limits.
func (c *Cache) Stats() Stats {
	c.Cleanup()

	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:       c.order.Len(),
		MaxEntries: c.maxEntries,
		TTL:        c.ttl,
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*Entry).Key)
}
