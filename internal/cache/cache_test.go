package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "arxiv:graph networks", Key("arxiv", "graph networks"))
	assert.Equal(t, "ai_response:query:10", Key("ai_response", "query", "10"))
	assert.Equal(t, "search_terms", Key("search_terms"))
	assert.NotEqual(t, Key("arxiv", "x"), Key("pubmed", "x"))
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})
	stats := c.Stats()
	assert.Equal(t, DefaultMaxEntries, stats.MaxEntries)
	assert.Equal(t, DefaultTTL, stats.TTL)
	assert.Equal(t, 0, stats.Size)
}

func TestCache_GetSet(t *testing.T) {
	c := New(DefaultConfig())

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []string{"a", "b"})
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)
	assert.True(t, c.Has("k"))

	typed, ok := GetAs[[]string](c, "k")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, typed)

	_, ok = GetAs[int](c, "k")
	assert.False(t, ok, "type mismatch reports absence")
}

func TestCache_Expiry(t *testing.T) {
	t.Run("value with one second ttl expires after 1.1s", func(t *testing.T) {
		clock := newFakeClock()
		c := New(DefaultConfig(), WithClock(clock.Now))

		c.SetWithTTL("short", "v", time.Second)
		assert.True(t, c.Has("short"))

		clock.Advance(1100 * time.Millisecond)
		_, ok := c.Get("short")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len(), "expired entry is deleted lazily on get")
	})

	t.Run("entry is still live exactly at its deadline", func(t *testing.T) {
		clock := newFakeClock()
		c := New(DefaultConfig(), WithClock(clock.Now))

		c.SetWithTTL("k", "v", time.Second)
		clock.Advance(time.Second)
		assert.True(t, c.Has("k"))
	})

	t.Run("default ttl applies without override", func(t *testing.T) {
		clock := newFakeClock()
		c := New(Config{MaxEntries: 10, TTL: time.Minute}, WithClock(clock.Now))

		c.Set("k", "v")
		clock.Advance(59 * time.Second)
		assert.True(t, c.Has("k"))
		clock.Advance(2 * time.Second)
		assert.False(t, c.Has("k"))
	})

	t.Run("real clock", func(t *testing.T) {
		c := New(DefaultConfig())
		c.SetWithTTL("k", "v", 50*time.Millisecond)
		assert.True(t, c.Has("k"))
		time.Sleep(80 * time.Millisecond)
		assert.False(t, c.Has("k"))
	})
}

func TestCache_FIFOEviction(t *testing.T) {
	t.Run("one entry past capacity evicts the earliest insertion", func(t *testing.T) {
		var evicted []string
		c := New(Config{MaxEntries: 3, TTL: time.Hour}, WithEvictionHook(func(key string) {
			evicted = append(evicted, key)
		}))

		c.Set("a", 1)
		c.Set("b", 2)
		c.Set("c", 3)
		c.Set("d", 4)

		assert.False(t, c.Has("a"))
		assert.True(t, c.Has("b"))
		assert.True(t, c.Has("c"))
		assert.True(t, c.Has("d"))
		assert.Equal(t, []string{"a"}, evicted)
		assert.Equal(t, 3, c.Len())
	})

	t.Run("reads do not protect an entry from eviction", func(t *testing.T) {
		c := New(Config{MaxEntries: 2, TTL: time.Hour})

		c.Set("a", 1)
		c.Set("b", 2)
		for i := 0; i < 5; i++ {
			c.Get("a")
		}
		c.Set("c", 3)

		assert.False(t, c.Has("a"), "FIFO, not LRU")
		assert.True(t, c.Has("b"))
		assert.True(t, c.Has("c"))
	})

	t.Run("overwriting an existing key does not evict", func(t *testing.T) {
		c := New(Config{MaxEntries: 2, TTL: time.Hour})

		c.Set("a", 1)
		c.Set("b", 2)
		c.Set("a", 10)

		assert.Equal(t, 2, c.Len())
		v, _ := c.Get("a")
		assert.Equal(t, 10, v)

		// a was re-inserted, so b is now the oldest.
		c.Set("c", 3)
		assert.False(t, c.Has("b"))
		assert.True(t, c.Has("a"))
	})

	t.Run("evicts the earliest surviving entry after deletes", func(t *testing.T) {
		c := New(Config{MaxEntries: 3, TTL: time.Hour})

		c.Set("a", 1)
		c.Set("b", 2)
		c.Set("c", 3)
		require.True(t, c.Delete("a"))
		c.Set("d", 4)
		c.Set("e", 5)

		assert.False(t, c.Has("b"))
		assert.True(t, c.Has("c"))
		assert.True(t, c.Has("d"))
		assert.True(t, c.Has("e"))
	})
}

func TestCache_Delete(t *testing.T) {
	c := New(DefaultConfig())
	c.Set("k", "v")

	assert.True(t, c.Delete("k"))
	assert.False(t, c.Delete("k"))
	assert.False(t, c.Has("k"))
}

func TestCache_Cleanup(t *testing.T) {
	clock := newFakeClock()
	c := New(DefaultConfig(), WithClock(clock.Now))

	c.SetWithTTL("short-1", 1, time.Second)
	c.SetWithTTL("short-2", 2, time.Second)
	c.SetWithTTL("long", 3, time.Hour)
	clock.Advance(2 * time.Second)

	assert.Equal(t, 3, c.Len(), "expired entries linger until swept")
	assert.Equal(t, 2, c.Cleanup())
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Has("long"))

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(Config{MaxEntries: 50, TTL: time.Hour})

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i%70)
				c.Set(key, i)
				c.Get(key)
				if i%10 == 0 {
					c.Delete(key)
				}
				if i%50 == 0 {
					c.Cleanup()
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 50)
	assert.Equal(t, len(c.entries), c.order.Len(), "index and order list stay in sync")
}

func TestSweeper(t *testing.T) {
	t.Run("invalid schedule is rejected", func(t *testing.T) {
		_, err := NewSweeper(New(DefaultConfig()), "not a schedule", zerolog.Nop())
		require.Error(t, err)
	})

	t.Run("sweep removes expired entries", func(t *testing.T) {
		clock := newFakeClock()
		c := New(DefaultConfig(), WithClock(clock.Now))
		c.SetWithTTL("k", "v", time.Second)
		clock.Advance(5 * time.Second)

		s, err := NewSweeper(c, "", zerolog.Nop())
		require.NoError(t, err)
		s.sweep()

		assert.Equal(t, 0, c.Len())
	})

	t.Run("start and stop", func(t *testing.T) {
		s, err := NewSweeper(New(DefaultConfig()), "@every 1h", zerolog.Nop())
		require.NoError(t, err)
		s.Start()
		s.Stop()
	})
}
