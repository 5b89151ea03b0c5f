// Package querycache keeps generated responses keyed by (query, model) in a
// bounded FIFO cache that can be snapshotted to a blob store.
package querycache

import (
	"container/list"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Default bounds.
const (
	DefaultHighWater = 1000
	DefaultLowWater  = 500
)

// Config bounds the cache size. When Len exceeds HighWater after a Put, the
// oldest entries are dropped until Len equals LowWater.
type Config struct {
	HighWater int
	LowWater  int
}

// DefaultConfig returns the 1000/500 trimming bounds.
func DefaultConfig() Config {
	return Config{HighWater: DefaultHighWater, LowWater: DefaultLowWater}
}

// Validate checks 0 < LowWater <= HighWater.
func (c Config) Validate() error {
	if c.HighWater <= 0 {
		return fmt.Errorf("high_water must be positive, got %d", c.HighWater)
	}
	if c.LowWater <= 0 || c.LowWater > c.HighWater {
		return fmt.Errorf("low_water must be in [1, %d], got %d", c.HighWater, c.LowWater)
	}
	return nil
}

// Metrics are optional collectors updated by the cache. Nil fields are skipped.
type Metrics struct {
	Lookups   *prometheus.CounterVec // label "result": hit / miss
	Evictions prometheus.Counter
	Entries   prometheus.Gauge
	Snapshots *prometheus.CounterVec // labels "op", "status"
}

// Entry is one cached value with its insertion sequence number.
type Entry struct {
	Key   Key
	Value []byte
	Seq   uint64
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	HighWater int
	LowWater  int
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is safe for concurrent use. Reads share the lock; Put and Restore take
// it exclusively. Stored values must not be mutated by callers.
type Cache struct {
	cfg     Config
	metrics *Metrics

	mu    sync.RWMutex
	items map[Key]*list.Element // value: *Entry
	order *list.List            // front = oldest
	seq   uint64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates an empty cache. m can be nil.
func New(cfg Config, m *Metrics) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	if m == nil {
		m = &Metrics{}
	}
	return &Cache{
		cfg:     cfg,
		metrics: m,
		items:   make(map[Key]*list.Element),
		order:   list.New(),
	}, nil
}

// Get returns the value cached for (query, model).
func (c *Cache) Get(query, model string) ([]byte, bool) {
	return c.GetKey(KeyFor(query, model))
}

// GetKey looks up a precomputed key.
func (c *Cache) GetKey(k Key) ([]byte, bool) {
	c.mu.RLock()
	el, ok := c.items[k]
	var v []byte
	if ok {
		v = el.Value.(*Entry).Value
	}
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		c.observeLookup("hit")
		return v, true
	}
	c.misses.Add(1)
	c.observeLookup("miss")
	return nil, false
}

// Put inserts or overwrites the value for (query, model). An overwrite takes a
// fresh sequence number and moves to the back of the eviction queue.
func (c *Cache) Put(query, model string, value []byte) {
	c.PutKey(KeyFor(query, model), value)
}

// PutKey stores value under a precomputed key.
func (c *Cache) PutKey(k Key, value []byte) {
	v := slices.Clone(value)

	c.mu.Lock()
	c.seq++
	if el, ok := c.items[k]; ok {
		e := el.Value.(*Entry)
		e.Value = v
		e.Seq = c.seq
		c.order.MoveToBack(el)
	} else {
		c.items[k] = c.order.PushBack(&Entry{Key: k, Value: v, Seq: c.seq})
	}
	evicted := c.trimLocked()
	n := len(c.items)
	c.mu.Unlock()

	c.afterWrite(evicted, n)
}

// trimLocked evicts oldest entries down to LowWater once HighWater is exceeded.
func (c *Cache) trimLocked() int {
	if len(c.items) <= c.cfg.HighWater {
		return 0
	}
	evicted := 0
	for len(c.items) > c.cfg.LowWater {
		front := c.order.Front()
		c.order.Remove(front)
		delete(c.items, front.Value.(*Entry).Key)
		evicted++
	}
	return evicted
}

func (c *Cache) afterWrite(evicted, n int) {
	if evicted > 0 {
		c.evictions.Add(uint64(evicted)) //nolint:gosec // non-negative
		if c.metrics.Evictions != nil {
			c.metrics.Evictions.Add(float64(evicted))
		}
	}
	if c.metrics.Entries != nil {
		c.metrics.Entries.Set(float64(n))
	}
}

func (c *Cache) observeLookup(result string) {
	if c.metrics.Lookups != nil {
		c.metrics.Lookups.WithLabelValues(result).Inc()
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		HighWater: c.cfg.HighWater,
		LowWater:  c.cfg.LowWater,
	}
}

// Snapshot copies all entries, oldest first.
func (c *Cache) Snapshot() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, len(c.items))
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*Entry))
	}
	return out
}

// Restore replaces the cache contents with entries. Sequence numbers are kept,
// so FIFO order survives a restart; duplicate keys keep the higher sequence.
// Entries above HighWater are trimmed as if they had been Put.
func (c *Cache) Restore(entries []Entry) {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		default:
			return 0
		}
	})

	c.mu.Lock()
	c.items = make(map[Key]*list.Element, len(sorted))
	c.order.Init()
	c.seq = 0
	for i := range sorted {
		e := sorted[i]
		e.Value = slices.Clone(e.Value)
		if el, ok := c.items[e.Key]; ok {
			c.order.Remove(el)
		}
		c.items[e.Key] = c.order.PushBack(&e)
		c.seq = max(c.seq, e.Seq)
	}
	evicted := c.trimLocked()
	n := len(c.items)
	c.mu.Unlock()

	c.afterWrite(evicted, n)
}
