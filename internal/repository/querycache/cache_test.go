package querycache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, high, low int) *Cache {
	t.Helper()
	c, err := New(Config{HighWater: high, LowWater: low}, nil)
	require.NoError(t, err)
	return c
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, Config{HighWater: 5, LowWater: 5}.Validate())
	assert.Error(t, Config{HighWater: 0, LowWater: 0}.Validate())
	assert.Error(t, Config{HighWater: 5, LowWater: 6}.Validate())
	assert.Error(t, Config{HighWater: 5, LowWater: 0}.Validate())

	_, err := New(Config{HighWater: 1, LowWater: 2}, nil)
	assert.Error(t, err)
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, KeyFor("Diabetes  Mellitus", "gemma3:4b"), KeyFor("diabetes mellitus.", "gemma3:4b"))
	assert.NotEqual(t, KeyFor("diabetes", "gemma3:4b"), KeyFor("diabetes", "gpt-4o-mini"))
	assert.NotEqual(t, KeyFor("diabetes", "x"), KeyFor("diabetesx", ""))
	assert.Len(t, KeyFor("q", "m").String(), 2*KeySize)
}

func TestCache_GetPut(t *testing.T) {
	c := newCache(t, 10, 5)

	_, ok := c.Get("neumonia", "gemma3:4b")
	assert.False(t, ok)

	c.Put("neumonia", "gemma3:4b", []byte(`{"code":"J18.9"}`))
	got, ok := c.Get("NEUMONIA", "gemma3:4b")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"code":"J18.9"}`), got)

	_, ok = c.Get("neumonia", "gpt-4o")
	assert.False(t, ok)

	st := c.Stats()
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(2), st.Misses)
	assert.InDelta(t, 1.0/3.0, st.HitRate(), 1e-12)
}

func TestCache_PutClonesValue(t *testing.T) {
	c := newCache(t, 10, 5)
	v := []byte("abc")
	c.Put("q", "m", v)
	v[0] = 'x'

	got, ok := c.Get("q", "m")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
}

func TestCache_EvictsToLowWater(t *testing.T) {
	c := newCache(t, 4, 2)
	for i := 1; i <= 4; i++ {
		c.Put(fmt.Sprintf("q%d", i), "m", []byte{byte(i)})
	}
	assert.Equal(t, 4, c.Len(), "high water itself is allowed")

	c.Put("q5", "m", []byte{5})
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, uint64(3), c.Stats().Evictions)

	for _, q := range []string{"q1", "q2", "q3"} {
		_, ok := c.Get(q, "m")
		assert.False(t, ok, q)
	}
	for _, q := range []string{"q4", "q5"} {
		_, ok := c.Get(q, "m")
		assert.True(t, ok, q)
	}
}

func TestCache_DefaultBounds(t *testing.T) {
	c, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	for i := range 1000 {
		c.Put(fmt.Sprintf("query %d", i), "m", []byte("v"))
	}
	assert.Equal(t, 1000, c.Len())

	c.Put("query 1000", "m", []byte("v"))
	assert.Equal(t, 500, c.Len())

	_, ok := c.Get("query 500", "m")
	assert.False(t, ok, "oldest half evicted")
	_, ok = c.Get("query 501", "m")
	assert.True(t, ok)
}

func TestCache_OverwriteMovesToBack(t *testing.T) {
	c := newCache(t, 3, 2)
	c.Put("a", "m", []byte("1"))
	c.Put("b", "m", []byte("1"))
	c.Put("c", "m", []byte("1"))
	c.Put("a", "m", []byte("2"))
	assert.Equal(t, 3, c.Len())

	c.Put("d", "m", []byte("1"))
	require.Equal(t, 2, c.Len())

	got, ok := c.Get("a", "m")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), got)
	_, ok = c.Get("d", "m")
	assert.True(t, ok)
	_, ok = c.Get("b", "m")
	assert.False(t, ok)
}

func TestCache_SnapshotRestore(t *testing.T) {
	c := newCache(t, 10, 5)
	c.Put("a", "m", []byte("1"))
	c.Put("b", "m", []byte("2"))
	c.Put("a", "m", []byte("3"))

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, KeyFor("b", "m"), snap[0].Key)
	assert.Equal(t, KeyFor("a", "m"), snap[1].Key)
	assert.Less(t, snap[0].Seq, snap[1].Seq)

	restored := newCache(t, 10, 5)
	restored.Restore(snap)
	assert.Equal(t, snap, restored.Snapshot())

	// new puts continue after the restored sequence
	restored.Put("c", "m", []byte("4"))
	after := restored.Snapshot()
	assert.Greater(t, after[2].Seq, snap[1].Seq)
}

func TestCache_RestoreOrdersAndTrims(t *testing.T) {
	c := newCache(t, 3, 2)
	entries := []Entry{
		{Key: KeyFor("d", "m"), Value: []byte("d"), Seq: 4},
		{Key: KeyFor("a", "m"), Value: []byte("a"), Seq: 1},
		{Key: KeyFor("c", "m"), Value: []byte("c"), Seq: 3},
		{Key: KeyFor("b", "m"), Value: []byte("b"), Seq: 2},
	}
	c.Restore(entries)

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, uint64(3), snap[0].Seq)
	assert.Equal(t, uint64(4), snap[1].Seq)
}

func TestCache_RestoreDuplicateKeys(t *testing.T) {
	c := newCache(t, 10, 5)
	k := KeyFor("a", "m")
	c.Restore([]Entry{
		{Key: k, Value: []byte("new"), Seq: 7},
		{Key: k, Value: []byte("old"), Seq: 2},
	})

	require.Equal(t, 1, c.Len())
	got, _ := c.GetKey(k)
	assert.Equal(t, []byte("new"), got)
}

func TestCache_Concurrent(t *testing.T) {
	c := newCache(t, 100, 50)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				q := fmt.Sprintf("w%d-%d", w, i%150)
				if _, ok := c.Get(q, "m"); !ok {
					c.Put(q, "m", []byte(q))
				}
				if i%50 == 0 {
					_ = c.Snapshot()
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 100)
	st := c.Stats()
	assert.Equal(t, uint64(8*500), st.Hits+st.Misses)
}

func TestCache_Metrics(t *testing.T) {
	m := &Metrics{
		Lookups:   prometheus.NewCounterVec(prometheus.CounterOpts{Name: "lookups"}, []string{"result"}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{Name: "evictions"}),
		Entries:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "entries"}),
	}
	c, err := New(Config{HighWater: 2, LowWater: 1}, m)
	require.NoError(t, err)

	c.Put("a", "m", nil)
	c.Put("b", "m", nil)
	c.Put("c", "m", nil)
	c.Get("c", "m")
	c.Get("a", "m")

	assert.InDelta(t, 1, testutil.ToFloat64(m.Lookups.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Lookups.WithLabelValues("miss")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Evictions), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Entries), 0)
}
