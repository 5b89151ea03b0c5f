package querycache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cie10rag/internal/db"
)

// DefaultSnapshotKey is where snapshots are stored unless configured otherwise.
const DefaultSnapshotKey = "cie10rag:query_cache"

// store is the consumer interface for snapshot persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Persister moves cache snapshots to and from a blob store. Snapshot I/O runs
// outside the cache lock; only the in-memory copy is taken under it.
type Persister struct {
	cache  *Cache
	store  store
	key    string
	logger *zap.Logger
}

// NewPersister creates a Persister. An empty key selects DefaultSnapshotKey.
func NewPersister(cache *Cache, s store, key string, logger *zap.Logger) *Persister {
	if key == "" {
		key = DefaultSnapshotKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{cache: cache, store: s, key: key, logger: logger}
}

// Load restores the cache from the store and returns the number of entries
// restored. A missing snapshot is not an error. On any error the cache is left
// untouched.
func (p *Persister) Load(ctx context.Context) (int, error) {
	data, err := p.store.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			p.observe("load", "empty")
			return 0, nil
		}
		p.observe("load", "error")
		return 0, fmt.Errorf("read snapshot %s: %w", p.key, err)
	}

	entries, err := DecodeSnapshot(data)
	if err != nil {
		p.observe("load", "error")
		return 0, err
	}

	p.cache.Restore(entries)
	p.observe("load", "ok")
	return p.cache.Len(), nil
}

// Save writes the current cache contents to the store.
func (p *Persister) Save(ctx context.Context) error {
	data, err := EncodeSnapshot(p.cache.Snapshot())
	if err != nil {
		p.observe("save", "error")
		return err
	}
	if err := p.store.Set(ctx, p.key, data); err != nil {
		p.observe("save", "error")
		return fmt.Errorf("write snapshot %s: %w", p.key, err)
	}
	p.observe("save", "ok")
	return nil
}

// Run saves a snapshot every interval until ctx is cancelled. Failures are
// logged and retried on the next tick.
func (p *Persister) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Save(ctx); err != nil {
				p.logger.Warn("Query cache snapshot failed", zap.String("key", p.key), zap.Error(err))
				continue
			}
			p.logger.Debug("Query cache snapshot saved",
				zap.String("key", p.key), zap.Int("entries", p.cache.Len()))
		}
	}
}

func (p *Persister) observe(op, status string) {
	if m := p.cache.metrics; m.Snapshots != nil {
		m.Snapshots.WithLabelValues(op, status).Inc()
	}
}
