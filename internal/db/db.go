// Package db defines the blob storage contract used for query cache snapshots
// and the sentinel errors its backends share.
package db

import "context"

// Store is the storage facade every snapshot backend implements.
type Store interface {
	Pinger
	KVStore
	Close() error
}

// Pinger checks backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations over opaque blobs.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}
