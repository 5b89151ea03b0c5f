package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cie10rag/internal/db"
)

func TestStore_InMemory(t *testing.T) {
	ctx := context.Background()
	s, err := Open("", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(ctx))

	_, err = s.Get(ctx, "cie10rag:query_cache")
	require.ErrorIs(t, err, db.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "cie10rag:query_cache", []byte("snapshot")))
	got, err := s.Get(ctx, "cie10rag:query_cache")
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshot"), got)

	require.NoError(t, s.Del(ctx, "cie10rag:query_cache"))
	_, err = s.Get(ctx, "cie10rag:query_cache")
	assert.ErrorIs(t, err, db.ErrKeyNotFound)
}

func TestStore_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = Open(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestStore_PingAfterClose(t *testing.T) {
	s, err := Open("", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Ping(context.Background()), db.ErrClosed)
}

func TestStore_EmptyKey(t *testing.T) {
	s, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.ErrorIs(t, s.Set(context.Background(), "", []byte("v")), db.ErrInvalidKey)
}
