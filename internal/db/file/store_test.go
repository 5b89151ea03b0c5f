package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/cie10rag/internal/db"
)

func TestStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "cie10rag:query_cache", []byte("v1")))
	got, err := s.Get(ctx, "cie10rag:query_cache")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Set(ctx, "cie10rag:query_cache", []byte("v2")))
	got, err = s.Get(ctx, "cie10rag:query_cache")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestStore_GetMissing(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, db.ErrKeyNotFound)
}

func TestStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "snap", []byte("data")))

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestStore_Del(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Del(ctx, "k"))
	require.NoError(t, s.Del(ctx, "k"))

	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, db.ErrKeyNotFound)
}

func TestStore_InvalidKey(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		err := s.Set(context.Background(), key, []byte("x"))
		assert.True(t, errors.Is(err, db.ErrInvalidKey), "key %q: %v", key, err)
	}
}

func TestStore_Ping(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, s.Ping(context.Background()))
}

func TestNewStore_EmptyDir(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}
