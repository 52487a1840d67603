package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/netlogdiff/netlogdiff/pkg/storage"
)

func newDBStorage(t *testing.T) storage.Storage {
	t.Helper()
	bdb, err := bbolt.Open(filepath.Join(t.TempDir(), "db.bolt"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, bdb.Close()) })
	return storage.NewDBStorage(bdb, []byte("reports"))
}

func TestDBStoragePutGetDel(t *testing.T) {
	ctx := context.Background()
	s := newDBStorage(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, "abc", []byte("report body")))
	data, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("report body"), data)

	require.NoError(t, s.Del(ctx, "abc"))
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestContentIDIsStableAndShort(t *testing.T) {
	id1 := storage.ContentID([]byte("hello"))
	id2 := storage.ContentID([]byte("hello"))
	id3 := storage.ContentID([]byte("world"))

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Len(t, id1, 8)
}

func TestCachedStorageServesFromPermanentOnMiss(t *testing.T) {
	ctx := context.Background()
	permanent := newDBStorage(t)

	cacheDB, err := bbolt.Open(filepath.Join(t.TempDir(), "cache.bolt"), 0o600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, cacheDB.Close()) })
	cache := storage.NewDBStorage(cacheDB, []byte("cache")).(storage.ListStorage)

	cs, err := storage.NewCachedStorage(cache, permanent, 1<<20)
	require.NoError(t, err)

	require.NoError(t, cs.Put(ctx, "abc", []byte("report body")))
	data, err := cs.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("report body"), data)

	// Cache tier itself should now hold the object too.
	cached, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("report body"), cached)
}
