package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Database {
	t.Helper()
	dir := t.TempDir()

	level, err := NewLevelDB(filepath.Join(dir, "level"))
	require.NoError(t, err)
	t.Cleanup(level.Close)

	bolt, err := NewBoltDB(filepath.Join(dir, "ledger.db"), nil)
	require.NoError(t, err)
	t.Cleanup(bolt.Close)

	return map[string]Database{
		"mem":     NewMemDB(),
		"leveldb": level,
		"bolt":    bolt,
	}
}

func TestDatabaseContract(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			key := []byte("account:alice")

			_, err := db.Get(key)
			require.ErrorIs(t, err, ErrNotFound)
			ok, err := db.Has(key)
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, db.Put(key, []byte{1, 2, 3}))
			got, err := db.Get(key)
			require.NoError(t, err)
			require.Equal(t, []byte{1, 2, 3}, got)

			ok, err = db.Has(key)
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, db.Delete(key))
			_, err = db.Get(key)
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	value := []byte{9, 9}
	require.NoError(t, db.Put([]byte("k"), value))
	value[0] = 0

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{9, 9}, got)
	require.Equal(t, 1, db.Len())
}

func TestLevelDBPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, db1.Put([]byte("key"), []byte("value")))
	db1.Close()

	db2, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
}

func TestBatchAppliesAllOperations(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, db.Put([]byte("stale"), []byte{1}))

			batch := db.NewBatch()
			require.NoError(t, batch.Put([]byte("a"), []byte{0xaa}))
			require.NoError(t, batch.Put([]byte("b"), []byte{0xbb}))
			require.NoError(t, batch.Delete([]byte("stale")))
			require.Equal(t, 3, batch.Len())

			_, err := db.Get([]byte("a"))
			require.ErrorIs(t, err, ErrNotFound, "staged writes stay invisible until Write")

			require.NoError(t, batch.Write())
			got, err := db.Get([]byte("a"))
			require.NoError(t, err)
			require.Equal(t, []byte{0xaa}, got)
			got, err = db.Get([]byte("b"))
			require.NoError(t, err)
			require.Equal(t, []byte{0xbb}, got)
			ok, err := db.Has([]byte("stale"))
			require.NoError(t, err)
			require.False(t, ok)

			require.ErrorIs(t, batch.Put([]byte("c"), nil), ErrBatchWritten)
			require.ErrorIs(t, batch.Write(), ErrBatchWritten)
		})
	}
}

func TestMemBatchCopiesValues(t *testing.T) {
	db := NewMemDB()
	batch := db.NewBatch()
	value := []byte{7}
	require.NoError(t, batch.Put([]byte("k"), value))
	value[0] = 0
	require.NoError(t, batch.Write())

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{7}, got)
}
