package state

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"gitbounty/core/types"
	"gitbounty/crypto"
	"gitbounty/storage"
)

func testAddress(fill byte) crypto.Address {
	var addr crypto.Address
	copy(addr[:], bytes.Repeat([]byte{fill}, crypto.AddressLength))
	return addr
}

func TestManagerAccountRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	addr := testAddress(0x01)

	empty, err := mgr.GetAccount(addr)
	require.NoError(t, err)
	require.True(t, empty.IsEmpty())

	acc := &types.Account{Lamports: 500, Owner: testAddress(0x09), Data: []byte{1, 2, 3}}
	require.NoError(t, mgr.PutAccount(addr, acc))

	stored, err := mgr.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, acc, stored)
}

func TestManagerPurgesZeroLamportAccounts(t *testing.T) {
	db := storage.NewMemDB()
	mgr := NewManager(db)
	addr := testAddress(0x02)

	require.NoError(t, mgr.PutAccount(addr, &types.Account{Lamports: 1, Data: []byte{1}}))
	require.Equal(t, 1, db.Len())

	require.NoError(t, mgr.PutAccount(addr, &types.Account{Lamports: 0, Data: []byte{1}}))
	require.Equal(t, 0, db.Len())
}

func TestManagerCreditOverflow(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	addr := testAddress(0x03)
	require.NoError(t, mgr.Credit(addr, ^uint64(0)))
	require.ErrorIs(t, mgr.Credit(addr, 1), ErrBalanceOverflow)
}

func TestManagerProcessedDigests(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	digest := crypto.Keccak256([]byte("tx"))

	seen, err := mgr.Processed(digest)
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, mgr.MarkProcessed(digest))
	seen, err = mgr.Processed(digest)
	require.NoError(t, err)
	require.True(t, seen)
}

func TestCacheCommitAndDiscard(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	addr := testAddress(0x04)
	require.NoError(t, mgr.Credit(addr, 100))

	cache := NewCache(mgr)
	acc, err := cache.Account(addr)
	require.NoError(t, err)
	acc.Lamports = 40

	again, err := cache.Account(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(40), again.Lamports, "cache must hand back the same live copy")

	stored, err := mgr.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(100), stored.Lamports, "nothing reaches the manager before commit")

	cache.Discard()
	stored, err = mgr.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(100), stored.Lamports)

	acc, err = cache.Account(addr)
	require.NoError(t, err)
	acc.Lamports = 60
	require.Equal(t, []crypto.Address{addr}, cache.Touched())
	require.NoError(t, cache.Commit())

	stored, err = mgr.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(60), stored.Lamports)
}

func TestBatchStagesUntilWrite(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	addr := testAddress(0x05)
	digest := crypto.Keccak256([]byte("batched"))

	batch := mgr.NewBatch()
	require.NoError(t, batch.PutAccount(addr, &types.Account{Lamports: 7}))
	require.NoError(t, batch.MarkProcessed(digest))
	require.NoError(t, batch.KVPut([]byte("counter"), uint64(3)))
	require.Equal(t, 3, batch.Len())

	stored, err := mgr.GetAccount(addr)
	require.NoError(t, err)
	require.True(t, stored.IsEmpty())
	seen, err := mgr.Processed(digest)
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, batch.Write())
	stored, err = mgr.GetAccount(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(7), stored.Lamports)
	seen, err = mgr.Processed(digest)
	require.NoError(t, err)
	require.True(t, seen)
	var counter uint64
	ok, err := mgr.KVGet([]byte("counter"), &counter)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3), counter)
}
