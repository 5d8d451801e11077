package state

import (
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/rlp"

	"gitbounty/core/types"
	"gitbounty/crypto"
	"gitbounty/storage"
)

var ErrBalanceOverflow = errors.New("state: balance overflow")

// writer is the write half shared by storage.Database and storage.Batch.
type writer interface {
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

// Manager persists ledger accounts in a key/value database. Accounts are RLP
// encoded under keccak256("account:" || address).
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountKey(addr crypto.Address) []byte {
	buf := make([]byte, len(accountPrefix)+crypto.AddressLength)
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr[:])
	return crypto.Keccak256(buf)
}

func processedKey(digest []byte) []byte {
	buf := make([]byte, len(processedPrefix)+len(digest))
	copy(buf, processedPrefix)
	copy(buf[len(processedPrefix):], digest)
	return crypto.Keccak256(buf)
}

// GetAccount loads the account stored at addr. Unknown addresses resolve to
// an empty account owned by the system program.
func (m *Manager) GetAccount(addr crypto.Address) (*types.Account, error) {
	data, err := m.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return &types.Account{}, nil
	}
	if err != nil {
		return nil, err
	}
	acc := new(types.Account)
	if err := rlp.DecodeBytes(data, acc); err != nil {
		return nil, fmt.Errorf("state: decode account %s: %w", addr, err)
	}
	return acc, nil
}

// PutAccount writes the account. Accounts without lamports are purged, which
// is how released escrows disappear from the ledger.
func (m *Manager) PutAccount(addr crypto.Address, acc *types.Account) error {
	return putAccount(m.db, addr, acc)
}

func putAccount(w writer, addr crypto.Address, acc *types.Account) error {
	if acc == nil || acc.Lamports == 0 {
		return w.Delete(accountKey(addr))
	}
	encoded, err := rlp.EncodeToBytes(acc)
	if err != nil {
		return err
	}
	return w.Put(accountKey(addr), encoded)
}

// Credit mints lamports into an account. It backs the devnet faucet only;
// program execution never calls it.
func (m *Manager) Credit(addr crypto.Address, amount uint64) error {
	acc, err := m.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc.Lamports > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	acc.Lamports += amount
	return m.PutAccount(addr, acc)
}

// Processed reports whether a transaction digest has already been committed.
func (m *Manager) Processed(digest []byte) (bool, error) {
	return m.db.Has(processedKey(digest))
}

// MarkProcessed records a committed transaction digest.
func (m *Manager) MarkProcessed(digest []byte) error {
	return markProcessed(m.db, digest)
}

func markProcessed(w writer, digest []byte) error {
	return w.Put(processedKey(digest), []byte{1})
}
