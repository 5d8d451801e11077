package state

import (
	"gitbounty/core/types"
	"gitbounty/crypto"
	"gitbounty/storage"
)

// Batch stages account, replay and KV writes against the manager's database.
// Nothing is visible until Write, which applies the whole set atomically.
type Batch struct {
	b storage.Batch
}

// NewBatch starts an empty write set.
func (m *Manager) NewBatch() *Batch {
	return &Batch{b: m.db.NewBatch()}
}

// PutAccount stages an account write, purging accounts without lamports.
func (b *Batch) PutAccount(addr crypto.Address, acc *types.Account) error {
	return putAccount(b.b, addr, acc)
}

// MarkProcessed stages the replay marker for a transaction digest.
func (b *Batch) MarkProcessed(digest []byte) error {
	return markProcessed(b.b, digest)
}

// KVPut stages an RLP encoded value under key.
func (b *Batch) KVPut(key []byte, value interface{}) error {
	return kvPut(b.b, key, value)
}

// KVDelete stages the removal of key.
func (b *Batch) KVDelete(key []byte) error {
	return kvDelete(b.b, key)
}

// Len reports the number of staged writes.
func (b *Batch) Len() int {
	return b.b.Len()
}

// Write applies every staged change in one storage write.
func (b *Batch) Write() error {
	return b.b.Write()
}
