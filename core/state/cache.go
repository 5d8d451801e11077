package state

import (
	"gitbounty/core/types"
	"gitbounty/crypto"
)

// Cache buffers account reads and writes for a single transaction. Nothing
// reaches the Manager until Commit; Discard drops every pending change.
type Cache struct {
	base     *Manager
	accounts map[crypto.Address]*types.Account
	order    []crypto.Address
}

// NewCache returns an empty overlay on top of base.
func NewCache(base *Manager) *Cache {
	return &Cache{base: base, accounts: make(map[crypto.Address]*types.Account)}
}

// Account returns the live cached copy for addr, loading it on first use.
// Callers mutate the returned pointer in place.
func (c *Cache) Account(addr crypto.Address) (*types.Account, error) {
	if acc, ok := c.accounts[addr]; ok {
		return acc, nil
	}
	acc, err := c.base.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	c.accounts[addr] = acc
	c.order = append(c.order, addr)
	return acc, nil
}

// Touched lists the addresses loaded into the cache in first-use order.
func (c *Cache) Touched() []crypto.Address {
	return append([]crypto.Address(nil), c.order...)
}

// Stage adds every touched account to b without writing anything.
func (c *Cache) Stage(b *Batch) error {
	for _, addr := range c.order {
		if err := b.PutAccount(addr, c.accounts[addr]); err != nil {
			return err
		}
	}
	return nil
}

// Commit writes every touched account back to the manager in one batch.
// The cache is only cleared once the batch has landed.
func (c *Cache) Commit() error {
	batch := c.base.NewBatch()
	if err := c.Stage(batch); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	c.Discard()
	return nil
}

// Discard forgets all pending changes.
func (c *Cache) Discard() {
	c.accounts = make(map[crypto.Address]*types.Account)
	c.order = nil
}
