package types

import "gitbounty/crypto"

// Account is the persisted form of a ledger account: a balance of native
// value units, the program that owns it and an opaque data buffer only the
// owner may write.
type Account struct {
	Lamports uint64         `json:"lamports"`
	Owner    crypto.Address `json:"owner"`
	Data     []byte         `json:"data"`
}

// Clone returns a deep copy so callers can mutate the result freely.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{}
	}
	clone := *a
	clone.Data = append([]byte(nil), a.Data...)
	return &clone
}

// IsEmpty reports whether the account is indistinguishable from one that was
// never allocated.
func (a *Account) IsEmpty() bool {
	return a == nil || (a.Lamports == 0 && len(a.Data) == 0 && a.Owner.IsZero())
}

// AccountMeta names an account passed to an instruction together with the
// privileges the caller claims for it.
type AccountMeta struct {
	Address    crypto.Address `json:"address"`
	IsSigner   bool           `json:"isSigner"`
	IsWritable bool           `json:"isWritable"`
}

// NewAccountMeta returns a meta for a writable account.
func NewAccountMeta(addr crypto.Address, signer bool) AccountMeta {
	return AccountMeta{Address: addr, IsSigner: signer, IsWritable: true}
}

// NewReadonlyAccountMeta returns a meta for an account the instruction only reads.
func NewReadonlyAccountMeta(addr crypto.Address, signer bool) AccountMeta {
	return AccountMeta{Address: addr, IsSigner: signer, IsWritable: false}
}
