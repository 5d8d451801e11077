package runtime

import (
	"fmt"

	"gitbounty/core/state"
	"gitbounty/core/types"
	"gitbounty/crypto"
)

// ledgerView is the common.Ledger handed to one program invocation. It only
// exposes the accounts listed in the instruction and enforces the ownership
// rules: a program may debit, write data to or reassign only accounts it
// owns, and only when the account is writable.
type ledgerView struct {
	cache     *state.Cache
	programID crypto.Address
	metas     map[crypto.Address]types.AccountMeta
}

func newLedgerView(cache *state.Cache, programID crypto.Address, accounts []types.AccountMeta) *ledgerView {
	return &ledgerView{cache: cache, programID: programID, metas: mergeMetas(accounts)}
}

// mergeMetas indexes metas by address. An address listed twice carries the
// union of its privileges.
func mergeMetas(accounts []types.AccountMeta) map[crypto.Address]types.AccountMeta {
	out := make(map[crypto.Address]types.AccountMeta, len(accounts))
	for _, meta := range accounts {
		prev, ok := out[meta.Address]
		if ok {
			meta.IsSigner = meta.IsSigner || prev.IsSigner
			meta.IsWritable = meta.IsWritable || prev.IsWritable
		}
		out[meta.Address] = meta
	}
	return out
}

func (v *ledgerView) account(addr crypto.Address) (*types.Account, error) {
	if _, ok := v.metas[addr]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotListed, addr)
	}
	return v.cache.Account(addr)
}

func (v *ledgerView) writable(addr crypto.Address) (*types.Account, error) {
	acc, err := v.account(addr)
	if err != nil {
		return nil, err
	}
	if !v.metas[addr].IsWritable {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotWritable, addr)
	}
	return acc, nil
}

func (v *ledgerView) Lamports(addr crypto.Address) (uint64, error) {
	acc, err := v.account(addr)
	if err != nil {
		return 0, err
	}
	return acc.Lamports, nil
}

func (v *ledgerView) SetLamports(addr crypto.Address, lamports uint64) error {
	acc, err := v.writable(addr)
	if err != nil {
		return err
	}
	if lamports < acc.Lamports && acc.Owner != v.programID {
		return fmt.Errorf("%w: %s", ErrExternalLamportSpend, addr)
	}
	acc.Lamports = lamports
	return nil
}

func (v *ledgerView) Data(addr crypto.Address) ([]byte, error) {
	acc, err := v.account(addr)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), acc.Data...), nil
}

func (v *ledgerView) SetData(addr crypto.Address, data []byte) error {
	acc, err := v.writable(addr)
	if err != nil {
		return err
	}
	if acc.Owner != v.programID {
		return fmt.Errorf("%w: %s", ErrExternalDataModified, addr)
	}
	acc.Data = append([]byte(nil), data...)
	return nil
}

func (v *ledgerView) Owner(addr crypto.Address) (crypto.Address, error) {
	acc, err := v.account(addr)
	if err != nil {
		return crypto.Address{}, err
	}
	return acc.Owner, nil
}

func (v *ledgerView) SetOwner(addr, owner crypto.Address) error {
	acc, err := v.writable(addr)
	if err != nil {
		return err
	}
	if acc.Owner != v.programID {
		return fmt.Errorf("%w: %s", ErrExternalOwnerChange, addr)
	}
	acc.Owner = owner
	return nil
}
