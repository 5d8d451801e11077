package system

import (
	"bytes"
	"errors"
	"testing"

	"gitbounty/core/types"
	"gitbounty/crypto"
	"gitbounty/native/common"
)

type mockLedger struct {
	accounts map[crypto.Address]*types.Account
}

func newMockLedger() *mockLedger {
	return &mockLedger{accounts: make(map[crypto.Address]*types.Account)}
}

func (m *mockLedger) get(addr crypto.Address) *types.Account {
	acc, ok := m.accounts[addr]
	if !ok {
		acc = &types.Account{}
		m.accounts[addr] = acc
	}
	return acc
}

func (m *mockLedger) Lamports(addr crypto.Address) (uint64, error) { return m.get(addr).Lamports, nil }
func (m *mockLedger) SetLamports(addr crypto.Address, v uint64) error {
	m.get(addr).Lamports = v
	return nil
}
func (m *mockLedger) Data(addr crypto.Address) ([]byte, error) { return m.get(addr).Data, nil }
func (m *mockLedger) SetData(addr crypto.Address, d []byte) error {
	m.get(addr).Data = append([]byte(nil), d...)
	return nil
}
func (m *mockLedger) Owner(addr crypto.Address) (crypto.Address, error) { return m.get(addr).Owner, nil }
func (m *mockLedger) SetOwner(addr, owner crypto.Address) error {
	m.get(addr).Owner = owner
	return nil
}

func newTestAddress(fill byte) crypto.Address {
	var addr crypto.Address
	copy(addr[:], bytes.Repeat([]byte{fill}, crypto.AddressLength))
	return addr
}

func invoke(t *testing.T, ledger *mockLedger, ix types.Instruction) error {
	t.Helper()
	ctx := &common.InvokeContext{ProgramID: ProgramID, Accounts: ix.Accounts, Ledger: ledger}
	return New().Process(ctx, ix.Data)
}

func TestCreateAccountAllocatesAndAssigns(t *testing.T) {
	ledger := newMockLedger()
	payer := newTestAddress(0x01)
	target := newTestAddress(0x02)
	owner := newTestAddress(0x03)
	ledger.get(payer).Lamports = 10_000

	if err := invoke(t, ledger, CreateAccount(payer, target, 4_000, 49, owner)); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if got := ledger.get(payer).Lamports; got != 6_000 {
		t.Fatalf("unexpected payer balance: %d", got)
	}
	acc := ledger.get(target)
	if acc.Lamports != 4_000 || len(acc.Data) != 49 || acc.Owner != owner {
		t.Fatalf("unexpected target account: %+v", acc)
	}
}

func TestCreateAccountRejectsExistingAccount(t *testing.T) {
	ledger := newMockLedger()
	payer := newTestAddress(0x01)
	target := newTestAddress(0x02)
	ledger.get(payer).Lamports = 10_000
	ledger.get(target).Lamports = 1

	err := invoke(t, ledger, CreateAccount(payer, target, 4_000, 49, newTestAddress(0x03)))
	if !errors.Is(err, ErrAccountAlreadyInUse) {
		t.Fatalf("expected ErrAccountAlreadyInUse, got %v", err)
	}
	if got := ledger.get(payer).Lamports; got != 10_000 {
		t.Fatalf("payer must not be debited, balance %d", got)
	}
}

func TestCreateAccountRequiresFundsAndSignatures(t *testing.T) {
	ledger := newMockLedger()
	payer := newTestAddress(0x01)
	target := newTestAddress(0x02)
	ledger.get(payer).Lamports = 100

	if err := invoke(t, ledger, CreateAccount(payer, target, 4_000, 49, newTestAddress(0x03))); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	ix := CreateAccount(payer, target, 10, 0, newTestAddress(0x03))
	ix.Accounts[1].IsSigner = false
	if err := invoke(t, ledger, ix); !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	ledger := newMockLedger()
	from := newTestAddress(0x01)
	to := newTestAddress(0x02)
	ledger.get(from).Lamports = 50

	if err := invoke(t, ledger, Transfer(from, to, 20)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if ledger.get(from).Lamports != 30 || ledger.get(to).Lamports != 20 {
		t.Fatalf("unexpected balances: from=%d to=%d", ledger.get(from).Lamports, ledger.get(to).Lamports)
	}

	ledger.get(from).Owner = newTestAddress(0x09)
	if err := invoke(t, ledger, Transfer(from, to, 1)); !errors.Is(err, ErrInvalidSourceOwner) {
		t.Fatalf("expected ErrInvalidSourceOwner, got %v", err)
	}
}

func TestProcessRejectsMalformedData(t *testing.T) {
	ledger := newMockLedger()
	for _, data := range [][]byte{nil, {0x00}, {0x07, 0, 0, 0}, {0x02, 0, 0, 0, 1}} {
		ctx := &common.InvokeContext{Ledger: ledger}
		if err := New().Process(ctx, data); !errors.Is(err, ErrInvalidInstruction) {
			t.Fatalf("data %x: expected ErrInvalidInstruction, got %v", data, err)
		}
	}
}

func TestMissingAccounts(t *testing.T) {
	ix := Transfer(newTestAddress(1), newTestAddress(2), 1)
	ix.Accounts = ix.Accounts[:1]
	if err := invoke(t, newMockLedger(), ix); !errors.Is(err, common.ErrNotEnoughAccounts) {
		t.Fatalf("expected ErrNotEnoughAccounts, got %v", err)
	}
}
