package common

import (
	"errors"
	"fmt"
	"log/slog"

	"gitbounty/core/types"
	"gitbounty/crypto"
)

var ErrNotEnoughAccounts = errors.New("not enough account keys")

// Ledger is the account storage view handed to a program invocation. Only
// accounts listed in the instruction are reachable through it.
type Ledger interface {
	Lamports(addr crypto.Address) (uint64, error)
	SetLamports(addr crypto.Address, lamports uint64) error
	Data(addr crypto.Address) ([]byte, error)
	SetData(addr crypto.Address, data []byte) error
	Owner(addr crypto.Address) (crypto.Address, error)
	SetOwner(addr crypto.Address, owner crypto.Address) error
}

// RentCalculator yields the rent-exempt minimum for a buffer size.
type RentCalculator interface {
	MinimumBalance(size uint64) uint64
}

// Invoker performs cross-program invocations. Each entry of signerSeeds is
// the seed list, bump included, of an address derived from the calling
// program's id; the callee sees those addresses as signers.
type Invoker interface {
	InvokeSigned(ix types.Instruction, signerSeeds [][][]byte) error
}

// Program is a native program registered with the runtime.
type Program interface {
	ID() crypto.Address
	Name() string
	Process(ctx *InvokeContext, data []byte) error
}

// InvokeContext carries everything a single program invocation may use.
type InvokeContext struct {
	ProgramID crypto.Address
	Accounts  []types.AccountMeta
	Ledger    Ledger
	Rent      RentCalculator
	Invoker   Invoker
	Logger    *slog.Logger

	emit func(*types.Event)
}

// SetEmitter installs the sink used by Emit.
func (c *InvokeContext) SetEmitter(fn func(*types.Event)) { c.emit = fn }

// Account returns the i-th account meta.
func (c *InvokeContext) Account(i int) (types.AccountMeta, error) {
	if i < 0 || i >= len(c.Accounts) {
		return types.AccountMeta{}, fmt.Errorf("%w: need index %d, have %d", ErrNotEnoughAccounts, i, len(c.Accounts))
	}
	return c.Accounts[i], nil
}

// Log writes a best-effort diagnostic line. It never fails.
func (c *InvokeContext) Log(msg string, args ...any) {
	if c == nil || c.Logger == nil {
		return
	}
	c.Logger.Info(msg, args...)
}

// Emit queues an event for publication once the transaction commits.
func (c *InvokeContext) Emit(evt *types.Event) {
	if c == nil || c.emit == nil || evt == nil {
		return
	}
	c.emit(evt)
}
