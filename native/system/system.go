// Package system implements the built-in program that allocates accounts and
// moves lamports between key-controlled accounts.
package system

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"gitbounty/core/types"
	"gitbounty/crypto"
	"gitbounty/native/common"
)

// ProgramID is the identity of the system program and the default owner of
// every account that has not been assigned elsewhere.
var ProgramID = crypto.Address{}

const (
	InstructionCreateAccount uint32 = 0
	InstructionTransfer      uint32 = 2

	// MaxDataSize bounds the buffer CreateAccount will allocate.
	MaxDataSize uint64 = 10 * 1024 * 1024

	createAccountLen = 4 + 8 + 8 + crypto.AddressLength
	transferLen      = 4 + 8
)

var (
	ErrInvalidInstruction  = errors.New("system: invalid instruction data")
	ErrMissingSignature    = errors.New("system: missing required signature")
	ErrAccountAlreadyInUse = errors.New("system: account already in use")
	ErrInsufficientFunds   = errors.New("system: insufficient funds")
	ErrInvalidSourceOwner  = errors.New("system: source account not owned by system program")
	ErrInvalidDataSize     = errors.New("system: requested data size too large")
	ErrLamportOverflow     = errors.New("system: lamport overflow")
)

// CreateAccount builds an instruction allocating `to` with space bytes,
// funding it with lamports taken from `from` and assigning it to owner. Both
// accounts must sign; a program-derived `to` signs through seeds.
func CreateAccount(from, to crypto.Address, lamports, space uint64, owner crypto.Address) types.Instruction {
	data := make([]byte, createAccountLen)
	binary.LittleEndian.PutUint32(data[0:4], InstructionCreateAccount)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	binary.LittleEndian.PutUint64(data[12:20], space)
	copy(data[20:], owner[:])
	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(from, true),
			types.NewAccountMeta(to, true),
		},
		Data: data,
	}
}

// Transfer builds an instruction moving lamports between two accounts.
func Transfer(from, to crypto.Address, lamports uint64) types.Instruction {
	data := make([]byte, transferLen)
	binary.LittleEndian.PutUint32(data[0:4], InstructionTransfer)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return types.Instruction{
		ProgramID: ProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(from, true),
			types.NewAccountMeta(to, false),
		},
		Data: data,
	}
}

// Program is the system program.
type Program struct{}

func New() *Program { return &Program{} }

func (*Program) ID() crypto.Address { return ProgramID }

func (*Program) Name() string { return "system" }

// Process decodes the u32 discriminator and routes to the handler.
func (p *Program) Process(ctx *common.InvokeContext, data []byte) error {
	if len(data) < 4 {
		return ErrInvalidInstruction
	}
	switch binary.LittleEndian.Uint32(data[0:4]) {
	case InstructionCreateAccount:
		if len(data) != createAccountLen {
			return ErrInvalidInstruction
		}
		lamports := binary.LittleEndian.Uint64(data[4:12])
		space := binary.LittleEndian.Uint64(data[12:20])
		var owner crypto.Address
		copy(owner[:], data[20:])
		return p.createAccount(ctx, lamports, space, owner)
	case InstructionTransfer:
		if len(data) != transferLen {
			return ErrInvalidInstruction
		}
		return p.transfer(ctx, binary.LittleEndian.Uint64(data[4:12]))
	default:
		return ErrInvalidInstruction
	}
}

func (p *Program) createAccount(ctx *common.InvokeContext, lamports, space uint64, owner crypto.Address) error {
	from, err := ctx.Account(0)
	if err != nil {
		return err
	}
	to, err := ctx.Account(1)
	if err != nil {
		return err
	}
	if !from.IsSigner || !to.IsSigner {
		return ErrMissingSignature
	}
	if space > MaxDataSize {
		return ErrInvalidDataSize
	}

	toLamports, err := ctx.Ledger.Lamports(to.Address)
	if err != nil {
		return err
	}
	toData, err := ctx.Ledger.Data(to.Address)
	if err != nil {
		return err
	}
	toOwner, err := ctx.Ledger.Owner(to.Address)
	if err != nil {
		return err
	}
	if toLamports > 0 || len(toData) > 0 || toOwner != ProgramID {
		ctx.Log("create account: address already in use", "address", to.Address.String())
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, to.Address)
	}

	fromBalance, err := p.debitable(ctx, from.Address, lamports)
	if err != nil {
		return err
	}
	if err := ctx.Ledger.SetLamports(from.Address, fromBalance-lamports); err != nil {
		return err
	}
	if err := ctx.Ledger.SetLamports(to.Address, lamports); err != nil {
		return err
	}
	if err := ctx.Ledger.SetData(to.Address, make([]byte, space)); err != nil {
		return err
	}
	return ctx.Ledger.SetOwner(to.Address, owner)
}

func (p *Program) transfer(ctx *common.InvokeContext, lamports uint64) error {
	from, err := ctx.Account(0)
	if err != nil {
		return err
	}
	to, err := ctx.Account(1)
	if err != nil {
		return err
	}
	if !from.IsSigner {
		return ErrMissingSignature
	}
	fromBalance, err := p.debitable(ctx, from.Address, lamports)
	if err != nil {
		return err
	}
	toBalance, err := ctx.Ledger.Lamports(to.Address)
	if err != nil {
		return err
	}
	if from.Address == to.Address {
		return nil
	}
	if toBalance > math.MaxUint64-lamports {
		return ErrLamportOverflow
	}
	if err := ctx.Ledger.SetLamports(from.Address, fromBalance-lamports); err != nil {
		return err
	}
	return ctx.Ledger.SetLamports(to.Address, toBalance+lamports)
}

// debitable checks that addr is a plain system account holding at least
// lamports and returns its balance.
func (p *Program) debitable(ctx *common.InvokeContext, addr crypto.Address, lamports uint64) (uint64, error) {
	owner, err := ctx.Ledger.Owner(addr)
	if err != nil {
		return 0, err
	}
	if owner != ProgramID {
		return 0, ErrInvalidSourceOwner
	}
	balance, err := ctx.Ledger.Lamports(addr)
	if err != nil {
		return 0, err
	}
	if balance < lamports {
		ctx.Log("insufficient funds", "address", addr.String(), "balance", balance, "need", lamports)
		return 0, ErrInsufficientFunds
	}
	return balance, nil
}
