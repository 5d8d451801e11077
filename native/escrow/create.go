package escrow

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"gitbounty/native/common"
	"gitbounty/native/system"
)

var errNoRuntime = errors.New("escrow: invocation context lacks rent or invoker")

// CreateEscrow validates the request, allocates the escrow account through
// the system program and writes the initial record.
//
// Accounts: [payer (signer, writable), escrow (writable), system program].
func (p *Program) CreateEscrow(ctx *common.InvokeContext, req CreateRequest) error {
	if req.Amount == 0 {
		ctx.Log("escrow: amount can not be zero")
		return ErrInvalidAmount
	}

	payer, err := ctx.Account(0)
	if err != nil {
		return err
	}
	escrowAcc, err := ctx.Account(1)
	if err != nil {
		return err
	}
	systemAcc, err := ctx.Account(2)
	if err != nil {
		return err
	}

	if !payer.IsSigner {
		ctx.Log("escrow: payer must sign", "payer", payer.Address.String())
		return ErrMissingSignature
	}

	expected, bump, err := DeriveAddress(p.id, req.RepoHash, req.IssueNumber)
	if err != nil {
		return fmt.Errorf("escrow: derive address: %w", err)
	}
	ctx.Log("escrow: derived address", "expected", expected.String(), "bump", bump, "match", expected == escrowAcc.Address)
	if expected != escrowAcc.Address {
		return ErrInvalidDerivedAddress
	}

	existing, err := ctx.Ledger.Lamports(escrowAcc.Address)
	if err != nil {
		return err
	}
	if existing > 0 {
		ctx.Log("escrow: account already holds lamports", "lamports", existing)
		return ErrEscrowExists
	}
	if systemAcc.Address != system.ProgramID {
		return ErrInvalidSystemProgram
	}

	if ctx.Rent == nil || ctx.Invoker == nil {
		return errNoRuntime
	}
	rentLamports := ctx.Rent.MinimumBalance(RecordLen)
	if rentLamports > math.MaxUint64-req.Amount {
		return ErrArithmeticOverflow
	}
	total := rentLamports + req.Amount
	ctx.Log("escrow: funding", "rent", rentLamports, "bounty", req.Amount, "total", total)

	seeds := append(Seeds(req.RepoHash, req.IssueNumber), []byte{bump})
	createIx := system.CreateAccount(payer.Address, escrowAcc.Address, total, RecordLen, p.id)
	if err := ctx.Invoker.InvokeSigned(createIx, [][][]byte{seeds}); err != nil {
		return fmt.Errorf("escrow: allocate escrow account: %w", err)
	}

	record := Record{
		Initialized: true,
		RepoHash:    req.RepoHash,
		IssueNumber: req.IssueNumber,
		Amount:      req.Amount,
	}
	encoded, err := record.MarshalBinary()
	if err != nil {
		return err
	}
	if err := ctx.Ledger.SetData(escrowAcc.Address, encoded); err != nil {
		return err
	}

	ctx.Log("escrow: created", "issue", req.IssueNumber, "amount", req.Amount, "repo_hash", hex.EncodeToString(req.RepoHash[:]))
	ctx.Emit(NewCreatedEvent(escrowAcc.Address, payer.Address, record))
	return nil
}
