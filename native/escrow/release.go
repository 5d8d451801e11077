package escrow

import (
	"fmt"
	"math"

	"gitbounty/crypto"
	"gitbounty/native/common"
)

// ReleaseEscrow pays the recorded amount to the recipient and returns the
// rent deposit to the authority, leaving the escrow account empty.
//
// Accounts: [escrow (writable), recipient (writable), authority (signer, writable)].
func (p *Program) ReleaseEscrow(ctx *common.InvokeContext, req ReleaseRequest) error {
	escrowAcc, err := ctx.Account(0)
	if err != nil {
		return err
	}
	recipient, err := ctx.Account(1)
	if err != nil {
		return err
	}
	authority, err := ctx.Account(2)
	if err != nil {
		return err
	}

	balance, err := ctx.Ledger.Lamports(escrowAcc.Address)
	if err != nil {
		return err
	}
	if balance == 0 {
		ctx.Log("escrow: already released", "escrow", escrowAcc.Address.String())
		return ErrAlreadyReleased
	}
	if !authority.IsSigner {
		ctx.Log("escrow: authority must sign", "authority", authority.Address.String())
		return ErrMissingSignature
	}

	expected, _, err := DeriveAddress(p.id, req.RepoHash, req.IssueNumber)
	if err != nil {
		return fmt.Errorf("escrow: derive address: %w", err)
	}
	if expected != escrowAcc.Address {
		ctx.Log("escrow: invalid escrow address", "expected", expected.String(), "got", escrowAcc.Address.String())
		return ErrInvalidDerivedAddress
	}

	owner, err := ctx.Ledger.Owner(escrowAcc.Address)
	if err != nil {
		return err
	}
	if owner != p.id {
		ctx.Log("escrow: account not owned by program", "owner", owner.String())
		return ErrNotOwnedByProgram
	}

	data, err := ctx.Ledger.Data(escrowAcc.Address)
	if err != nil {
		return err
	}
	var record Record
	if err := record.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("%w: %v", ErrUninitializedRecord, err)
	}
	if !record.Initialized {
		return ErrUninitializedRecord
	}
	if record.IssueNumber != req.IssueNumber {
		ctx.Log("escrow: issue number mismatch", "stored", record.IssueNumber, "requested", req.IssueNumber)
		return ErrIssueMismatch
	}
	if record.RepoHash != req.RepoHash {
		ctx.Log("escrow: repository hash mismatch")
		return ErrRepoHashMismatch
	}
	if recipient.Address == escrowAcc.Address || authority.Address == escrowAcc.Address {
		return ErrAccountAlias
	}

	plan, err := planRelease(ctx, balance, record.Amount, recipient.Address, authority.Address)
	if err != nil {
		return err
	}

	ctx.Log("escrow: releasing bounty", "lamports", record.Amount, "recipient", recipient.Address.String())
	if err := ctx.Ledger.SetLamports(escrowAcc.Address, plan.escrowAfterBounty); err != nil {
		return err
	}
	if err := ctx.Ledger.SetLamports(recipient.Address, plan.recipientAfter); err != nil {
		return err
	}

	// Whatever is left is the rent deposit; it goes back to the authority.
	if err := ctx.Ledger.SetLamports(escrowAcc.Address, 0); err != nil {
		return err
	}
	if err := ctx.Ledger.SetLamports(authority.Address, plan.authorityAfter); err != nil {
		return err
	}

	ctx.Log("escrow: closed, deposit returned to authority", "issue", record.IssueNumber, "refund", plan.remaining)
	ctx.Emit(NewReleasedEvent(escrowAcc.Address, recipient.Address, authority.Address, record, plan.remaining))
	return nil
}

type releasePlan struct {
	escrowAfterBounty uint64
	recipientAfter    uint64
	remaining         uint64
	authorityAfter    uint64
}

// planRelease computes every balance the release writes, so an overflow or
// underflow aborts before the first mutation. Recipient and authority may be
// the same account, in which case the deposit lands on top of the bounty.
func planRelease(ctx *common.InvokeContext, balance, amount uint64, recipient, authority crypto.Address) (releasePlan, error) {
	if balance < amount {
		return releasePlan{}, fmt.Errorf("%w: escrow holds %d, record promises %d", ErrArithmeticOverflow, balance, amount)
	}
	plan := releasePlan{escrowAfterBounty: balance - amount, remaining: balance - amount}

	recipientBalance, err := ctx.Ledger.Lamports(recipient)
	if err != nil {
		return releasePlan{}, err
	}
	if recipientBalance > math.MaxUint64-amount {
		return releasePlan{}, ErrArithmeticOverflow
	}
	plan.recipientAfter = recipientBalance + amount

	authorityBalance := plan.recipientAfter
	if authority != recipient {
		authorityBalance, err = ctx.Ledger.Lamports(authority)
		if err != nil {
			return releasePlan{}, err
		}
	}
	if authorityBalance > math.MaxUint64-plan.remaining {
		return releasePlan{}, ErrArithmeticOverflow
	}
	plan.authorityAfter = authorityBalance + plan.remaining
	return plan, nil
}
