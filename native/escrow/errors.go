package escrow

import (
	"errors"

	"gitbounty/native/common"
)

var (
	ErrMalformedRequest      = errors.New("escrow: malformed request")
	ErrInvalidAmount         = errors.New("escrow: amount must be non-zero")
	ErrMissingSignature      = errors.New("escrow: missing required signature")
	ErrInvalidDerivedAddress = errors.New("escrow: account is not the derived escrow address")
	ErrAlreadyReleased       = errors.New("escrow: already released")
	ErrNotOwnedByProgram     = errors.New("escrow: account not owned by program")
	ErrUninitializedRecord   = errors.New("escrow: record not initialized")
	ErrIssueMismatch         = errors.New("escrow: issue number mismatch")
	ErrRepoHashMismatch      = errors.New("escrow: repository hash mismatch")
	ErrEscrowExists          = errors.New("escrow: escrow account already funded")
	ErrInvalidSystemProgram  = errors.New("escrow: unexpected system program account")
	ErrAccountAlias          = errors.New("escrow: escrow account passed as recipient or authority")
	ErrArithmeticOverflow    = errors.New("escrow: arithmetic overflow")
	ErrNotEnoughAccounts     = common.ErrNotEnoughAccounts
)

// Stable numeric codes reported in receipts. Zero means success and
// CodeExternal covers failures raised by collaborators.
const (
	CodeOK uint32 = iota
	CodeMalformedRequest
	CodeInvalidAmount
	CodeMissingSignature
	CodeInvalidDerivedAddress
	CodeAlreadyReleased
	CodeNotOwnedByProgram
	CodeUninitializedRecord
	CodeIssueMismatch
	CodeRepoHashMismatch
	CodeEscrowExists
	CodeInvalidSystemProgram
	CodeAccountAlias
	CodeArithmeticOverflow
	CodeNotEnoughAccounts
	CodeExternal uint32 = 0xFFFF
)

var errorCodes = []struct {
	err  error
	code uint32
}{
	{ErrMalformedRequest, CodeMalformedRequest},
	{ErrInvalidAmount, CodeInvalidAmount},
	{ErrMissingSignature, CodeMissingSignature},
	{ErrInvalidDerivedAddress, CodeInvalidDerivedAddress},
	{ErrAlreadyReleased, CodeAlreadyReleased},
	{ErrNotOwnedByProgram, CodeNotOwnedByProgram},
	{ErrUninitializedRecord, CodeUninitializedRecord},
	{ErrIssueMismatch, CodeIssueMismatch},
	{ErrRepoHashMismatch, CodeRepoHashMismatch},
	{ErrEscrowExists, CodeEscrowExists},
	{ErrInvalidSystemProgram, CodeInvalidSystemProgram},
	{ErrAccountAlias, CodeAccountAlias},
	{ErrArithmeticOverflow, CodeArithmeticOverflow},
	{ErrNotEnoughAccounts, CodeNotEnoughAccounts},
}

// Code maps an error returned by the program onto its numeric code.
func Code(err error) uint32 {
	if err == nil {
		return CodeOK
	}
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return CodeExternal
}

// ErrorCode lets the runtime report escrow failures with stable codes.
func (p *Program) ErrorCode(err error) uint32 { return Code(err) }
