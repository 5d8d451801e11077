package escrow

import (
	"encoding/binary"
	"fmt"

	"gitbounty/core/types"
	"gitbounty/crypto"
	"gitbounty/native/system"
)

const (
	OpCreateEscrow  byte = 0
	OpReleaseEscrow byte = 1

	createPayloadLen  = 32 + 8 + 8
	releasePayloadLen = 32 + 8
)

// CreateRequest asks the program to lock Amount lamports for an issue.
type CreateRequest struct {
	RepoHash    [32]byte
	IssueNumber uint64
	Amount      uint64
}

// ReleaseRequest asks the program to pay out the escrow for an issue.
type ReleaseRequest struct {
	RepoHash    [32]byte
	IssueNumber uint64
}

// EncodeCreate serializes opcode 0 followed by the create payload.
func EncodeCreate(req CreateRequest) []byte {
	buf := make([]byte, 1+createPayloadLen)
	buf[0] = OpCreateEscrow
	copy(buf[1:33], req.RepoHash[:])
	binary.LittleEndian.PutUint64(buf[33:41], req.IssueNumber)
	binary.LittleEndian.PutUint64(buf[41:49], req.Amount)
	return buf
}

// EncodeRelease serializes opcode 1 followed by the release payload.
func EncodeRelease(req ReleaseRequest) []byte {
	buf := make([]byte, 1+releasePayloadLen)
	buf[0] = OpReleaseEscrow
	copy(buf[1:33], req.RepoHash[:])
	binary.LittleEndian.PutUint64(buf[33:41], req.IssueNumber)
	return buf
}

// DecodeCreateRequest parses a create payload (without the opcode byte).
// Short and over-long payloads are both rejected.
func DecodeCreateRequest(payload []byte) (CreateRequest, error) {
	var req CreateRequest
	if len(payload) != createPayloadLen {
		return req, fmt.Errorf("%w: create payload is %d bytes, want %d", ErrMalformedRequest, len(payload), createPayloadLen)
	}
	copy(req.RepoHash[:], payload[0:32])
	req.IssueNumber = binary.LittleEndian.Uint64(payload[32:40])
	req.Amount = binary.LittleEndian.Uint64(payload[40:48])
	return req, nil
}

// DecodeReleaseRequest parses a release payload (without the opcode byte).
func DecodeReleaseRequest(payload []byte) (ReleaseRequest, error) {
	var req ReleaseRequest
	if len(payload) != releasePayloadLen {
		return req, fmt.Errorf("%w: release payload is %d bytes, want %d", ErrMalformedRequest, len(payload), releasePayloadLen)
	}
	copy(req.RepoHash[:], payload[0:32])
	req.IssueNumber = binary.LittleEndian.Uint64(payload[32:40])
	return req, nil
}

// NewCreateInstruction builds the instruction a payer submits to open an
// escrow. The escrow address is derived here; callers never pick it.
func NewCreateInstruction(programID, payer crypto.Address, req CreateRequest) (types.Instruction, crypto.Address, error) {
	escrowAddr, _, err := DeriveAddress(programID, req.RepoHash, req.IssueNumber)
	if err != nil {
		return types.Instruction{}, crypto.Address{}, err
	}
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(payer, true),
			types.NewAccountMeta(escrowAddr, false),
			types.NewReadonlyAccountMeta(system.ProgramID, false),
		},
		Data: EncodeCreate(req),
	}, escrowAddr, nil
}

// NewReleaseInstruction builds the instruction an authority submits to pay
// the bounty to recipient.
func NewReleaseInstruction(programID, recipient, authority crypto.Address, req ReleaseRequest) (types.Instruction, crypto.Address, error) {
	escrowAddr, _, err := DeriveAddress(programID, req.RepoHash, req.IssueNumber)
	if err != nil {
		return types.Instruction{}, crypto.Address{}, err
	}
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(escrowAddr, false),
			types.NewAccountMeta(recipient, false),
			types.NewAccountMeta(authority, true),
		},
		Data: EncodeRelease(req),
	}, escrowAddr, nil
}
