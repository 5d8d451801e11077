// Package escrow implements the bounty escrow program. An escrow holds
// lamports for a (repository, issue) pair at an address derived from that
// pair, and an authority later releases them to the contributor who closed
// the issue.
package escrow

import (
	"gitbounty/crypto"
	"gitbounty/native/common"
)

// Program is the escrow program. It keeps no state between invocations.
type Program struct {
	id crypto.Address
}

// NewProgram returns the program registered under id.
func NewProgram(id crypto.Address) *Program {
	return &Program{id: id}
}

func (p *Program) ID() crypto.Address { return p.id }

func (p *Program) Name() string { return "escrow" }

// Process reads the opcode byte and hands the decoded request to the
// matching handler. Nothing runs when decoding fails.
func (p *Program) Process(ctx *common.InvokeContext, data []byte) error {
	if len(data) == 0 {
		ctx.Log("escrow: empty instruction data")
		return ErrMalformedRequest
	}
	switch data[0] {
	case OpCreateEscrow:
		ctx.Log("Instruction: CreateEscrow")
		req, err := DecodeCreateRequest(data[1:])
		if err != nil {
			return err
		}
		return p.CreateEscrow(ctx, req)
	case OpReleaseEscrow:
		ctx.Log("Instruction: ReleaseEscrow")
		req, err := DecodeReleaseRequest(data[1:])
		if err != nil {
			return err
		}
		return p.ReleaseEscrow(ctx, req)
	default:
		ctx.Log("escrow: unknown instruction", "opcode", data[0])
		return ErrMalformedRequest
	}
}
