package types

import "gitbounty/crypto"

// Instruction is a single program call: the target program, the accounts it
// may touch, and an opaque payload interpreted by that program.
type Instruction struct {
	ProgramID crypto.Address `json:"programId"`
	Accounts  []AccountMeta  `json:"accounts"`
	Data      []byte         `json:"data"`
}
