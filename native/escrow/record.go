package escrow

import (
	"encoding/binary"
	"fmt"
	"strings"

	"gitbounty/crypto"
)

// RecordLen is the fixed serialized size of a Record: initialized flag,
// repository hash, issue number and amount.
const RecordLen = 1 + 32 + 8 + 8

// SeedTag prefixes every escrow address derivation.
const SeedTag = "escrow"

// Record is the escrow state persisted in the escrow account's data buffer.
// It is written once at creation and never updated; release drains the
// account instead of rewriting it.
type Record struct {
	Initialized bool
	RepoHash    [32]byte
	IssueNumber uint64
	Amount      uint64
}

// MarshalBinary encodes the record as flag || repoHash || issue LE || amount LE.
func (r Record) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordLen)
	if r.Initialized {
		buf[0] = 1
	}
	copy(buf[1:33], r.RepoHash[:])
	binary.LittleEndian.PutUint64(buf[33:41], r.IssueNumber)
	binary.LittleEndian.PutUint64(buf[41:49], r.Amount)
	return buf, nil
}

// UnmarshalBinary decodes a record. The buffer must be exactly RecordLen
// bytes and the flag byte must be 0 or 1.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) != RecordLen {
		return fmt.Errorf("escrow record: want %d bytes, got %d", RecordLen, len(data))
	}
	switch data[0] {
	case 0:
		r.Initialized = false
	case 1:
		r.Initialized = true
	default:
		return fmt.Errorf("escrow record: invalid initialized flag %#x", data[0])
	}
	copy(r.RepoHash[:], data[1:33])
	r.IssueNumber = binary.LittleEndian.Uint64(data[33:41])
	r.Amount = binary.LittleEndian.Uint64(data[41:49])
	return nil
}

// Seeds returns the derivation seeds binding an escrow address to its
// (repository, issue) identity.
func Seeds(repoHash [32]byte, issueNumber uint64) [][]byte {
	issue := make([]byte, 8)
	binary.LittleEndian.PutUint64(issue, issueNumber)
	return [][]byte{[]byte(SeedTag), repoHash[:], issue}
}

// DeriveAddress returns the canonical escrow address and bump for the
// identity under programID.
func DeriveAddress(programID crypto.Address, repoHash [32]byte, issueNumber uint64) (crypto.Address, uint8, error) {
	return crypto.FindProgramAddress(Seeds(repoHash, issueNumber), programID)
}

// RepoHash hashes a repository's "owner/name" into the opaque key the
// program stores. Names are trimmed and lower-cased first so differently
// cased spellings of the same repository share one escrow.
func RepoHash(fullName string) [32]byte {
	var out [32]byte
	normalized := strings.ToLower(strings.TrimSpace(fullName))
	copy(out[:], crypto.Keccak256([]byte(normalized)))
	return out
}
