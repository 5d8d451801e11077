package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"gitbounty/crypto"
)

// Transaction groups instructions that execute atomically: either every
// instruction succeeds and all account changes are committed, or none are.
type Transaction struct {
	Nonce        uint64        `json:"nonce"`
	Instructions []Instruction `json:"instructions"`
	Signatures   [][]byte      `json:"signatures"`
}

type signingPayload struct {
	Nonce        uint64
	Instructions []Instruction
}

// Digest returns the keccak256 hash of the RLP encoded nonce and
// instructions. Signatures cover exactly these bytes.
func (tx *Transaction) Digest() ([]byte, error) {
	if tx == nil {
		return nil, errors.New("types: nil transaction")
	}
	encoded, err := rlp.EncodeToBytes(signingPayload{Nonce: tx.Nonce, Instructions: tx.Instructions})
	if err != nil {
		return nil, fmt.Errorf("types: encode transaction: %w", err)
	}
	return crypto.Keccak256(encoded), nil
}

// Sign appends a signature from each key over the transaction digest.
func (tx *Transaction) Sign(keys ...*crypto.PrivateKey) error {
	digest, err := tx.Digest()
	if err != nil {
		return err
	}
	for _, key := range keys {
		sig, err := key.Sign(digest)
		if err != nil {
			return err
		}
		tx.Signatures = append(tx.Signatures, sig)
	}
	return nil
}

// Signers recovers the set of addresses that signed the transaction.
func (tx *Transaction) Signers() (map[crypto.Address]struct{}, error) {
	digest, err := tx.Digest()
	if err != nil {
		return nil, err
	}
	signers := make(map[crypto.Address]struct{}, len(tx.Signatures))
	for i, sig := range tx.Signatures {
		addr, err := crypto.RecoverAddress(digest, sig)
		if err != nil {
			return nil, fmt.Errorf("types: signature %d: %w", i, err)
		}
		signers[addr] = struct{}{}
	}
	return signers, nil
}
