package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the size of a recoverable secp256k1 signature.
const SignatureLength = crypto.SignatureLength

// --- Key Management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

// Address returns the ledger address controlled by the key.
func (k *PrivateKey) Address() Address {
	return PubkeyToAddress(&k.PrivateKey.PublicKey)
}

// Sign produces a 65 byte recoverable signature over a 32 byte digest.
func (k *PrivateKey) Sign(digest []byte) ([]byte, error) {
	if k == nil || k.PrivateKey == nil {
		return nil, errors.New("crypto: nil private key")
	}
	return crypto.Sign(digest, k.PrivateKey)
}

// PubkeyToAddress derives the address of a public key: the x-coordinate of
// the point, taken from its compressed encoding.
func PubkeyToAddress(pub *ecdsa.PublicKey) Address {
	var addr Address
	compressed := crypto.CompressPubkey(pub)
	copy(addr[:], compressed[1:])
	return addr
}

// RecoverAddress returns the address whose key produced sig over digest.
func RecoverAddress(digest, sig []byte) (Address, error) {
	if len(sig) != SignatureLength {
		return Address{}, fmt.Errorf("crypto: signature must be %d bytes, got %d", SignatureLength, len(sig))
	}
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: recover signer: %w", err)
	}
	return PubkeyToAddress(pub), nil
}

// Keccak256 is re-exported so callers outside this package hash with the same
// primitive used for address derivation.
func Keccak256(data ...[]byte) []byte {
	return crypto.Keccak256(data...)
}
