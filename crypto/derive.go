package crypto

import (
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// MaxSeeds bounds the number of seeds, including the bump seed.
	MaxSeeds = 16
	// MaxSeedLen bounds the length of a single seed.
	MaxSeedLen = 32
)

var derivedMarker = []byte("ProgramDerivedAddress")

var (
	ErrMaxSeedLengthExceeded = errors.New("crypto: derived address seeds exceed limits")
	ErrInvalidSeeds          = errors.New("crypto: seeds produce an on-curve address")
	ErrNoViableBump          = errors.New("crypto: no viable bump seed")
)

// IsOnCurve reports whether the address is the x-coordinate of a point on
// secp256k1, i.e. whether some private key could control it.
func IsOnCurve(addr Address) bool {
	compressed := make([]byte, 1+AddressLength)
	compressed[0] = 0x02
	copy(compressed[1:], addr[:])
	_, err := crypto.DecompressPubkey(compressed)
	return err == nil
}

// CreateProgramAddress hashes the seeds together with the program identity.
// The result is only accepted when it lies off the curve, so no private key
// can sign for it and only the owning program may authorize it.
func CreateProgramAddress(seeds [][]byte, programID Address) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, ErrMaxSeedLengthExceeded
	}
	parts := make([][]byte, 0, len(seeds)+2)
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Address{}, ErrMaxSeedLengthExceeded
		}
		parts = append(parts, seed)
	}
	parts = append(parts, programID[:], derivedMarker)

	var addr Address
	copy(addr[:], crypto.Keccak256(parts...))
	if IsOnCurve(addr) {
		return Address{}, ErrInvalidSeeds
	}
	return addr, nil
}

// FindProgramAddress searches bump seeds from 255 downwards and returns the
// first off-curve address together with its bump. The search is
// deterministic: the same seeds and program always yield the same pair.
func FindProgramAddress(seeds [][]byte, programID Address) (Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Address{}, 0, ErrMaxSeedLengthExceeded
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}
