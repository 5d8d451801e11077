// Package rent computes the minimum balance an account must hold to stay
// alive on the ledger indefinitely.
package rent

import (
	"errors"
	"math/bits"
)

const (
	DefaultLamportsPerByteYear     uint64 = 3_480
	DefaultExemptionThresholdYears uint64 = 2
	// AccountStorageOverhead is charged on top of the data length for the
	// account metadata itself.
	AccountStorageOverhead uint64 = 128
)

var ErrOverflow = errors.New("rent: minimum balance overflows")

// Rent holds the ledger's rent parameters.
type Rent struct {
	LamportsPerByteYear     uint64
	ExemptionThresholdYears uint64
}

// Default returns the standard rent parameters.
func Default() Rent {
	return Rent{
		LamportsPerByteYear:     DefaultLamportsPerByteYear,
		ExemptionThresholdYears: DefaultExemptionThresholdYears,
	}
}

// MinimumBalance returns the balance a buffer of size bytes must hold to be
// exempt from rent. Values that overflow saturate to the maximum uint64,
// which no account can fund.
func (r Rent) MinimumBalance(size uint64) uint64 {
	balance, err := r.minimumBalance(size)
	if err != nil {
		return ^uint64(0)
	}
	return balance
}

func (r Rent) minimumBalance(size uint64) (uint64, error) {
	bytes, carry := bits.Add64(size, AccountStorageOverhead, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	hi, perYear := bits.Mul64(bytes, r.LamportsPerByteYear)
	if hi != 0 {
		return 0, ErrOverflow
	}
	hi, total := bits.Mul64(perYear, r.ExemptionThresholdYears)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return total, nil
}
