package config

import (
	"fmt"

	"gitbounty/core/rent"
	"gitbounty/crypto"
	"gitbounty/native/common"
)

// ProgramID parses the configured escrow program id.
func (c *Config) ProgramID() (crypto.Address, error) {
	id, err := crypto.ParseAddress(c.EscrowProgramID)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("invalid EscrowProgramID: %w", err)
	}
	return id, nil
}

// RentParams converts the rent section into the ledger's rent parameters.
func (c *Config) RentParams() rent.Rent {
	return rent.Rent{
		LamportsPerByteYear:     c.Rent.LamportsPerByteYear,
		ExemptionThresholdYears: c.Rent.ExemptionThresholdYears,
	}
}

// PauseSet returns the runtime view of paused programs.
func (g Global) PauseSet() common.PauseSet {
	return common.NewPauseSet(g.Pauses.Programs...)
}

// NativeQuota converts the quota section into runtime limits.
func (g Global) NativeQuota() common.Quota {
	return common.Quota{
		MaxRequestsPerEpoch: g.Quota.MaxRequestsPerEpoch,
		MaxLamportsPerEpoch: g.Quota.MaxLamportsPerEpoch,
		EpochSeconds:        g.Quota.EpochSeconds,
	}
}
