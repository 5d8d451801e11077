package config

import (
	"fmt"
	"strings"

	"gitbounty/native/system"
)

// MinQuotaEpochSeconds bounds how short a quota window may be.
var MinQuotaEpochSeconds = uint32(10)

func ValidateConfig(c *Config) error {
	switch c.Backend {
	case BackendLevelDB, BackendBolt:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("backend %s requires DataDir", c.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("backend: unsupported value %q", c.Backend)
	}
	id, err := c.ProgramID()
	if err != nil {
		return err
	}
	if id == system.ProgramID {
		return fmt.Errorf("EscrowProgramID: collides with the system program")
	}
	if c.Rent.LamportsPerByteYear == 0 || c.Rent.ExemptionThresholdYears == 0 {
		return fmt.Errorf("rent: parameters must be non-zero")
	}
	q := c.Global.Quota
	if (q.MaxRequestsPerEpoch > 0 || q.MaxLamportsPerEpoch > 0) && q.EpochSeconds != 0 && q.EpochSeconds < MinQuotaEpochSeconds {
		return fmt.Errorf("quota: epoch_seconds below %d", MinQuotaEpochSeconds)
	}
	for _, name := range c.Global.Pauses.Programs {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("pauses: empty program name")
		}
	}
	return nil
}
