package config

const (
	DefaultLamportsPerByteYear     uint64 = 3_480
	DefaultExemptionThresholdYears uint64 = 2
)

// Rent mirrors the ledger rent parameters.
type Rent struct {
	LamportsPerByteYear     uint64 `toml:"LamportsPerByteYear" yaml:"lamportsPerByteYear"`
	ExemptionThresholdYears uint64 `toml:"ExemptionThresholdYears" yaml:"exemptionThresholdYears"`
}

// Pauses lists programs, by name, that reject every instruction.
type Pauses struct {
	Programs []string `toml:"Programs" yaml:"programs"`
}

// Quota defines rate limits for program interactions on a per-signer basis.
type Quota struct {
	MaxRequestsPerEpoch uint32 `toml:"MaxRequestsPerEpoch" yaml:"maxRequestsPerEpoch"`
	MaxLamportsPerEpoch uint64 `toml:"MaxLamportsPerEpoch" yaml:"maxLamportsPerEpoch"`
	EpochSeconds        uint32 `toml:"EpochSeconds" yaml:"epochSeconds"` // e.g., 3600
}

// Global bundles the runtime policy values enforced by ValidateConfig.
type Global struct {
	Pauses Pauses `toml:"pauses" yaml:"pauses"`
	Quota  Quota  `toml:"quota" yaml:"quota"`
}
