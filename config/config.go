package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"gitbounty/crypto"
)

const (
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
	BackendMemory  = "memory"
)

// DefaultEscrowProgramID is the well-known id the escrow program is
// registered under on a fresh ledger.
var DefaultEscrowProgramID = func() crypto.Address {
	var id crypto.Address
	copy(id[:], crypto.Keccak256([]byte("gitbounty:escrow-program")))
	return id
}()

type Config struct {
	DataDir         string `toml:"DataDir" yaml:"dataDir"`
	Backend         string `toml:"Backend" yaml:"backend"`
	EscrowProgramID string `toml:"EscrowProgramID" yaml:"escrowProgramId"`
	IndexDSN        string `toml:"IndexDSN" yaml:"indexDsn"`
	LogFile         string `toml:"LogFile" yaml:"logFile"`
	Env             string `toml:"Env" yaml:"env"`
	Rent            Rent   `toml:"rent" yaml:"rent"`
	Global          Global `toml:"global" yaml:"global"`
}

// Load reads the configuration at path. TOML is the default format; files
// ending in .yaml or .yml are parsed as YAML. A missing file is created with
// defaults.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if isYAML(path) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config %s: unknown key %s", path, undecoded[0].String())
		}
	}

	cfg.applyDefaults(filepath.Dir(path))
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used for a fresh devnet rooted at dir.
func Default(dir string) *Config {
	cfg := &Config{}
	cfg.applyDefaults(dir)
	return cfg
}

func (c *Config) applyDefaults(dir string) {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = filepath.Join(dir, "gitbounty-data")
	}
	if strings.TrimSpace(c.Backend) == "" {
		c.Backend = BackendLevelDB
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if strings.TrimSpace(c.EscrowProgramID) == "" {
		c.EscrowProgramID = DefaultEscrowProgramID.String()
	}
	if strings.TrimSpace(c.Env) == "" {
		c.Env = "devnet"
	}
	if c.Rent.LamportsPerByteYear == 0 {
		c.Rent.LamportsPerByteYear = DefaultLamportsPerByteYear
	}
	if c.Rent.ExemptionThresholdYears == 0 {
		c.Rent.ExemptionThresholdYears = DefaultExemptionThresholdYears
	}
	if c.Global.Pauses.Programs == nil {
		c.Global.Pauses.Programs = []string{}
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}
