package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gitbounty/crypto"
)

func TestLoadCreatesDefaultTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gitbounty.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if cfg.Backend != BackendLevelDB {
		t.Fatalf("unexpected backend %q", cfg.Backend)
	}
	if cfg.DataDir != filepath.Join(dir, "gitbounty-data") {
		t.Fatalf("unexpected data dir %q", cfg.DataDir)
	}
	id, err := cfg.ProgramID()
	if err != nil {
		t.Fatalf("program id: %v", err)
	}
	if id != DefaultEscrowProgramID {
		t.Fatalf("unexpected program id %s", id)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not persisted: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.EscrowProgramID != cfg.EscrowProgramID || again.Rent != cfg.Rent {
		t.Fatalf("reloaded config differs: %+v vs %+v", again, cfg)
	}
}

func TestLoadParsesTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `DataDir = "/var/lib/gitbounty"
Backend = "Bolt"
IndexDSN = "file:index.db"
Env = "staging"

[rent]
LamportsPerByteYear = 10
ExemptionThresholdYears = 3

[global.pauses]
Programs = ["escrow"]

[global.quota]
MaxRequestsPerEpoch = 5
MaxLamportsPerEpoch = 1000
EpochSeconds = 3600
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendBolt {
		t.Fatalf("backend must be normalised, got %q", cfg.Backend)
	}
	if got := cfg.RentParams().MinimumBalance(0); got != 128*10*3 {
		t.Fatalf("unexpected rent minimum %d", got)
	}
	if !cfg.Global.PauseSet().IsPaused("escrow") {
		t.Fatalf("escrow should be paused")
	}
	q := cfg.Global.NativeQuota()
	if q.MaxRequestsPerEpoch != 5 || q.MaxLamportsPerEpoch != 1000 || q.EpochSeconds != 3600 {
		t.Fatalf("unexpected quota %+v", q)
	}
	if cfg.Env != "staging" || cfg.IndexDSN != "file:index.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	program := crypto.Address{0x01, 0x02}
	contents := "backend: memory\nescrowProgramId: \"" + program.Hex() + "\"\nglobal:\n  quota:\n    maxRequestsPerEpoch: 2\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	id, err := cfg.ProgramID()
	if err != nil {
		t.Fatalf("program id: %v", err)
	}
	if id != program {
		t.Fatalf("unexpected program id %s", id)
	}
	if cfg.Global.Quota.MaxRequestsPerEpoch != 2 {
		t.Fatalf("unexpected quota %+v", cfg.Global.Quota)
	}
}

func TestLoadCreatesDefaultYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "escrowProgramId: "+cfg.EscrowProgramID) {
		t.Fatalf("yaml default missing program id:\n%s", raw)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(tomlPath, []byte("ListenAddress = \":6001\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(tomlPath); err == nil || !strings.Contains(err.Error(), "ListenAddress") {
		t.Fatalf("expected unknown key error, got %v", err)
	}

	yamlPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(yamlPath, []byte("listen: x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(yamlPath); err == nil {
		t.Fatalf("expected unknown yaml field to fail")
	}
}

func TestValidateConfig(t *testing.T) {
	cases := map[string]func(c *Config){
		"backend":        func(c *Config) { c.Backend = "postgres" },
		"program_id":     func(c *Config) { c.EscrowProgramID = "not-an-address" },
		"system_program": func(c *Config) { c.EscrowProgramID = crypto.Address{}.Hex() },
		"rent":           func(c *Config) { c.Rent.LamportsPerByteYear = 0 },
		"quota_epoch": func(c *Config) {
			c.Global.Quota.MaxRequestsPerEpoch = 1
			c.Global.Quota.EpochSeconds = 1
		},
		"pause_name": func(c *Config) { c.Global.Pauses.Programs = []string{" "} },
		"data_dir": func(c *Config) {
			c.DataDir = ""
			c.Backend = BackendBolt
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			if err := ValidateConfig(cfg); err != nil {
				t.Fatalf("default config must validate: %v", err)
			}
			mutate(cfg)
			if err := ValidateConfig(cfg); err == nil {
				t.Fatalf("expected validation failure")
			}
		})
	}
}
