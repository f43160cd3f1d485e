package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if issues := cfg.Validate(); len(issues) != 0 {
		t.Errorf("default config has issues: %v", issues)
	}
	if cfg.Server.Port != 4310 {
		t.Errorf("default port = %d, want 4310", cfg.Server.Port)
	}
	if len(cfg.Fund.Partners) == 0 {
		t.Error("default config must seed partners")
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgerd.toml")
	content := `
[server]
port = 9999

[fund]
name = "Other Fund"

[[fund.partners]]
name = "solo"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Fund.Name != "Other Fund" {
		t.Errorf("fund name = %q, want Other Fund", cfg.Fund.Name)
	}
	// Untouched sections keep their defaults.
	if cfg.Storage.Badger.Path == "" {
		t.Error("badger path default was lost")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_SERVER_PORT", "7777")
	t.Setenv("LEDGER_BADGER_PATH", "/tmp/ledger-test")

	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want env override 7777", cfg.Server.Port)
	}
	if cfg.Storage.Badger.Path != "/tmp/ledger-test" {
		t.Errorf("badger path = %q, want env override", cfg.Storage.Badger.Path)
	}
}

func TestApplyFlagOverridesWinOverEnv(t *testing.T) {
	t.Setenv("LEDGER_SERVER_PORT", "7777")

	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles: %v", err)
	}
	ApplyFlagOverrides(cfg, 8888, "0.0.0.0")
	if cfg.Server.Port != 8888 {
		t.Errorf("port = %d, want flag override 8888", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, want 0.0.0.0", cfg.Server.Host)
	}
}

func TestValidateCatchesProblems(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.Port = 0
	cfg.Storage.Badger.Path = ""
	cfg.Fund.Partners = []PartnerConfig{{Name: "a"}, {Name: "a"}}

	issues := cfg.Validate()
	if len(issues) != 3 {
		t.Errorf("got %d issues, want 3: %v", len(issues), issues)
	}
}
