package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/sharedfund/ledgerd/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig         `toml:"server"`
	Storage StorageConfig        `toml:"storage"`
	Logging common.LoggingConfig `toml:"logging"`
	Fund    FundConfig           `toml:"fund"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig contains BadgerDB-specific settings.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// FundConfig describes the fund and its participants. Partners listed here
// are created on startup if the store does not know them yet.
type FundConfig struct {
	Name     string          `toml:"name"`
	Partners []PartnerConfig `toml:"partners"`
}

// PartnerConfig is one participant seeded from configuration.
type PartnerConfig struct {
	Name        string `toml:"name"`
	DisplayName string `toml:"display_name"`
	Color       string `toml:"color"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies LEDGER_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("LEDGER_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LEDGER_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if badgerPath := os.Getenv("LEDGER_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if level := os.Getenv("LEDGER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate returns a list of configuration problems, empty when valid.
func (c *Config) Validate() []string {
	var issues []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}
	if c.Storage.Badger.Path == "" {
		issues = append(issues, "storage.badger.path must be set")
	}
	if len(c.Fund.Partners) == 0 {
		issues = append(issues, "fund.partners must list at least one participant")
	}
	seen := make(map[string]bool, len(c.Fund.Partners))
	for _, p := range c.Fund.Partners {
		if p.Name == "" {
			issues = append(issues, "fund.partners entries must have a name")
			continue
		}
		if seen[p.Name] {
			issues = append(issues, fmt.Sprintf("fund.partners has duplicate name %q", p.Name))
		}
		seen[p.Name] = true
	}
	return issues
}
