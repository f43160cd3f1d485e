package config

import "github.com/sharedfund/ledgerd/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4310,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/ledgerd",
			},
		},
		Logging: common.LoggingConfig{
			Level: "info",
		},
		Fund: FundConfig{
			Name: "Shared Portfolio",
			Partners: []PartnerConfig{
				{Name: "nick", DisplayName: "Nick", Color: "green"},
				{Name: "joey", DisplayName: "Joey", Color: "orange"},
			},
		},
	}
}
