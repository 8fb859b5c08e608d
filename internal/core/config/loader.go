package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Defaults mirror the values the registry upload has always used.
const (
	DefaultChainID      = 84532 // Base Sepolia
	DefaultGasLimit     = 200000
	DefaultMaxRetries   = 3
	DefaultGasPriceBump = 1.10
	DefaultPollDelay    = 1 * time.Second
	DefaultRetryDelay   = 2 * time.Second
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expanding environment variables first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Chain.ID == 0 {
		c.Chain.ID = DefaultChainID
	}
	if c.Chain.Name == "" {
		c.Chain.Name = "base-sepolia"
	}
	if c.Chain.Timeout == 0 {
		c.Chain.Timeout = 30 * time.Second
	}

	if c.Submit.GasLimit == 0 {
		c.Submit.GasLimit = DefaultGasLimit
	}
	if c.Submit.MaxRetries == 0 {
		c.Submit.MaxRetries = DefaultMaxRetries
	}
	if c.Submit.GasPriceBump == 0 {
		c.Submit.GasPriceBump = DefaultGasPriceBump
	}
	if c.Submit.PollDelay == 0 {
		c.Submit.PollDelay = DefaultPollDelay
	}
	if c.Submit.RetryDelay == 0 {
		c.Submit.RetryDelay = DefaultRetryDelay
	}

	if c.Data.Bucket == "" {
		c.Data.Bucket = "file://./data"
	}
	if c.Data.CSVPrefix == "" {
		c.Data.CSVPrefix = "csv/ACRAInformationonCorporateEntities"
	}
	if c.Data.JSONDir == "" {
		c.Data.JSONDir = "json/"
	}
	if c.Data.Combined == "" {
		c.Data.Combined = c.Data.JSONDir + "combined_uen.json"
	}
	if c.Data.Stripped == "" {
		c.Data.Stripped = c.Data.JSONDir + "combined_uen_no_status.json"
	}
	if c.Data.Fields.ID == "" {
		c.Data.Fields.ID = "uen"
	}
	if c.Data.Fields.Name == "" {
		c.Data.Fields.Name = "entity_name"
	}
	if c.Data.Fields.Status == "" {
		c.Data.Fields.Status = "entity_status_description"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
