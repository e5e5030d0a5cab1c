package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DepthEngineConfig is the JSON-backed configuration for the depth
// reconciliation engine: a struct loaded from a file path and validated
// field by field, with defaults applied for anything left zero.
type DepthEngineConfig struct {
	Exchange        string `json:"exchange"`
	Symbol          string `json:"symbol"`
	DepthStreamURL  string `json:"depthStreamUrl"`
	SnapshotURL     string `json:"snapshotUrl"`
	Connections     int    `json:"connections"`
	WatchdogTimeout string `json:"watchdogTimeout"`
}

// LoadDepthEngineConfig loads and validates configuration from a JSON file,
// applying the documented defaults (3 connections, 5s watchdog timeout) for
// any field left at its zero value.
func LoadDepthEngineConfig(filePath string) (*DepthEngineConfig, error) {
	if filePath == "" {
		return nil, fmt.Errorf("config file path cannot be empty")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	var cfg DepthEngineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filePath, err)
	}

	return &cfg, nil
}

func (c *DepthEngineConfig) applyDefaults() {
	if c.Connections <= 0 {
		c.Connections = 3
	}
	if c.WatchdogTimeout == "" {
		c.WatchdogTimeout = "5s"
	}
	if c.Exchange == "" {
		c.Exchange = "binance"
	}
}

// Validate validates the configuration.
func (c *DepthEngineConfig) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if c.DepthStreamURL == "" {
		return fmt.Errorf("depthStreamUrl cannot be empty")
	}
	if c.SnapshotURL == "" {
		return fmt.Errorf("snapshotUrl cannot be empty")
	}
	if c.Connections <= 0 {
		return fmt.Errorf("connections must be positive")
	}
	if _, err := c.WatchdogTimeoutDuration(); err != nil {
		return fmt.Errorf("watchdogTimeout: %w", err)
	}
	return nil
}

// WatchdogTimeoutDuration parses WatchdogTimeout as a time.Duration (e.g.
// "5s").
func (c *DepthEngineConfig) WatchdogTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.WatchdogTimeout)
}
