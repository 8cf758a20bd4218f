package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the flat brickline configuration. It identifies the
// operator and their usual station so commands can default both.
type Config struct {
	Version string `json:"version"`
	Actor   string `json:"actor,omitempty"`   // operator name stamped on ledger entries
	Station string `json:"station,omitempty"` // default station for stock commands
}

// LoadConfig reads .brickline/config.json from the specified directory.
// Resolution order: cwd only (no home fallback).
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".brickline", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes config.json to directory
func SaveConfig(dir string, cfg *Config) error {
	cfgDir := filepath.Join(dir, ".brickline")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("failed to create .brickline dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(cfgDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ResolveActor determines who is running the command.
// Resolution order: BRICKLINE_ACTOR env var, then the config in dir,
// then the OS username. Empty when nothing is set.
func ResolveActor(dir string) string {
	if actor := os.Getenv("BRICKLINE_ACTOR"); actor != "" {
		return actor
	}
	if cfg, err := LoadConfig(dir); err == nil && cfg.Actor != "" {
		return cfg.Actor
	}
	return os.Getenv("USER")
}

// DefaultStation returns the configured default station for stock
// commands, or empty when none is set.
func DefaultStation(dir string) string {
	if cfg, err := LoadConfig(dir); err == nil {
		return cfg.Station
	}
	return ""
}
