// Package daemon manages the Momentum daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	User    UserConfig    `toml:"user"`
	API     APIConfig     `toml:"api"`
	Remote  RemoteConfig  `toml:"remote"`
	Sync    SyncConfig    `toml:"sync"`
	Logging LoggingConfig `toml:"logging"`
}

// UserConfig identifies the local user and challenge enrollment.
type UserConfig struct {
	ID        string `toml:"id"`
	Journey   string `toml:"journey"`
	StartDate string `toml:"start_date"` // "2006-01-02"; empty = first run today
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host          string   `toml:"host"`
	Port          int      `toml:"port"`
	CORSOrigins   []string `toml:"cors_origins"`
	EnableMetrics bool     `toml:"enable_metrics"`
}

// RemoteConfig points at the authoritative backend.
type RemoteConfig struct {
	BaseURL     string `toml:"base_url"`
	AuthToken   string `toml:"auth_token"`
	TimeoutSecs int    `toml:"timeout_secs"`
	Disabled    bool   `toml:"disabled"` // local-only mode, no reconciliation
}

// SyncConfig tunes the reconciliation outbox.
type SyncConfig struct {
	DebounceMS  int `toml:"debounce_ms"`
	MaxAttempts int `toml:"max_attempts"`
	BaseDelayMS int `toml:"base_delay_ms"`
	MaxDelayMS  int `toml:"max_delay_ms"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		User: UserConfig{
			Journey: "challenge30",
		},
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8090,
			CORSOrigins: []string{"*"},
		},
		Remote: RemoteConfig{
			TimeoutSecs: 15,
		},
		Sync: SyncConfig{
			DebounceMS:  300,
			MaxAttempts: 5,
			BaseDelayMS: 1000,
			MaxDelayMS:  60000,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(momentumHome(), "momentum.log"),
		},
	}
}

// LoadConfig reads config from ~/.momentum/config.toml, falling back to
// defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(momentumHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to ~/.momentum/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(momentumHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// momentumHome returns the Momentum data directory.
func momentumHome() string {
	if env := os.Getenv("MOMENTUM_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".momentum")
}

// MomentumHome is exported for use by other packages.
func MomentumHome() string {
	return momentumHome()
}
