package daemon

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.User.Journey != "challenge30" {
		t.Errorf("journey = %q", cfg.User.Journey)
	}
	if cfg.API.Host != "127.0.0.1" || cfg.API.Port != 8090 {
		t.Errorf("api = %s:%d", cfg.API.Host, cfg.API.Port)
	}
	if cfg.Sync.DebounceMS != 300 || cfg.Sync.MaxAttempts != 5 {
		t.Errorf("sync = %+v", cfg.Sync)
	}
	if cfg.Remote.BaseURL != "" {
		t.Errorf("remote enabled by default: %q", cfg.Remote.BaseURL)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Setenv("MOMENTUM_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 8090 {
		t.Errorf("missing file should fall back to defaults, got port %d", cfg.API.Port)
	}
}

func TestSaveLoadConfig(t *testing.T) {
	t.Setenv("MOMENTUM_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.User.ID = "u1"
	cfg.User.StartDate = "2025-07-01"
	cfg.API.Port = 9999
	cfg.Remote.BaseURL = "https://backend.example.com"
	cfg.Remote.AuthToken = "tok"
	cfg.Sync.DebounceMS = 150

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.User.ID != "u1" || loaded.User.StartDate != "2025-07-01" {
		t.Errorf("user = %+v", loaded.User)
	}
	if loaded.API.Port != 9999 {
		t.Errorf("port = %d", loaded.API.Port)
	}
	if loaded.Remote.BaseURL != "https://backend.example.com" || loaded.Remote.AuthToken != "tok" {
		t.Errorf("remote = %+v", loaded.Remote)
	}
	if loaded.Sync.DebounceMS != 150 {
		t.Errorf("debounce = %d", loaded.Sync.DebounceMS)
	}
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("MOMENTUM_HOME", home)

	partial := "[user]\nid = \"u2\"\n"
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(partial), 0600); err != nil {
		t.Fatalf("write partial config: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.User.ID != "u2" {
		t.Errorf("id = %q", cfg.User.ID)
	}
	if cfg.API.Port != 8090 || cfg.User.Journey != "challenge30" {
		t.Errorf("defaults lost: port=%d journey=%q", cfg.API.Port, cfg.User.Journey)
	}
}

func TestApplyLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "momentum.log")

	restore, err := applyLogging(LoggingConfig{Level: "info", File: path})
	if err != nil {
		t.Fatalf("apply logging: %v", err)
	}
	log.Printf("[daemon] log file smoke entry")
	restore()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "log file smoke entry") {
		t.Errorf("log file missing entry, got %q", raw)
	}
}

func TestApplyLogging_NoFile(t *testing.T) {
	restore, err := applyLogging(LoggingConfig{Level: "info"})
	if err != nil {
		t.Fatalf("apply logging without file: %v", err)
	}
	restore()
}

func TestMomentumHomeEnvOverride(t *testing.T) {
	t.Setenv("MOMENTUM_HOME", "/tmp/custom-momentum")
	if got := MomentumHome(); got != "/tmp/custom-momentum" {
		t.Errorf("home = %q", got)
	}
}
