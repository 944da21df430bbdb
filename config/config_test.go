package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig without a file should not fail: %v", err)
	}

	if cfg.Server.HTTPAddress != ":8080" {
		t.Errorf("Expected default http address :8080, got %s", cfg.Server.HTTPAddress)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Expected default driver memory, got %s", cfg.Database.Driver)
	}
	if cfg.Engine.GracePeriod != 30*time.Second {
		t.Errorf("Expected default grace period 30s, got %v", cfg.Engine.GracePeriod)
	}
	if cfg.Engine.SprintDuration != time.Minute {
		t.Errorf("Expected default sprint duration 1m, got %v", cfg.Engine.SprintDuration)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  http_address: ":9000"
database:
  driver: gorm
  postgres:
    port: 6543
engine:
  grace_period: 5s
  idle_threshold: 10m
log:
  level: debug
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.HTTPAddress != ":9000" {
		t.Errorf("Expected :9000, got %s", cfg.Server.HTTPAddress)
	}
	if cfg.Server.RPCAddress != ":8081" {
		t.Errorf("Expected default rpc address to survive, got %s", cfg.Server.RPCAddress)
	}
	if cfg.Database.Driver != "gorm" || cfg.Database.Postgres.Port != 6543 {
		t.Errorf("Unexpected database config: %+v", cfg.Database)
	}
	if cfg.Engine.GracePeriod != 5*time.Second || cfg.Engine.IdleThreshold != 10*time.Minute {
		t.Errorf("Unexpected engine config: %+v", cfg.Engine)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
}
