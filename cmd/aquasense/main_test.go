package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blueharbor/aquasense-core/internal/infrastructure/logging"
)

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("AQUASENSE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidConfigContent verifies run rejects a config that fails
// validation before touching any hardware or network.
func TestRun_InvalidConfigContent(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
node:
  id: ""

mqtt:
  enabled: false

api:
  enabled: false

influxdb:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("AQUASENSE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail when node.id is empty")
	}
}

// TestLoadConfig_DefaultsWhenFileMissing verifies the fallback to
// built-in defaults when no config file exists at the default path.
func TestLoadConfig_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("AQUASENSE_CONFIG", "")
	// t.Chdir requires Go 1.24; replicate it on the local 1.21 toolchain.
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getting working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("changing directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origWD); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})

	cfg, err := loadConfig(logging.Default())
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Node.ID == "" {
		t.Error("default config should include a node ID")
	}
	if !cfg.Drivers.Tds.Enabled {
		t.Error("default config should enable the TDS driver")
	}
}

// TestLoadConfig_ExplicitPath verifies an explicitly configured path is
// loaded and its values override defaults.
func TestLoadConfig_ExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
node:
  id: tank-07

mqtt:
  enabled: false

api:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("AQUASENSE_CONFIG", configPath)

	cfg, err := loadConfig(logging.Default())
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Node.ID != "tank-07" {
		t.Errorf("Node.ID = %q, want %q", cfg.Node.ID, "tank-07")
	}
	if cfg.MQTT.Enabled {
		t.Error("config file should disable MQTT")
	}
}
