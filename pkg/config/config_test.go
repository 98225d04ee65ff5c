package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return configPath
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "debug"

probe:
  address: "nfs1.example.com:2049"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Probe.Address != "nfs1.example.com:2049" {
		t.Errorf("Expected address from file, got %q", cfg.Probe.Address)
	}
	if cfg.Probe.Program != 100003 || cfg.Probe.Version != 3 {
		t.Errorf("Expected default program 100003 v3, got %d v%d", cfg.Probe.Program, cfg.Probe.Version)
	}
	if cfg.Probe.Timeout != 5*time.Second {
		t.Errorf("Expected default timeout 5s, got %v", cfg.Probe.Timeout)
	}
	if cfg.Probe.MaxRecordSize != 1<<20 {
		t.Errorf("Expected default max_record_size 1MiB, got %d", cfg.Probe.MaxRecordSize)
	}
}

func TestLoad_DurationsAndNumbers(t *testing.T) {
	configPath := writeConfig(t, `
probe:
  address: "10.0.0.1:111"
  program: 100000
  version: 2
  procedure: 4
  timeout: "250ms"
  attempts: 3
  rate: 5
  burst: 2
  start_xid: 4096
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	p := cfg.Probe
	if p.Program != 100000 || p.Version != 2 || p.Procedure != 4 {
		t.Errorf("Unexpected program selection: %+v", p)
	}
	if p.Timeout != 250*time.Millisecond {
		t.Errorf("Expected timeout 250ms, got %v", p.Timeout)
	}
	if p.Attempts != 3 || p.Rate != 5 || p.Burst != 2 || p.StartXID != 4096 {
		t.Errorf("Unexpected schedule: %+v", p)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
probe:
  address: "10.0.0.1:2049"
`)

	t.Setenv("NTIRPC_PROBE_ADDRESS", "10.0.0.2:2049")
	t.Setenv("NTIRPC_PROBE_TIMEOUT", "2s")
	t.Setenv("NTIRPC_METRICS_ENABLED", "true")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Probe.Address != "10.0.0.2:2049" {
		t.Errorf("Expected env address, got %q", cfg.Probe.Address)
	}
	if cfg.Probe.Timeout != 2*time.Second {
		t.Errorf("Expected env timeout 2s, got %v", cfg.Probe.Timeout)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics enabled from env")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults without a config file, got: %v", err)
	}

	if cfg.Probe.Address != "127.0.0.1:2049" {
		t.Errorf("Expected default address, got %q", cfg.Probe.Address)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for explicit config path that does not exist")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "probe: [unterminated")

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	configPath := writeConfig(t, `
probe:
  address: "no-port"
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for address without port")
	}
}
