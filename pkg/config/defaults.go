package config

import (
	"strings"
	"time"

	"github.com/truenas/ntirpc/internal/protocol/rpc"
	"github.com/truenas/ntirpc/internal/protocol/rpc/record"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
// Fields whose zero value is meaningful are left alone: probe.procedure 0 is
// the NULL procedure, probe.rate 0 sends attempts unpaced, probe.start_xid 0
// derives the first XID from the session id, and metrics stay disabled.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyProbeDefaults(&cfg.Probe)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyProbeDefaults(cfg *ProbeConfig) {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:2049"
	}
	if cfg.Program == 0 {
		cfg.Program = rpc.ProgramNFS
	}
	if cfg.Version == 0 {
		cfg.Version = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 1
	}
	if cfg.Burst == 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRecordSize == 0 {
		cfg.MaxRecordSize = record.DefaultMaxRecordSize
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
