package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config represents the complete rpcprobe configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (NTIRPC_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Probe describes the RPC endpoint to probe and how to pace attempts
	Probe ProbeConfig `mapstructure:"probe" yaml:"probe"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ProbeConfig describes the target program and the attempt schedule.
type ProbeConfig struct {
	// Address is the TCP endpoint, host:port
	Address string `mapstructure:"address" yaml:"address" validate:"required,hostname_port"`

	// Program, Version and Procedure select the remote procedure to call.
	// Procedure 0 is the NULL procedure every program implements.
	Program   uint32 `mapstructure:"program" yaml:"program" validate:"required"`
	Version   uint32 `mapstructure:"version" yaml:"version"`
	Procedure uint32 `mapstructure:"procedure" yaml:"procedure"`

	// Timeout bounds one attempt: dial, send and receive
	Timeout time.Duration `mapstructure:"timeout" yaml:"-" validate:"required,gt=0"`

	// Attempts is the number of calls made per run
	Attempts uint `mapstructure:"attempts" yaml:"attempts" validate:"required,gte=1"`

	// Rate is the sustained number of attempts per second (0 = unlimited)
	Rate uint `mapstructure:"rate" yaml:"rate"`

	// Burst is the number of attempts allowed back to back
	Burst uint `mapstructure:"burst" yaml:"burst"`

	// StartXID is the first transaction id used. 0 picks one from the
	// session id.
	StartXID uint32 `mapstructure:"start_xid" yaml:"start_xid"`

	// MaxRecordSize bounds a reassembled reply record in bytes
	MaxRecordSize uint32 `mapstructure:"max_record_size" yaml:"max_record_size" validate:"gte=24,lte=2147483647"`
}

// MarshalYAML writes Timeout in time.Duration notation ("5s") so that the
// generated file reads back through the duration decode hook.
func (c ProbeConfig) MarshalYAML() (any, error) {
	type plain ProbeConfig
	return struct {
		plain   `yaml:",inline"`
		Timeout string `yaml:"timeout"`
	}{plain(c), c.Timeout.String()}, nil
}

// MetricsConfig controls the Prometheus HTTP endpoint.
type MetricsConfig struct {
	// Enabled turns on metrics collection and the /metrics endpoint
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for /metrics
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (NTIRPC_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath uses the default location; a missing file there is
// not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	cfg, err := decode(v.AllSettings())
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// decode converts viper's settings map into a Config. Environment values
// arrive as strings, so input is weakly typed and durations are parsed.
func decode(settings map[string]any) (*Config, error) {
	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: NTIRPC_PROBE_ADDRESS=nfs1:2049
	v.SetEnvPrefix("NTIRPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AllSettings only reports keys viper knows about; registering every key
	// lets an environment variable override a key the file leaves out.
	registerKeys(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/ntirpc/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// registerKeys declares every configuration key with its zero value.
// Real defaults are applied later by ApplyDefaults.
func registerKeys(v *viper.Viper) {
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"probe.address", "probe.program", "probe.version", "probe.procedure",
		"probe.timeout", "probe.attempts", "probe.rate", "probe.burst",
		"probe.start_xid", "probe.max_record_size",
		"metrics.enabled", "metrics.port",
	} {
		v.SetDefault(key, nil)
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper, configPath string) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "ntirpc")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "ntirpc")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
