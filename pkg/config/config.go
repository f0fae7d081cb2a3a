// Package config loads server configuration from a YAML file with
// environment variable overrides. Every field has a working default, so an
// empty configuration starts a usable server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the bankd server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "5s"
// as well as from plain integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("config: invalid duration value")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Address to listen on (e.g. ":8088")
	Address string `yaml:"address"`

	// ReadTimeout for HTTP requests
	ReadTimeout Duration `yaml:"read_timeout"`

	// WriteTimeout for HTTP responses
	WriteTimeout Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	// AdminKey guards the account listing endpoint when non-empty.
	// When empty a random key is generated and logged at startup.
	AdminKey string `yaml:"admin_key"`
}

// LedgerConfig holds ledger behavior settings.
type LedgerConfig struct {
	// StartingBalance is credited to every newly opened account.
	StartingBalance int64 `yaml:"starting_balance"`

	// ExpectedAccounts sizes the username bloom filter.
	ExpectedAccounts uint `yaml:"expected_accounts"`

	// FilterFalsePositiveRate is the bloom filter's target rate.
	FilterFalsePositiveRate float64 `yaml:"filter_false_positive_rate"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Development bool   `yaml:"development"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8088",
			ReadTimeout:     Duration(5 * time.Second),
			WriteTimeout:    Duration(10 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Ledger: LedgerConfig{
			StartingBalance:         100,
			ExpectedAccounts:        10000,
			FilterFalsePositiveRate: 0.01,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "bankledger",
		},
	}
}

// Load reads configuration from the YAML file at path, applied on top of
// defaults, then applies environment overrides. An empty path skips the
// file and uses defaults plus environment only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment.
// BANKD_ADDR, BANKD_ADMIN_KEY, BANKD_STARTING_BALANCE.
func (c *Config) applyEnv() {
	if addr := os.Getenv("BANKD_ADDR"); addr != "" {
		c.Server.Address = addr
	}
	if key := os.Getenv("BANKD_ADMIN_KEY"); key != "" {
		c.Server.AdminKey = key
	}
	if v := os.Getenv("BANKD_STARTING_BALANCE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Ledger.StartingBalance = n
		}
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("config: server address must not be empty")
	}
	if c.Ledger.StartingBalance < 0 {
		return errors.New("config: starting balance must not be negative")
	}
	if c.Ledger.FilterFalsePositiveRate < 0 || c.Ledger.FilterFalsePositiveRate >= 1 {
		return errors.New("config: filter false positive rate must be in [0, 1)")
	}
	return nil
}
