// Package config holds daemon configuration: defaults, an optional YAML
// file, and command-line flag overrides, applied in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the autoscaler daemon.
type Config struct {
	Addr      string `yaml:"addr"`       // Status API listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
	DBPath    string `yaml:"db"`         // SQLite audit database path (":memory:" for testing)

	PollInterval     Duration `yaml:"poll_interval"`     // Tick cadence (default 1m)
	HistoryRetention Duration `yaml:"history_retention"` // Audit trail horizon (default 24h)

	Drone    Endpoint `yaml:"drone"`    // Job-queue server
	Machines Endpoint `yaml:"machines"` // Fleet manager

	Scaler ScalerConfig `yaml:"scaler"`
}

// Endpoint locates one external collaborator.
type Endpoint struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// ScalerConfig holds the decision-rule timing parameters. Zero values fall
// back to the engine defaults.
type ScalerConfig struct {
	PendingExpiry Duration `yaml:"pending_expiry"`
	BillingWindow Duration `yaml:"billing_window"`
	StopSlack     Duration `yaml:"stop_slack"`
	MaxAge        Duration `yaml:"max_age"`
}

// Default returns sensible defaults. Collaborator URLs have no default;
// they must come from the config file or flags.
func Default() Config {
	return Config{
		Addr:             ":8080",
		LogLevel:         "info",
		LogFormat:        "text",
		PollInterval:     Duration(time.Minute),
		HistoryRetention: Duration(24 * time.Hour),
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration can drive a daemon.
func (c Config) Validate() error {
	if c.Drone.URL == "" {
		return fmt.Errorf("drone.url is required")
	}
	if c.Machines.URL == "" {
		return fmt.Errorf("machines.url is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	return nil
}

// Duration is a time.Duration that unmarshals from YAML strings like "10m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
