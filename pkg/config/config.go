// Package config defines the server configuration and its YAML loader.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/getlagd/lagd/pkg/endpoint"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Config is the full server configuration.
type Config struct {
	Server      Server            `yaml:"server"`
	Defaults    endpoint.Defaults `yaml:"defaults"`
	Registry    Registry          `yaml:"registry"`
	Persistence Persistence       `yaml:"persistence"`
	Stats       Stats             `yaml:"stats"`
	Logging     Logging           `yaml:"logging"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Registry bounds the endpoint store.
type Registry struct {
	MaxEndpoints int `yaml:"maxEndpoints"`
}

// Persistence configures the snapshot gateway.
type Persistence struct {
	Enabled  bool   `yaml:"enabled"`
	FilePath string `yaml:"filePath"`
}

// Stats configures periodic statistics reporting.
type Stats struct {
	LogInterval Duration `yaml:"logInterval"`
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "10s" or "1m30s". Bare numbers are read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		dur, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(dur)
		return nil
	}

	var secs int
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("invalid duration value %q", value.Value)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Logging configures the log output.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// LokiURL, when set, ships logs to a Loki push endpoint in
	// addition to the local output.
	LokiURL string `yaml:"lokiUrl"`
}

// Default creates a config with the stock settings.
func Default() *Config {
	return &Config{
		Server: Server{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Defaults: endpoint.Defaults{
			MinDelayMs: 10,
			MaxDelayMs: 100,
			ErrorRate:  0.0,
		},
		Registry: Registry{
			MaxEndpoints: endpoint.DefaultMaxEntries,
		},
		Persistence: Persistence{
			Enabled:  false,
			FilePath: "./lagd-endpoints.json",
		},
		Stats: Stats{
			LogInterval: Duration(10 * time.Second),
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file and merges it over the defaults.
// Returns wrapped errors for common failure cases.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the merged configuration as a unit.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Registry.MaxEndpoints < 1 {
		return fmt.Errorf("%w: maxEndpoints must be positive", ErrInvalidConfig)
	}
	if c.Persistence.Enabled && c.Persistence.FilePath == "" {
		return fmt.Errorf("%w: persistence enabled without a file path", ErrInvalidConfig)
	}
	if c.Stats.LogInterval < 0 {
		return fmt.Errorf("%w: stats log interval cannot be negative", ErrInvalidConfig)
	}
	return nil
}
