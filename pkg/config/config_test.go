package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lagd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Defaults.MinDelayMs)
	assert.Equal(t, 100, cfg.Defaults.MaxDelayMs)
	assert.Equal(t, 0.0, cfg.Defaults.ErrorRate)
	assert.Equal(t, 10000, cfg.Registry.MaxEndpoints)
	assert.False(t, cfg.Persistence.Enabled)
	assert.Equal(t, Duration(10*time.Second), cfg.Stats.LogInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 3000
defaults:
  minDelayMs: 50
  maxDelayMs: 500
  errorRate: 0.25
registry:
  maxEndpoints: 100
persistence:
  enabled: true
  filePath: /tmp/lagd.json
stats:
  logInterval: 30s
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Defaults.MinDelayMs)
	assert.Equal(t, 500, cfg.Defaults.MaxDelayMs)
	assert.Equal(t, 0.25, cfg.Defaults.ErrorRate)
	assert.Equal(t, 100, cfg.Registry.MaxEndpoints)
	assert.True(t, cfg.Persistence.Enabled)
	assert.Equal(t, "/tmp/lagd.json", cfg.Persistence.FilePath)
	assert.Equal(t, Duration(30*time.Second), cfg.Stats.LogInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	// Unspecified sections keep the stock values.
	assert.Equal(t, 10, cfg.Defaults.MinDelayMs)
	assert.Equal(t, 10000, cfg.Registry.MaxEndpoints)
}

func TestLoadErrors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := Load(writeConfig(t, ""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [unclosed"))
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("invalid defaults", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
defaults:
  minDelayMs: 500
  maxDelayMs: 100
`))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"zero max endpoints", func(c *Config) { c.Registry.MaxEndpoints = 0 }},
		{"error rate above one", func(c *Config) { c.Defaults.ErrorRate = 1.5 }},
		{"persistence without path", func(c *Config) {
			c.Persistence.Enabled = true
			c.Persistence.FilePath = ""
		}},
		{"negative stats interval", func(c *Config) { c.Stats.LogInterval = Duration(-time.Second) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var cfg struct {
		D Duration `yaml:"d"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("d: 1m30s"), &cfg))
	assert.Equal(t, Duration(90*time.Second), cfg.D)

	require.NoError(t, yaml.Unmarshal([]byte("d: 15"), &cfg))
	assert.Equal(t, Duration(15*time.Second), cfg.D, "bare numbers are seconds")

	assert.Error(t, yaml.Unmarshal([]byte("d: nonsense"), &cfg))
}
