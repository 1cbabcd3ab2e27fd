package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getlagd/lagd/pkg/config"
)

func TestBuildConfigFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "lagd.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
server:
  port: 3000
defaults:
  minDelayMs: 5
  maxDelayMs: 50
`), 0o644))

	require.NoError(t, serveCmd.ParseFlags([]string{
		"--config", cfgPath,
		"--port", "4000",
		"--error-rate", "0.2",
	}))
	serveFlagVals.configFile = cfgPath

	cfg, err := buildConfig(serveCmd, &serveFlagVals)
	require.NoError(t, err)

	// Explicit flags win over the file.
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, 0.2, cfg.Defaults.ErrorRate)
	// File values win over stock defaults when the flag is untouched.
	assert.Equal(t, 5, cfg.Defaults.MinDelayMs)
	assert.Equal(t, 50, cfg.Defaults.MaxDelayMs)
}

func TestBuildLoggerWithoutLoki(t *testing.T) {
	cfg := config.Default()
	log, loki := buildLogger(cfg)

	require.NotNil(t, log)
	assert.Nil(t, loki, "no Loki handler without a push URL")
}

func TestBuildLoggerWithLoki(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.LokiURL = "http://localhost:3100/loki/api/v1/push"

	log, loki := buildLogger(cfg)
	require.NotNil(t, log)
	require.NotNil(t, loki)
	assert.NoError(t, loki.Close())
}
