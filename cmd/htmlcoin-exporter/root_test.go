package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cirocosta/htmlcoin-exporter/pkg/config"
)

func TestCommand_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv(config.KeyTelemetryPath, "/from-env")

	c := &command{}
	cmd := c.Cmd()
	require.NoError(t, cmd.Flags().Parse([]string{
		"--telemetry-path", "/from-flag",
		"--geoip-filepath", "/tmp/GeoLite2-Country.mmdb",
	}))

	cfg, err := config.Load(c.v)
	require.NoError(t, err)

	assert.Equal(t, "/from-flag", cfg.TelemetryPath)
	assert.Equal(t, "/tmp/GeoLite2-Country.mmdb", cfg.GeoIPFilepath)
}

func TestCommand_EnvironmentWithoutFlags(t *testing.T) {
	t.Setenv(config.KeyTelemetryPath, "/from-env")

	c := &command{}
	cmd := c.Cmd()
	require.NoError(t, cmd.Flags().Parse(nil))

	cfg, err := config.Load(c.v)
	require.NoError(t, err)

	assert.Equal(t, "/from-env", cfg.TelemetryPath)
	assert.Empty(t, cfg.GeoIPFilepath)
}

func TestCommand_InvalidConfigFails(t *testing.T) {
	t.Setenv(config.KeyRPCPort, "not-a-port")

	cmd := (&command{}).Cmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.KeyRPCPort)
}

func TestVersion(t *testing.T) {
	out := &bytes.Buffer{}

	cmd := (&command{}).Cmd()
	cmd.AddCommand(versionCmd)
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "htmlcoin-exporter dev (dev)\n", out.String())
}

func TestNewLogger(t *testing.T) {
	log, flush, err := newLogger(zapcore.WarnLevel)
	require.NoError(t, err)
	defer flush()

	assert.False(t, log.Enabled(), "info must be disabled at warn level")
}
