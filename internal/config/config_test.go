package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvRPCEndpoint, EnvWSEndpoint, EnvKeypair, EnvPostgresDSN, EnvClickhouseDSN,
		EnvRedisURL, EnvConfirmTimeout, EnvMetricsAddr, EnvLogLevel, EnvAutoApprove,
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultRPCEndpoint, cfg.RPCEndpoint)
	assert.Equal(t, DefaultConfirmTimeout, cfg.ConfirmTimeout)
	assert.Equal(t, DefaultMetricsAddr, cfg.MetricsAddr)
	assert.False(t, cfg.AutoApprove)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRPCEndpoint, "http://localhost:8899")
	t.Setenv(EnvWSEndpoint, "ws://localhost:8900")
	t.Setenv(EnvConfirmTimeout, "45s")
	t.Setenv(EnvAutoApprove, "true")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8899", cfg.RPCEndpoint)
	assert.Equal(t, "ws://localhost:8900", cfg.WSEndpoint)
	assert.Equal(t, 45*time.Second, cfg.ConfirmTimeout)
	assert.True(t, cfg.AutoApprove)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_BadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfirmTimeout, "soon")
	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	clearEnv(t)
	t.Setenv(EnvAutoApprove, "maybe")
	_, err = FromEnv()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			RPCEndpoint:    "https://api.devnet.solana.com",
			ConfirmTimeout: time.Second,
			LogLevel:       "debug",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"rpc scheme", func(c *Config) { c.RPCEndpoint = "ws://x" }},
		{"rpc empty", func(c *Config) { c.RPCEndpoint = "" }},
		{"ws scheme", func(c *Config) { c.WSEndpoint = "http://x" }},
		{"redis scheme", func(c *Config) { c.RedisURL = "http://x" }},
		{"clickhouse scheme", func(c *Config) { c.ClickhouseDSN = "tcp://x" }},
		{"timeout", func(c *Config) { c.ConfirmTimeout = 0 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	require.NoError(t, base().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvKeypair)
	os.Unsetenv(EnvMetricsAddr)

	dir := t.TempDir()
	env := "STAKEPOOL_KEYPAIR=/tmp/id.json\nMETRICS_ADDR=:8081\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	t.Chdir(dir)

	cfg, err := Load(logrus.New())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/id.json", cfg.KeypairPath)
	assert.Equal(t, ":8081", cfg.MetricsAddr)
}

func TestInitLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, InitLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, InitLogger("nonsense").GetLevel())
}
