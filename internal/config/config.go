// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Environment variable names.
const (
	EnvRPCEndpoint    = "SOLANA_RPC_ENDPOINT"
	EnvWSEndpoint     = "SOLANA_WS_ENDPOINT"
	EnvKeypair        = "STAKEPOOL_KEYPAIR"
	EnvPostgresDSN    = "POSTGRES_DSN"
	EnvClickhouseDSN  = "CLICKHOUSE_DSN"
	EnvRedisURL       = "REDIS_URL"
	EnvConfirmTimeout = "CONFIRM_TIMEOUT"
	EnvMetricsAddr    = "METRICS_ADDR"
	EnvLogLevel       = "LOG_LEVEL"
	EnvAutoApprove    = "STAKEPOOL_AUTO_APPROVE"
)

// Defaults.
const (
	DefaultRPCEndpoint    = "https://api.mainnet-beta.solana.com"
	DefaultConfirmTimeout = 90 * time.Second
	DefaultMetricsAddr    = ":9090"
	DefaultLogLevel       = "info"
)

// Config holds every setting the binaries read.
type Config struct {
	RPCEndpoint    string
	WSEndpoint     string // empty disables signature subscriptions
	KeypairPath    string // empty means no wallet connected
	PostgresDSN    string // empty keeps the journal in memory
	ClickhouseDSN  string // empty keeps snapshots in memory
	RedisURL       string // empty uses an in-process display cache
	ConfirmTimeout time.Duration
	MetricsAddr    string
	LogLevel       string
	AutoApprove    bool
}

// Load reads .env (if present, never overriding the process environment)
// and then the environment.
func Load(log logrus.FieldLogger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	} else if err != nil && log != nil {
		log.Debug("no .env file, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		RPCEndpoint:    getEnv(EnvRPCEndpoint, DefaultRPCEndpoint),
		WSEndpoint:     os.Getenv(EnvWSEndpoint),
		KeypairPath:    os.Getenv(EnvKeypair),
		PostgresDSN:    os.Getenv(EnvPostgresDSN),
		ClickhouseDSN:  os.Getenv(EnvClickhouseDSN),
		RedisURL:       os.Getenv(EnvRedisURL),
		ConfirmTimeout: DefaultConfirmTimeout,
		MetricsAddr:    getEnv(EnvMetricsAddr, DefaultMetricsAddr),
		LogLevel:       getEnv(EnvLogLevel, DefaultLogLevel),
	}

	if raw := os.Getenv(EnvConfirmTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvConfirmTimeout, raw, err)
		}
		cfg.ConfirmTimeout = d
	}
	if raw := os.Getenv(EnvAutoApprove); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvAutoApprove, raw, err)
		}
		cfg.AutoApprove = b
	}

	return cfg, nil
}

// Validate checks endpoint schemes and durations.
func (c *Config) Validate() error {
	if err := checkURL(EnvRPCEndpoint, c.RPCEndpoint, "http", "https"); err != nil {
		return err
	}
	if c.WSEndpoint != "" {
		if err := checkURL(EnvWSEndpoint, c.WSEndpoint, "ws", "wss"); err != nil {
			return err
		}
	}
	if c.RedisURL != "" {
		if err := checkURL(EnvRedisURL, c.RedisURL, "redis", "rediss"); err != nil {
			return err
		}
	}
	if c.ClickhouseDSN != "" {
		if err := checkURL(EnvClickhouseDSN, c.ClickhouseDSN, "clickhouse"); err != nil {
			return err
		}
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, EnvConfirmTimeout)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvLogLevel, err)
	}
	return nil
}

func checkURL(name, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%q must be a %v URL", ErrInvalidConfig, name, raw, schemes)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
