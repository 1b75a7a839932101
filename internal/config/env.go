package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config for environment decoding. Durations use the
// time.ParseDuration format ("30s").
type envConfig struct {
	ServerEndpointURL   string        `env:"PARKIT_SERVER_URL"`
	RequestTimeout      time.Duration `env:"PARKIT_REQUEST_TIMEOUT"`
	DataDir             string        `env:"PARKIT_DATA_DIR"`
	OnlineCheckInterval time.Duration `env:"PARKIT_ONLINE_CHECK_INTERVAL"`
	ExpiryWatchInterval time.Duration `env:"PARKIT_EXPIRY_WATCH_INTERVAL"`
	StatusRateInterval  time.Duration `env:"PARKIT_STATUS_RATE_INTERVAL"`
	StatusRateBurst     int           `env:"PARKIT_STATUS_RATE_BURST"`
}

// parseEnv overlays cfg with values from PARKIT_* environment variables.
// Unset variables leave the current values untouched; a malformed value
// panics.
func parseEnv(config *Config) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		panic(err)
	}

	if ec.ServerEndpointURL != "" {
		config.ServerEndpointURL = ec.ServerEndpointURL
	}
	if ec.RequestTimeout != 0 {
		config.RequestTimeout = ec.RequestTimeout
	}
	if ec.DataDir != "" {
		config.DataDir = ec.DataDir
	}
	if ec.OnlineCheckInterval != 0 {
		config.OnlineCheckInterval = ec.OnlineCheckInterval
	}
	if ec.ExpiryWatchInterval != 0 {
		config.ExpiryWatchInterval = ec.ExpiryWatchInterval
	}
	if ec.StatusRateInterval != 0 {
		config.StatusRateInterval = ec.StatusRateInterval
	}
	if ec.StatusRateBurst != 0 {
		config.StatusRateBurst = ec.StatusRateBurst
	}
}
