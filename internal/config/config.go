package config

import "time"

// Config holds the client configuration.
//
// Fields:
//   - ServerEndpointURL: base URL of the Park-IT backend, without the
//     /api/v1 prefix (e.g. "http://127.0.0.1:8000").
//   - RequestTimeout: per-request timeout for HTTP calls to the backend.
//   - DataDir: directory for local state (secure store database and device
//     key). Empty means a "parkit" subdirectory next to the binary.
//   - OnlineCheckInterval: how often the connectivity watcher pings the
//     backend health endpoint.
//   - ExpiryWatchInterval: how often the expiry watcher inspects the active
//     parking session for approaching deadlines.
//   - StatusRateInterval / StatusRateBurst: rate limit applied to curbside
//     status preview requests (one request per interval, with bursts).
type Config struct {
	ServerEndpointURL   string
	RequestTimeout      time.Duration
	DataDir             string
	OnlineCheckInterval time.Duration
	ExpiryWatchInterval time.Duration
	StatusRateInterval  time.Duration
	StatusRateBurst     int
}

// LoadDefaults fills cfg with default values.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 15 * time.Second
	c.DataDir = ""
	c.OnlineCheckInterval = 30 * time.Second
	c.ExpiryWatchInterval = 30 * time.Second
	c.StatusRateInterval = 5 * time.Second
	c.StatusRateBurst = 2
}

// LoadConfig returns the effective configuration assembled from defaults,
// the optional JSON file, environment variables and command-line flags,
// in that order of precedence (flags win).
func LoadConfig() *Config {
	cfg := &Config{}

	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)

	return cfg
}
