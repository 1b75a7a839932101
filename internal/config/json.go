package config

import (
	"encoding/json"
	"os"

	"github.com/parkit-app/parkit-go/internal/flagx"
	"github.com/parkit-app/parkit-go/internal/timex"
)

// JsonConfig mirrors Config for JSON decoding. Durations accept both
// time.ParseDuration strings ("30s") and integer nanoseconds.
type JsonConfig struct {
	ServerEndpointURL   string         `json:"server_endpoint_url"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	DataDir             string         `json:"data_dir"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	ExpiryWatchInterval timex.Duration `json:"expiry_watch_interval"`
	StatusRateInterval  timex.Duration `json:"status_rate_interval"`
	StatusRateBurst     int            `json:"status_rate_burst"`
}

// parseJson overlays cfg with values from the JSON file named by the
// -c/-config flag. Absent file means no changes; an unreadable or invalid
// file panics. Only fields present in the file override defaults.
func parseJson(config *Config) {
	configFileName := flagx.JsonConfigFlags()

	if configFileName == "" {
		return
	}

	data, err := os.ReadFile(configFileName)
	if err != nil {
		panic(err)
	}

	var jsonConfig JsonConfig
	if err = json.Unmarshal(data, &jsonConfig); err != nil {
		panic(err)
	}

	if jsonConfig.ServerEndpointURL != "" {
		config.ServerEndpointURL = jsonConfig.ServerEndpointURL
	}
	if jsonConfig.RequestTimeout.Duration != 0 {
		config.RequestTimeout = jsonConfig.RequestTimeout.Duration
	}
	if jsonConfig.DataDir != "" {
		config.DataDir = jsonConfig.DataDir
	}
	if jsonConfig.OnlineCheckInterval.Duration != 0 {
		config.OnlineCheckInterval = jsonConfig.OnlineCheckInterval.Duration
	}
	if jsonConfig.ExpiryWatchInterval.Duration != 0 {
		config.ExpiryWatchInterval = jsonConfig.ExpiryWatchInterval.Duration
	}
	if jsonConfig.StatusRateInterval.Duration != 0 {
		config.StatusRateInterval = jsonConfig.StatusRateInterval.Duration
	}
	if jsonConfig.StatusRateBurst != 0 {
		config.StatusRateBurst = jsonConfig.StatusRateBurst
	}
}
