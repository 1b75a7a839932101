package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Run("overrides earlier layers", func(t *testing.T) {
		t.Setenv("PARKIT_SERVER_URL", "http://env.example:8000")
		t.Setenv("PARKIT_EXPIRY_WATCH_INTERVAL", "90s")
		t.Setenv("PARKIT_STATUS_RATE_BURST", "4")

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Equal(t, "http://env.example:8000", cfg.ServerEndpointURL)
		assert.Equal(t, 90*time.Second, cfg.ExpiryWatchInterval)
		assert.Equal(t, 4, cfg.StatusRateBurst)
		// переменные не задавались — значения из предыдущего слоя
		assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 30*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("malformed duration → panics", func(t *testing.T) {
		t.Setenv("PARKIT_REQUEST_TIMEOUT", "soon")

		cfg := &Config{}
		cfg.LoadDefaults()
		require.Panics(t, func() { parseEnv(cfg) })
	})
}
