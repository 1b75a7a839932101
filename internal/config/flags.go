package config

import (
	"flag"
	"os"
	"time"

	"github.com/parkit-app/parkit-go/internal/flagx"
)

// parseFlags overlays cfg with values from command-line flags. Defaults
// shown in -help reflect the values accumulated from the earlier layers.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-d", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	serverEndpointURL := fs.String("a", config.ServerEndpointURL, "base URL of the Park-IT backend")
	requestTimeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "request timeout in seconds")
	dataDir := fs.String("d", config.DataDir, "directory for local state")
	onlineCheckInterval := fs.Int("i", int(config.OnlineCheckInterval.Seconds()), "online check interval in seconds")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ServerEndpointURL = *serverEndpointURL
	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	config.DataDir = *dataDir
	config.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
