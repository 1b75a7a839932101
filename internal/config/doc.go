// Package config provides the client configuration.
//
// # Sources & precedence
//
// Values are assembled in the following order, with later sources
// overriding earlier ones:
//
//  1. Built-in defaults (Config.LoadDefaults).
//  2. JSON config file, when a path is given via -c/-config.
//  3. Environment variables with the PARKIT_ prefix.
//  4. Command-line flags.
//
// JSON fields and environment variables that are absent leave the value
// from the previous layer untouched. Malformed input at any layer panics:
// a client started with a broken configuration should not come up.
//
// # Supported flags
//
//	-a           base URL of the Park-IT backend
//	-t           request timeout in seconds
//	-d           directory for local state
//	-i           online check interval in seconds
//	-c, -config  path to the JSON config file
//
// The rate limit for curbside status previews (interval and burst) is
// configurable only via the JSON file or environment variables.
//
// # Environment variables
//
//	PARKIT_SERVER_URL             base URL of the backend
//	PARKIT_REQUEST_TIMEOUT        request timeout ("15s")
//	PARKIT_DATA_DIR               directory for local state
//	PARKIT_ONLINE_CHECK_INTERVAL  connectivity probe interval ("30s")
//	PARKIT_EXPIRY_WATCH_INTERVAL  session expiry poll interval ("30s")
//	PARKIT_STATUS_RATE_INTERVAL   min spacing of status previews ("5s")
//	PARKIT_STATUS_RATE_BURST      allowed status preview burst
//
// # JSON schema
//
//	{
//	  "server_endpoint_url": "http://127.0.0.1:8000",
//	  "request_timeout": "15s",
//	  "data_dir": "/var/lib/parkit",
//	  "online_check_interval": "30s",
//	  "expiry_watch_interval": "30s",
//	  "status_rate_interval": "5s",
//	  "status_rate_burst": 2
//	}
//
// Duration values accept time.ParseDuration strings or integer
// nanoseconds.
//
// # Primary API
//
//   - LoadConfig: returns the effective *Config assembled from all
//     sources.
//   - Config.LoadDefaults: resets a Config to built-in defaults.
package config
