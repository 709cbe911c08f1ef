// Package config loads logdeck's configuration.
//
// # Sources
//
// Values are resolved in this order, later sources winning:
//
//  1. Built-in defaults
//  2. ~/.config/logdeck/config.toml (or the --config path)
//  3. LOGDECK_* environment variables
//  4. Command-line flags (applied by cmd/logdeck)
//
// A missing config file is normal and yields defaults. A file that exists but
// cannot be parsed is an error, as is an environment variable holding a value
// of the wrong type. cmd/logdeck loads a .env file before calling Load, so
// overrides can also live there.
//
// # File Format
//
//	api_url = "http://127.0.0.1:8080"
//	poll_seconds = 2
//	request_timeout_seconds = 5
//	catalog_seconds = 30
//	servers = ["web-01", "db-01"]
//	log_file = "~/.local/state/logdeck/logdeck.log"
//
// servers is only a fallback for the server picker when the service cannot
// answer /api/servers. Names are trimmed and de-duplicated.
//
// # Environment
//
//	LOGDECK_API_URL                  api_url
//	LOGDECK_POLL_SECONDS             poll_seconds
//	LOGDECK_REQUEST_TIMEOUT_SECONDS  request_timeout_seconds
//	LOGDECK_CATALOG_SECONDS          catalog_seconds
//	LOGDECK_SERVERS                  servers, comma separated
//	LOGDECK_LOG_FILE                 log_file
//
// # Path Expansion
//
// Paths starting with "~" are expanded against the user's home directory and
// made absolute.
package config
