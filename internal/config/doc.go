// Package config loads the dials configuration file.
//
// # Resolution
//
// Load reads the path it is given, or ~/.config/dials/config.toml when the
// path is empty. A missing file is not an error: Default values are used so
// dials works against a local settings API without any setup.
//
// # Fields
//
//	api_base = "127.0.0.1:8750"        # host:port or URL of the settings API
//	api_token = ""                     # sent as a bearer token when set
//	request_timeout_seconds = 5
//	retry_delay_seconds = 5            # delay before a failed key is reloaded
//	max_retries = 1                    # automatic reloads per key
//	max_parallel_loads = 8             # concurrent per-key loads
//
//	[logging]
//	level = "info"                     # debug, info, warn or error
//	file = "~/.local/state/dials/dials.log"
//
//	[notifications]
//	desktop = false                    # mirror error toasts as desktop notifications
//
// String values are trimmed and paths are tilde-expanded. Blank values fall
// back to defaults; out-of-range numbers are rejected.
package config
