// Package config loads runtime configuration for the gophauth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. GOPHAUTH_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   API base URL
//	-d string   session database file
//	-t int      request timeout (seconds)
//	-i int      session check interval (seconds)
//	-s string   authorization scheme, Bearer or JWT
//	-l string   log level
//	-m string   metrics listen address
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "15s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://auth.example.com",
//	  "storage_path": "/var/lib/gophauth/session.db",
//	  "request_timeout": "15s",
//	  "session_check_interval": "1m",
//	  "auth_scheme": "Bearer",
//	  "log_level": "info",
//	  "metrics_addr": "127.0.0.1:9100"
//	}
//
// LoadConfig never validates; call (*Config).Validate before use.
package config
