// Package config loads runtime configuration for the Loominal CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c, -config or
//     $LOOMINAL_CONFIG.
//  3. LOOMINAL_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "30s" or integer nanoseconds. Empty values keep the default:
//
//	{
//	  "api_base_url": "https://api.loominal.app",
//	  "auth_domain": "loominal.eu.auth0.com",
//	  "client_id": "abc123",
//	  "audience": "https://api.loominal.app",
//	  "redirect_url": "http://127.0.0.1:8765/callback",
//	  "request_timeout": "30s",
//	  "online_check_interval": "30s"
//	}
package config
