// Package config loads runtime configuration for the inspection CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file and VISTORIA_CLI_* environment variables.
//  3. Optional JSON file selected with --config/-c.
//  4. Persistent command-line flags set explicitly by the user.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "15s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "access_token": "eyJ...",
//	  "corretor_id": "a1",
//	  "timeout": "15s",
//	  "retry_count": 2,
//	  "drafts_path": "vistoria-drafts.db"
//	}
package config
