package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds runtime settings for the inspection CLI.
//
// Fields:
//   - ServerURL: base URL of the REST API.
//   - AccessToken: bearer token sent with every request.
//   - CorretorID: default agent for list and create.
//   - Timeout / RetryCount: per-request timeout and transport retries.
//   - DraftsPath: SQLite file holding unflushed card edits.
//   - Verbose: print HTTP client diagnostics to stderr.
type Config struct {
	ServerURL   string
	AccessToken string
	CorretorID  string
	Timeout     time.Duration
	RetryCount  int
	DraftsPath  string
	Verbose     bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.AccessToken = ""
	c.CorretorID = ""
	c.Timeout = 15 * time.Second
	c.RetryCount = 2
	c.DraftsPath = "vistoria-drafts.db"
}

func (c *Config) Validate() error {
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server url must start with http:// or https://, got %q", c.ServerURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("retry count must not be negative, got %d", c.RetryCount)
	}
	return nil
}

// Load applies defaults, then the environment, then the JSON file at
// jsonPath when it is not empty. Command-line flags are applied afterwards
// by Flags.Apply.
func Load(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	return cfg, nil
}
