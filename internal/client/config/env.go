package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "VISTORIA_CLI_"

var envFiles = []string{".env"}

// parseEnv loads .env files and applies VISTORIA_CLI_* variables to cfg.
func parseEnv(cfg *Config) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []string
	if v, ok := lookup(envPrefix + "SERVER_URL"); ok {
		cfg.ServerURL = v
	}
	if v, ok := lookup(envPrefix + "TOKEN"); ok {
		cfg.AccessToken = v
	}
	if v, ok := lookup(envPrefix + "CORRETOR_ID"); ok {
		cfg.CorretorID = v
	}
	if v, ok := lookup(envPrefix + "DRAFTS_PATH"); ok {
		cfg.DraftsPath = v
	}
	if v, ok := lookup(envPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, envPrefix+"TIMEOUT")
		} else {
			cfg.Timeout = d
		}
	}
	if v, ok := lookup(envPrefix + "RETRY_COUNT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, envPrefix+"RETRY_COUNT")
		} else {
			cfg.RetryCount = n
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(errs, ", "))
	}
	return nil
}
