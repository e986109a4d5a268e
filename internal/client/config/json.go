package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/vistoria/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent keys
// leave the current value untouched.
type JsonConfig struct {
	ServerURL   *string         `json:"server_url"`
	AccessToken *string         `json:"access_token"`
	CorretorID  *string         `json:"corretor_id"`
	Timeout     *timex.Duration `json:"timeout"`
	RetryCount  *int            `json:"retry_count"`
	DraftsPath  *string         `json:"drafts_path"`
}

// parseJson overlays cfg with the JSON file at path; an empty path is a no-op.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	jc.apply(cfg)
	return nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.AccessToken != nil {
		cfg.AccessToken = *jc.AccessToken
	}
	if jc.CorretorID != nil {
		cfg.CorretorID = *jc.CorretorID
	}
	if jc.Timeout != nil {
		cfg.Timeout = time.Duration(jc.Timeout.Duration)
	}
	if jc.RetryCount != nil {
		cfg.RetryCount = *jc.RetryCount
	}
	if jc.DraftsPath != nil {
		cfg.DraftsPath = *jc.DraftsPath
	}
}
