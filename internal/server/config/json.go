package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/vistoria/internal/flagx"
	"github.com/dmitrijs2005/vistoria/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// both strings such as "10s" and integer nanoseconds. Pointer fields
// distinguish an explicit false/0 from an absent key.
type JsonConfig struct {
	HTTPAddr                    string          `json:"http_addr"`
	DatabaseDSN                 string          `json:"database_dsn"`
	SecretKey                   string          `json:"secret_key"`
	AuthEnabled                 *bool           `json:"auth_enabled"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	StorageBackend              string          `json:"storage_backend"`
	UploadDir                   string          `json:"upload_dir"`
	PhotoBaseURL                string          `json:"photo_base_url"`
	MaxUploadSize               *int64          `json:"max_upload_size"`
	S3RootUser                  string          `json:"s3_root_user"`
	S3RootPassword              string          `json:"s3_root_password"`
	S3Bucket                    string          `json:"s3_bucket"`
	S3Region                    string          `json:"s3_region"`
	S3BaseEndpoint              string          `json:"s3_base_endpoint"`
	RedisAddr                   string          `json:"redis_addr"`
	RedisPassword               string          `json:"redis_password"`
	RedisDB                     *int            `json:"redis_db"`
	CatalogCacheTTL             *timex.Duration `json:"catalog_cache_ttl"`
	LogBackend                  string          `json:"log_backend"`
	LogLevel                    string          `json:"log_level"`
	CardPatchPolicy             string          `json:"card_patch_policy"`
	EnforcePhotoInvariant       *bool           `json:"enforce_photo_invariant"`
	CORSOrigins                 []string        `json:"cors_origins"`
	ShutdownTimeout             *timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays config with the JSON file named by -c/-config, if any.
// Keys absent from the file leave the current values untouched.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	setStr(&config.HTTPAddr, c.HTTPAddr)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.SecretKey, c.SecretKey)
	if c.AuthEnabled != nil {
		config.AuthEnabled = *c.AuthEnabled
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setStr(&config.StorageBackend, c.StorageBackend)
	setStr(&config.UploadDir, c.UploadDir)
	setStr(&config.PhotoBaseURL, c.PhotoBaseURL)
	if c.MaxUploadSize != nil {
		config.MaxUploadSize = *c.MaxUploadSize
	}
	setStr(&config.S3RootUser, c.S3RootUser)
	setStr(&config.S3RootPassword, c.S3RootPassword)
	setStr(&config.S3Bucket, c.S3Bucket)
	setStr(&config.S3Region, c.S3Region)
	setStr(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setStr(&config.RedisAddr, c.RedisAddr)
	setStr(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	if c.CatalogCacheTTL != nil {
		config.CatalogCacheTTL = c.CatalogCacheTTL.Duration
	}
	setStr(&config.LogBackend, c.LogBackend)
	setStr(&config.LogLevel, c.LogLevel)
	setStr(&config.CardPatchPolicy, c.CardPatchPolicy)
	if c.EnforcePhotoInvariant != nil {
		config.EnforcePhotoInvariant = *c.EnforcePhotoInvariant
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}
