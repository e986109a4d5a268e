package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "VISTORIA_"

// envFiles are loaded by parseEnv when present; variables already set in the
// process environment are not overridden.
var envFiles = []string{".env"}

// parseEnv loads .env files and applies VISTORIA_* variables to config.
func parseEnv(config *Config) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return applyEnv(config, os.LookupEnv)
}

func applyEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	var errs []string
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, envPrefix+name)
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int64) {
		if v, ok := lookup(envPrefix + name); ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, envPrefix+name)
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, envPrefix+name)
				return
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &config.HTTPAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	boolean("AUTH_ENABLED", &config.AuthEnabled)
	duration("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	str("STORAGE_BACKEND", &config.StorageBackend)
	str("UPLOAD_DIR", &config.UploadDir)
	str("PHOTO_BASE_URL", &config.PhotoBaseURL)
	integer("MAX_UPLOAD_SIZE", &config.MaxUploadSize)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("REDIS_ADDR", &config.RedisAddr)
	str("REDIS_PASSWORD", &config.RedisPassword)
	redisDB := int64(config.RedisDB)
	integer("REDIS_DB", &redisDB)
	config.RedisDB = int(redisDB)
	duration("CATALOG_CACHE_TTL", &config.CatalogCacheTTL)
	str("LOG_BACKEND", &config.LogBackend)
	str("LOG_LEVEL", &config.LogLevel)
	str("CARD_PATCH_POLICY", &config.CardPatchPolicy)
	boolean("ENFORCE_PHOTO_INVARIANT", &config.EnforcePhotoInvariant)
	if v, ok := lookup(envPrefix + "CORS_ORIGINS"); ok {
		config.CORSOrigins = splitList(v)
	}
	duration("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(errs, ", "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
