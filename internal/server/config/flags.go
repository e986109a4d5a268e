package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/vistoria/internal/flagx"
)

var (
	valueFlags = []string{
		"-a", "-d", "-s", "-u", "-p", "-b", "-g", "-e",
		"-storage", "-upload-dir", "-photo-base-url", "-max-upload",
		"-redis", "-redis-password", "-redis-db", "-cache-ttl",
		"-log-backend", "-log-level", "-patch-policy", "-cors",
		"-shutdown-timeout", "-token-ttl",
	}
	boolFlags = []string{"-auth", "-enforce-photos"}
)

// parseFlags populates Config fields from command-line flags.
//
// Short forms:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000")
//
// Unknown arguments are dropped by flagx.FilterArgs before parsing, so the
// config file flag and subcommands do not collide with these.
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], valueFlags, boolFlags...)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.BoolVar(&config.AuthEnabled, "auth", config.AuthEnabled, "require bearer tokens")
	fs.DurationVar(&config.AccessTokenValidityDuration, "token-ttl", config.AccessTokenValidityDuration, "lifetime of issued tokens")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.StorageBackend, "storage", config.StorageBackend, "photo storage backend (local|s3)")
	fs.StringVar(&config.UploadDir, "upload-dir", config.UploadDir, "directory for the local photo backend")
	fs.StringVar(&config.PhotoBaseURL, "photo-base-url", config.PhotoBaseURL, "public URL prefix of photos")
	fs.Int64Var(&config.MaxUploadSize, "max-upload", config.MaxUploadSize, "maximum photo size in bytes")

	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address for the catalog cache (empty disables)")
	fs.StringVar(&config.RedisPassword, "redis-password", config.RedisPassword, "redis password")
	fs.IntVar(&config.RedisDB, "redis-db", config.RedisDB, "redis database")
	fs.DurationVar(&config.CatalogCacheTTL, "cache-ttl", config.CatalogCacheTTL, "catalog cache TTL")

	fs.StringVar(&config.LogBackend, "log-backend", config.LogBackend, "log backend (slog|zap)")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	fs.StringVar(&config.CardPatchPolicy, "patch-policy", config.CardPatchPolicy, "card patch policy (overwrite|merge)")
	fs.BoolVar(&config.EnforcePhotoInvariant, "enforce-photos", config.EnforcePhotoInvariant, "reject completion while defect cards lack photos")

	cors := fs.String("cors", strings.Join(config.CORSOrigins, ","), "comma separated CORS origins")
	fs.DurationVar(&config.ShutdownTimeout, "shutdown-timeout", config.ShutdownTimeout, "graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	config.CORSOrigins = splitList(*cors)
	return nil
}
