package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		expectErr bool
		check     func(t *testing.T, c *Config)
	}{
		{
			name: "short flags",
			args: []string{"cmd",
				"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			},
			check: func(t *testing.T, c *Config) {
				want := &Config{
					HTTPAddr:       "127.0.0.1:9090",
					DatabaseDSN:    "db",
					SecretKey:      "secret",
					S3RootUser:     "user",
					S3RootPassword: "password",
					S3Bucket:       "bucket",
					S3Region:       "us-west-1",
					S3BaseEndpoint: "http://endpoint",
				}
				assert.Empty(t, cmp.Diff(want, c))
			},
		},
		{
			name: "long flags and bools",
			args: []string{"cmd",
				"-storage", "s3", "-enforce-photos", "-patch-policy", "merge",
				"-auth=false", "-cache-ttl", "2m", "-redis-db", "4", "-cors", "https://x.example,https://y.example",
				"-max-upload", "4096", "-c", "ignored.json",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "s3", c.StorageBackend)
				assert.True(t, c.EnforcePhotoInvariant)
				assert.Equal(t, PatchPolicyMerge, c.CardPatchPolicy)
				assert.False(t, c.AuthEnabled)
				assert.Equal(t, 2*time.Minute, c.CatalogCacheTTL)
				assert.Equal(t, 4, c.RedisDB)
				assert.Equal(t, []string{"https://x.example", "https://y.example"}, c.CORSOrigins)
				assert.Equal(t, int64(4096), c.MaxUploadSize)
			},
		},
		{
			name:      "bad value",
			args:      []string{"cmd", "-redis-db", "four"},
			expectErr: true,
		},
	}

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}
			err := parseFlags(config)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}
