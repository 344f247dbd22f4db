package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 168*time.Hour, cfg.JWTTTL)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.Equal(t, "explorer.db", cfg.DatabaseFile)
	require.Equal(t, DriverMemory, cfg.Cache.Driver)
	require.Equal(t, DriverMemory, cfg.Blob.Driver)
	require.Equal(t, []string{"http://localhost:5173", "http://localhost:5174"}, cfg.CORSAllowedOrigins)
	require.Empty(t, cfg.AdminEmails)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_EMAILS", " Root@X.com, ,ops@x.com")
	t.Setenv("CACHE_DRIVER", "Redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, []string{"root@x.com", "ops@x.com"}, cfg.AdminEmails)
	require.Equal(t, DriverRedis, cfg.Cache.Driver)
	require.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
	require.Equal(t, 2*time.Hour, cfg.JWTTTL)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jwt_secret: "`+testSecret+`"
port: 7000
blob:
  driver: minio
  s3_endpoint: https://s3.example.org
  s3_access_key: key
  s3_secret_key: secret
`), 0o600))

	// Environment variables win over the file, so make sure none are set.
	for _, k := range []string{"JWT_SECRET", "PORT", "BLOB_DRIVER"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 7000, cfg.Port)
	require.Equal(t, DriverMinio, cfg.Blob.Driver)
	require.Equal(t, "explorer-media", cfg.Blob.Bucket)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"empty secret", map[string]string{"JWT_SECRET": ""}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"unknown cache", map[string]string{"JWT_SECRET": testSecret, "CACHE_DRIVER": "memcached"}},
		{"minio without credentials", map[string]string{"JWT_SECRET": testSecret, "BLOB_DRIVER": "minio"}},
		{"tiny housekeeping interval", map[string]string{"JWT_SECRET": testSecret, "HOUSEKEEPING_INTERVAL": "1s"}},
		{"unknown log level", map[string]string{"JWT_SECRET": testSecret, "LOG_LEVEL": "chatty"}},
		{"unknown log format", map[string]string{"JWT_SECRET": testSecret, "LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_PATH", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			require.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
