package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/explorer/pkg/slogx"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from an optional YAML file named by CONFIG_PATH and then
// from the environment. Environment variables win over the file.
type Config struct {
	Env                  string        `yaml:"env" env:"ENV" env-default:"dev"`
	LogLevel             string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat            string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	Port                 int           `yaml:"port" env:"PORT" env-default:"8080"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD" env-default:"10s"`
	HousekeepingInterval time.Duration `yaml:"housekeeping_interval" env:"HOUSEKEEPING_INTERVAL" env-default:"1h"`
	DatabaseFile         string        `yaml:"database_file" env:"DATABASE_FILE" env-default:"explorer.db"`

	JWTSecret   string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	JWTTTL      time.Duration `yaml:"jwt_ttl" env:"JWT_TTL" env-default:"168h"`
	AdminEmails []string      `yaml:"admin_emails" env:"ADMIN_EMAILS" env-separator:","`

	// PublicBaseURL is the frontend origin used in email links when the
	// request carries no Origin header.
	PublicBaseURL      string   `yaml:"public_base_url" env:"PUBLIC_BASE_URL" env-default:"http://localhost:5173"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173,http://localhost:5174"`

	Cache CacheConfig `yaml:"cache"`
	Blob  BlobConfig  `yaml:"blob"`
	Mail  MailConfig  `yaml:"mail"`
}

type CacheConfig struct {
	Driver        string `yaml:"driver" env:"CACHE_DRIVER" env-default:"memory"`
	Capacity      uint64 `yaml:"capacity" env:"CACHE_CAPACITY" env-default:"10000"`
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	RedisPrefix   string `yaml:"redis_prefix" env:"REDIS_PREFIX" env-default:"explorer:"`
}

type BlobConfig struct {
	Driver    string `yaml:"driver" env:"BLOB_DRIVER" env-default:"memory"`
	Endpoint  string `yaml:"s3_endpoint" env:"S3_ENDPOINT"`
	AccessKey string `yaml:"s3_access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"s3_secret_key" env:"S3_SECRET_KEY"`
	Bucket    string `yaml:"s3_bucket" env:"S3_BUCKET" env-default:"explorer-media"`
	Region    string `yaml:"s3_region" env:"S3_REGION"`

	// PublicURL prefixes stored object keys in media URLs. The default
	// points at the built in /r2/ passthrough.
	PublicURL string `yaml:"media_public_url" env:"MEDIA_PUBLIC_URL" env-default:"http://localhost:8080/r2"`
}

type MailConfig struct {
	ResendAPIKey string `yaml:"resend_api_key" env:"RESEND_API_KEY"`
	From         string `yaml:"from" env:"MAIL_FROM"`
}

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverMinio  = "minio"
)

// LoadConfig reads the configuration. path overrides CONFIG_PATH when set.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadConfig that panics on error.
func MustLoadConfig(path string) Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) normalize() {
	c.AdminEmails = cleanList(c.AdminEmails, strings.ToLower)
	c.CORSAllowedOrigins = cleanList(c.CORSAllowedOrigins, nil)
	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	c.Blob.Driver = strings.ToLower(strings.TrimSpace(c.Blob.Driver))
}

func (c *Config) validate() error {
	var errs []error

	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("jwt_secret must be at least 16 bytes"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("jwt_ttl must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if _, err := slogx.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.LogFormat); f != "json" && f != "text" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.HousekeepingInterval < time.Minute {
		errs = append(errs, errors.New("housekeeping_interval must be at least 1m"))
	}

	switch c.Cache.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("redis_addr is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache driver %q", c.Cache.Driver))
	}

	switch c.Blob.Driver {
	case DriverMemory:
	case DriverMinio:
		if c.Blob.Endpoint == "" || c.Blob.AccessKey == "" || c.Blob.SecretKey == "" {
			errs = append(errs, errors.New("s3_endpoint, s3_access_key and s3_secret_key are required for the minio blob store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Blob.Driver))
	}

	return errors.Join(errs...)
}

func cleanList(in []string, fn func(string) string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if fn != nil {
			s = fn(s)
		}
		out = append(out, s)
	}
	return out
}
