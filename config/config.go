package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Port        string `toml:"port"`
	GinMode     string `toml:"gin_mode"`
	SiteURL     string `toml:"site_url"`
	DBDriver    string `toml:"db_driver"`
	DatabaseURL string `toml:"database_url"`
	DBLogLevel  string `toml:"db_log_level"`
	Seed        bool   `toml:"seed"`

	// Sessions
	JWTSecret  string        `toml:"jwt_secret"`
	SessionTTL time.Duration `toml:"-"`

	// Page cache
	CacheBackend       string        `toml:"cache_backend"`
	CacheTTL           time.Duration `toml:"-"`
	CacheSweepInterval time.Duration `toml:"-"`
	NATSURL            string        `toml:"nats_url"`
	NATSCacheBucket    string        `toml:"nats_cache_bucket"`

	// Uploaded images
	StorageBackend string `toml:"storage_backend"`
	MediaDir       string `toml:"media_dir"`
	MediaURL       string `toml:"media_url"`
	S3Bucket       string `toml:"s3_bucket"`
	S3Region       string `toml:"s3_region"`
	S3Endpoint     string `toml:"s3_endpoint"`
	S3PublicURL    string `toml:"s3_public_url"`

	// Email Configuration
	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPUsername string `toml:"smtp_username"`
	SMTPPassword string `toml:"smtp_password"`
	FromEmail    string `toml:"from_email"`
	FromName     string `toml:"from_name"`

	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
	RateLimitBurst     int `toml:"rate_limit_burst"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// fileConfig mirrors Config for TOML decoding; durations are strings there.
type fileConfig struct {
	Config
	SessionTTL         string `toml:"session_ttl"`
	CacheTTL           string `toml:"cache_ttl"`
	CacheSweepInterval string `toml:"cache_sweep_interval"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() *Config {
	return &Config{
		Port:               "8080",
		GinMode:            "debug",
		SiteURL:            "http://localhost:8080",
		DBDriver:           "mysql",
		DatabaseURL:        "user:password@tcp(localhost:3306)/yatube?charset=utf8mb4&parseTime=True&loc=Local",
		DBLogLevel:         "warn",
		JWTSecret:          "your-secret-key",
		SessionTTL:         14 * 24 * time.Hour,
		CacheBackend:       "memory",
		CacheTTL:           20 * time.Second,
		CacheSweepInterval: time.Minute,
		NATSURL:            "nats://127.0.0.1:4222",
		NATSCacheBucket:    "yatube_page_cache",
		StorageBackend:     "local",
		MediaDir:           "media",
		MediaURL:           "/media/",
		S3Region:           "us-east-1",
		SMTPPort:           2525,
		FromEmail:          "noreply@yatube.local",
		FromName:           "Yatube",
		RateLimitPerMinute: 60,
		RateLimitBurst:     20,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// BLOG_CONFIG (if any), then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("BLOG_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	fc := fileConfig{Config: *c}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"session_ttl", fc.SessionTTL, &fc.Config.SessionTTL},
		{"cache_ttl", fc.CacheTTL, &fc.Config.CacheTTL},
		{"cache_sweep_interval", fc.CacheSweepInterval, &fc.Config.CacheSweepInterval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.name, err)
		}
		*d.dst = v
	}
	*c = fc.Config
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.SiteURL = getEnv("SITE_URL", c.SiteURL)
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DBLogLevel = getEnv("DB_LOG_LEVEL", c.DBLogLevel)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.CacheBackend = getEnv("CACHE_BACKEND", c.CacheBackend)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.NATSCacheBucket = getEnv("NATS_CACHE_BUCKET", c.NATSCacheBucket)
	c.StorageBackend = getEnv("STORAGE_BACKEND", c.StorageBackend)
	c.MediaDir = getEnv("MEDIA_DIR", c.MediaDir)
	c.MediaURL = getEnv("MEDIA_URL", c.MediaURL)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.S3Region = getEnv("S3_REGION", c.S3Region)
	c.S3Endpoint = getEnv("S3_ENDPOINT", c.S3Endpoint)
	c.S3PublicURL = getEnv("S3_PUBLIC_URL", c.S3PublicURL)
	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPUsername = getEnv("SMTP_USERNAME", c.SMTPUsername)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.FromEmail = getEnv("FROM_EMAIL", c.FromEmail)
	c.FromName = getEnv("FROM_NAME", c.FromName)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	var err error
	if c.SMTPPort, err = getEnvInt("SMTP_PORT", c.SMTPPort); err != nil {
		return err
	}
	if c.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute); err != nil {
		return err
	}
	if c.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst); err != nil {
		return err
	}
	if c.SessionTTL, err = getEnvDuration("SESSION_TTL", c.SessionTTL); err != nil {
		return err
	}
	if c.CacheTTL, err = getEnvDuration("CACHE_TTL", c.CacheTTL); err != nil {
		return err
	}
	if c.CacheSweepInterval, err = getEnvDuration("CACHE_SWEEP_INTERVAL", c.CacheSweepInterval); err != nil {
		return err
	}
	if v := os.Getenv("SEED"); v != "" {
		c.Seed, err = strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SEED: %w", err)
		}
	}
	return nil
}

// Validate rejects values the rest of the application cannot work with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.CacheBackend {
	case "memory", "nats":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.CacheBackend)
	}
	switch c.StorageBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// EmailEnabled reports whether comment notifications can be sent.
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
