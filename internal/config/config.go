package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const insecureJWTSecret = "supersecretkey"

type Config struct {
	Addr           string           `yaml:"addr"`
	JWTSecret      string           `yaml:"jwt_secret"`
	APITimeout     time.Duration    `yaml:"timeout"`
	DatabasePath   string           `yaml:"database_path"`
	MigrateOnStart bool             `yaml:"migrate_on_start"`
	RateLimit      RateLimitConfig  `yaml:"rate_limit"`
	Pagination     PaginationConfig `yaml:"pagination"`
	Metrics        MetricsConfig    `yaml:"metrics"`
}

// RateLimitConfig sets the per-caller token bucket of the API.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return godotenv.Load(path)
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:         getEnv("SWAPD_ADDR", ":8080"),
		JWTSecret:    getEnv("SWAPD_JWT_SECRET", insecureJWTSecret),
		APITimeout:   15 * time.Second,
		DatabasePath: getEnv("SWAPD_DATABASE_PATH", "swapd.db"),
		Metrics:      MetricsConfig{Enabled: true},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects unusable settings and fills defaults for optional ones.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.JWTSecret == insecureJWTSecret && os.Getenv("SWAPD_ENV") != "development" {
		return fmt.Errorf("jwt_secret uses the insecure default; set SWAPD_JWT_SECRET or SWAPD_ENV=development")
	}

	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.Pagination.DefaultLimit <= 0 {
		c.Pagination.DefaultLimit = 20
	}
	if c.Pagination.MaxLimit <= 0 {
		c.Pagination.MaxLimit = 100
	}
	if c.Pagination.DefaultLimit > c.Pagination.MaxLimit {
		c.Pagination.DefaultLimit = c.Pagination.MaxLimit
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 20
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 40
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
