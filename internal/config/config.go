// Package config holds the runtime's configuration, loaded from an
// optional YAML file and environment variables, with env taking
// precedence
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kode4food/marmot/internal/store"
)

// Config holds configuration settings for the feature runtime
type Config struct {
	// API Server
	APIHost string `yaml:"api_host"`
	APIPort int    `yaml:"api_port"`

	// Features
	FeaturesRoot string `yaml:"features_root"`
	Watch        bool   `yaml:"watch"`

	// Store
	Redis store.RedisConfig `yaml:"-"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisPrefix   string `yaml:"redis_prefix"`
	RedisDB       int    `yaml:"redis_db"`

	// Retry guards
	MaxRetryAttempts int           `yaml:"max_retry_attempts"`
	MaxRetryDelay    time.Duration `yaml:"max_retry_delay"`

	// Process
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

const (
	DefaultAPIHost         = "0.0.0.0"
	DefaultAPIPort         = 8080
	DefaultFeaturesRoot    = "features"
	DefaultRedisPrefix     = "marmot"
	DefaultMaxRetryDelay   = time.Minute
	DefaultShutdownTimeout = 10 * time.Second

	MaxTCPPort          = 65535
	MaxMaxRetryAttempts = 1000
)

var (
	ErrInvalidAPIPort       = errors.New("invalid API port")
	ErrFeaturesRootEmpty    = errors.New("features root must not be empty")
	ErrNegativeRetryDelay   = errors.New("max retry delay cannot be negative")
	ErrInvalidRetryAttempts = errors.New("max retry attempts out of range")
)

// NewDefaultConfig creates a configuration with sensible defaults for
// all runtime settings
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:         DefaultAPIHost,
		APIPort:         DefaultAPIPort,
		FeaturesRoot:    DefaultFeaturesRoot,
		RedisPrefix:     DefaultRedisPrefix,
		MaxRetryDelay:   DefaultMaxRetryDelay,
		ShutdownTimeout: DefaultShutdownTimeout,
		LogLevel:        "info",
	}
}

// LoadFile overlays settings from a YAML file. A missing file is not an
// error; a malformed one is
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv populates configuration values from environment
// variables. Returns an error if any value cannot be parsed
func (c *Config) LoadFromEnv() error {
	if host := os.Getenv("API_HOST"); host != "" {
		c.APIHost = host
	}
	if root := os.Getenv("FEATURES_ROOT"); root != "" {
		c.FeaturesRoot = root
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.RedisAddr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.RedisPassword = password
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		c.RedisPrefix = prefix
	}
	if watch := os.Getenv("WATCH_FEATURES"); watch != "" {
		c.Watch = watch == "1" || watch == "true"
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt("REDIS_DB", &c.RedisDB, -1, 15); err != nil {
		return err
	}
	if err := loadEnvInt(
		"MAX_RETRY_ATTEMPTS", &c.MaxRetryAttempts,
		-1, MaxMaxRetryAttempts,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"MAX_RETRY_DELAY", &c.MaxRetryDelay,
	); err != nil {
		return err
	}
	if err := loadEnvDuration(
		"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout,
	); err != nil {
		return err
	}
	return c.Validate()
}

// Validate checks cross-field constraints after all sources are loaded
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.FeaturesRoot == "" {
		return ErrFeaturesRootEmpty
	}
	if c.MaxRetryDelay < 0 {
		return ErrNegativeRetryDelay
	}
	if c.MaxRetryAttempts < 0 || c.MaxRetryAttempts > MaxMaxRetryAttempts {
		return fmt.Errorf(
			"%w: %d", ErrInvalidRetryAttempts, c.MaxRetryAttempts,
		)
	}

	c.Redis = store.RedisConfig{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		Prefix:   c.RedisPrefix,
		DB:       c.RedisDB,
	}
	return nil
}

func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

func loadEnvDuration(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if v < 0 {
		return fmt.Errorf("invalid %s: negative duration", key)
	}
	*dst = v
	return nil
}
