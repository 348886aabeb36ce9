package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for homeydash.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hub      HubConfig      `yaml:"hub"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains HTTP API server settings.
type ServerConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig    `yaml:"cors"`
}

// TimeoutConfig contains HTTP timeout settings in seconds.
type TimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// HubConfig contains settings for talking to the Homey hub on the local network.
type HubConfig struct {
	// RequestTimeout bounds a single hub API call, in seconds.
	RequestTimeout int `yaml:"request_timeout"`

	// ConnectTimeout bounds the TCP dial to the hub, in seconds.
	// Kept shorter than RequestTimeout so an unreachable LAN address
	// fails fast instead of eating the whole request budget.
	ConnectTimeout int `yaml:"connect_timeout"`

	// CacheTTL is how long the admin-facing device/flow listings are
	// cached, in seconds.
	CacheTTL int `yaml:"cache_ttl"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	// EncryptionKey protects the hub API token at rest.
	// Required, minimum 32 characters.
	EncryptionKey string `yaml:"encryption_key"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig contains rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern HOMEYDASH_SECTION_KEY,
// for example HOMEYDASH_DATABASE_PATH or HOMEYDASH_SERVER_PORT.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: TimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/homeydash.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Hub: HubConfig{
			RequestTimeout: 10,
			ConnectTimeout: 5,
			CacheTTL:       60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOMEYDASH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HOMEYDASH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HOMEYDASH_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	// Encryption key should come from the environment in production so the
	// config file can be checked into version control without secrets.
	if v := os.Getenv("HOMEYDASH_ENCRYPTION_KEY"); v != "" {
		cfg.Security.EncryptionKey = v
	}
}

// minEncryptionKeyLength is the minimum length for the token encryption key.
const minEncryptionKeyLength = 32

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if c.Hub.RequestTimeout < 1 {
		errs = append(errs, "hub.request_timeout must be at least 1 second")
	}
	if c.Hub.ConnectTimeout < 1 || c.Hub.ConnectTimeout > c.Hub.RequestTimeout {
		errs = append(errs, "hub.connect_timeout must be between 1 and hub.request_timeout")
	}
	if c.Hub.CacheTTL < 0 {
		errs = append(errs, "hub.cache_ttl must not be negative")
	}

	// The hub API token is stored encrypted at rest; a weak key would make
	// that protection cosmetic, so the key length is enforced at startup.
	if c.Security.EncryptionKey == "" {
		errs = append(errs, "security.encryption_key is required (set HOMEYDASH_ENCRYPTION_KEY environment variable)")
	} else if len(c.Security.EncryptionKey) < minEncryptionKeyLength {
		errs = append(errs, "security.encryption_key must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.Server.Timeouts.Idle) * time.Second
}

// GetHubRequestTimeout returns the hub request timeout as a Duration.
func (c *Config) GetHubRequestTimeout() time.Duration {
	return time.Duration(c.Hub.RequestTimeout) * time.Second
}

// GetHubConnectTimeout returns the hub connect timeout as a Duration.
func (c *Config) GetHubConnectTimeout() time.Duration {
	return time.Duration(c.Hub.ConnectTimeout) * time.Second
}

// GetHubCacheTTL returns the hub listing cache TTL as a Duration.
func (c *Config) GetHubCacheTTL() time.Duration {
	return time.Duration(c.Hub.CacheTTL) * time.Second
}
