// Package config loads the server configuration.
//
// Values come from a YAML file, then environment overrides, then command
// line flags applied by the caller.
//
// Config file locations (priority order):
//  1. $ONTOLOGY_CONFIG, which must exist when set
//  2. ./ontology.yaml
//  3. $XDG_CONFIG_HOME/ontology/config.yaml or ~/.config/ontology/config.yaml
//  4. /etc/ontology/config.yaml
package config

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// EnvConfigPath names an explicit config file
const EnvConfigPath = "ONTOLOGY_CONFIG"

// Environment overrides
const (
	EnvAddr        = "ONTOLOGY_ADDR"
	EnvProvider    = "ONTOLOGY_PROVIDER"
	EnvSQLitePath  = "ONTOLOGY_SQLITE_PATH"
	EnvPostgresDSN = "ONTOLOGY_POSTGRES_DSN"
	EnvRedisAddr   = "ONTOLOGY_REDIS_ADDR"
	EnvLogLevel    = "ONTOLOGY_LOG_LEVEL"
)

// Load finds and loads the config file, or returns defaults if none found.
// Environment overrides are applied in both cases.
func Load() (*Config, string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return LoadFromPath(path)
	}

	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err == nil {
			return LoadFromPath(path)
		}
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, "", nil
}

// searchPaths lists config file candidates in priority order
func searchPaths() []string {
	paths := []string{"ontology.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "ontology", "config.yaml"))
	}
	return append(paths, "/etc/ontology/config.yaml")
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(15 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = Duration(10 * time.Second)
	}
	if c.Provider.Driver == "" {
		c.Provider.Driver = DriverSQLite
	}
	if c.Provider.SQLite.Path == "" {
		c.Provider.SQLite.Path = "./ontology.db"
	}
	if c.Provider.Postgres.QueryTimeout == 0 {
		c.Provider.Postgres.QueryTimeout = Duration(5 * time.Second)
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = Duration(time.Minute)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvProvider); v != "" {
		c.Provider.Driver = strings.ToLower(v)
	}
	if v := os.Getenv(EnvSQLitePath); v != "" {
		c.Provider.SQLite.Path = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Provider.Postgres.DSN = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.RateLimit.RedisAddr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate reports configuration errors
func (c *Config) Validate() error {
	switch c.Provider.Driver {
	case DriverSQLite:
		if c.Provider.SQLite.Path == "" {
			return fmt.Errorf("provider.sqlite.path is required")
		}
	case DriverPostgres:
		if c.Provider.Postgres.DSN == "" {
			return fmt.Errorf("provider.postgres.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown provider driver %q", c.Provider.Driver)
	}
	if c.RateLimit.GlobalRPS < 0 || c.RateLimit.PerClientLimit < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	for _, cidr := range c.RateLimit.TrustedProxies {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			if _, err := netip.ParseAddr(cidr); err != nil {
				return fmt.Errorf("rate_limit.trusted_proxies: invalid address %q", cidr)
			}
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}

// ExposeInternalErrors reports whether internal error messages are sent
// to API clients
func (c *Config) ExposeInternalErrors() bool {
	return c.Server.ExposeInternalErrors == nil || *c.Server.ExposeInternalErrors
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Addr: %s, Provider: %s", c.Server.Addr, c.Provider.Driver)
	if c.Provider.Driver == DriverSQLite {
		summary += fmt.Sprintf(" (%s)", c.Provider.SQLite.Path)
	}
	if c.RateLimit.GlobalRPS > 0 {
		summary += fmt.Sprintf(", Rate: %.0f rps", c.RateLimit.GlobalRPS)
	}
	if c.Seed.Path != "" {
		summary += fmt.Sprintf(", Seed: %s (watch=%t)", c.Seed.Path, c.Seed.Watch)
	}
	return summary
}
