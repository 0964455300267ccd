package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Provider  ProviderConfig  `yaml:"provider"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Seed      SeedConfig      `yaml:"seed"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr                 string   `yaml:"addr"`
	ReadTimeout          Duration `yaml:"read_timeout"`
	WriteTimeout         Duration `yaml:"write_timeout"`
	ShutdownTimeout      Duration `yaml:"shutdown_timeout"`
	RequestTimeout       Duration `yaml:"request_timeout"`
	CORSOrigins          []string `yaml:"cors_origins,omitempty"`
	ExposeInternalErrors *bool    `yaml:"expose_internal_errors,omitempty"` // nil = true
}

// ProviderConfig selects and configures the data provider
type ProviderConfig struct {
	Driver   string         `yaml:"driver"` // sqlite | postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds sqlite provider settings
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds postgres provider settings
type PostgresConfig struct {
	DSN          string   `yaml:"dsn"`
	MaxConns     int32    `yaml:"max_conns"`
	QueryTimeout Duration `yaml:"query_timeout"`
}

// RateLimitConfig holds request throttling settings. Zero values disable
// the corresponding limit.
type RateLimitConfig struct {
	GlobalRPS      float64  `yaml:"global_rps"`
	GlobalBurst    int      `yaml:"global_burst"`
	PerClientLimit int      `yaml:"per_client_limit"`
	Window         Duration `yaml:"window"`
	RedisAddr      string   `yaml:"redis_addr,omitempty"`
	RedisPassword  string   `yaml:"redis_password,omitempty"`
	// TrustedProxies lists CIDRs whose X-Forwarded-For and X-Real-IP
	// headers identify the client
	TrustedProxies []string `yaml:"trusted_proxies,omitempty"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
}

// SeedConfig points at a snapshot file imported at startup
type SeedConfig struct {
	Path  string `yaml:"path,omitempty"`
	Watch bool   `yaml:"watch"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
