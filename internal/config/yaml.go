package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level masski configuration file. The same
// struct is filled from YAML and from viper, so every field carries both
// tags.
type Config struct {
	AppName string        `yaml:"app_name" mapstructure:"app_name"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Auth    AuthConfig    `yaml:"auth" mapstructure:"auth"`
	Redis   RedisConfig   `yaml:"redis" mapstructure:"redis"`
	SMTP    SMTPConfig    `yaml:"smtp" mapstructure:"smtp"`
	Geo     GeoConfig     `yaml:"geo" mapstructure:"geo"`
	Sweeper SweeperConfig `yaml:"sweeper" mapstructure:"sweeper"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
	LoginRateLimit  int           `yaml:"login_rate_limit" mapstructure:"login_rate_limit"`
	LoginRateWindow time.Duration `yaml:"login_rate_window" mapstructure:"login_rate_window"`
}

// StoreConfig selects the relational backend. For sqlite the DSN is the
// data directory; an empty DSN keeps everything in memory.
type StoreConfig struct {
	Driver          string        `yaml:"driver" mapstructure:"driver"`
	DSN             string        `yaml:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// AuthConfig controls sessions, login codes and password hashing.
type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	SessionTTL        time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
	OTPTTL            time.Duration `yaml:"otp_ttl" mapstructure:"otp_ttl"`
	OTPMaxFailures    int           `yaml:"otp_max_failures" mapstructure:"otp_max_failures"`
	OTPFailureWindow  time.Duration `yaml:"otp_failure_window" mapstructure:"otp_failure_window"`
	PasswordAlgorithm string        `yaml:"password_algorithm" mapstructure:"password_algorithm"`
}

// RedisConfig points at the Redis used for OTP failure throttling. An
// empty Addr disables throttling.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// SMTPConfig configures outgoing mail. An empty Host logs messages instead
// of sending them.
type SMTPConfig struct {
	Host     string        `yaml:"host" mapstructure:"host"`
	Port     int           `yaml:"port" mapstructure:"port"`
	Username string        `yaml:"username" mapstructure:"username"`
	Password string        `yaml:"password" mapstructure:"password"`
	From     string        `yaml:"from" mapstructure:"from"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// GeoConfig configures login location lookups.
type GeoConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	IPLookupURL       string        `yaml:"ip_lookup_url" mapstructure:"ip_lookup_url"`
	ReverseGeocodeURL string        `yaml:"reverse_geocode_url" mapstructure:"reverse_geocode_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SweeperConfig controls the stale attempt sweeper.
type SweeperConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
	StaleAfter time.Duration `yaml:"stale_after" mapstructure:"stale_after"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns a Config pre-filled with sensible defaults. The JWT
// secret is left empty and must be supplied.
func Default() *Config {
	return &Config{
		AppName: "Masski",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
			LoginRateLimit:  20,
			LoginRateWindow: time.Minute,
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Auth: AuthConfig{
			SessionTTL:        12 * time.Hour,
			OTPTTL:            10 * time.Minute,
			OTPMaxFailures:    5,
			OTPFailureWindow:  15 * time.Minute,
			PasswordAlgorithm: "bcrypt",
		},
		SMTP: SMTPConfig{
			Port:    587,
			Timeout: 10 * time.Second,
		},
		Geo: GeoConfig{
			Enabled:           true,
			IPLookupURL:       "http://ip-api.com/json/",
			ReverseGeocodeURL: "https://nominatim.openstreetmap.org/reverse",
			Timeout:           3 * time.Second,
		},
		Sweeper: SweeperConfig{
			Enabled:    true,
			Interval:   time.Hour,
			StaleAfter: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file on top of the defaults. Environment
// variables referenced as ${VAR_NAME} in the file are expanded before
// parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteDefault writes the default configuration to a YAML file. An
// existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := Default().Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
