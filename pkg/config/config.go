// Package config loads and validates configuration for the goalstake binaries.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// APIServerConfig represents the goalstake API server configuration
type APIServerConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	Database string `mapstructure:"database" yaml:"database"`
	SSLMode  string `mapstructure:"ssl_mode" yaml:"ssl_mode"`
}

// AuthConfig contains wallet authentication settings.
//
// JWTSecret signs session tokens and must be provisioned at startup; the
// server refuses to start without it. It is read from config or the
// GOALSTAKE_JWT_SECRET environment variable.
type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret" yaml:"jwt_secret,omitempty"`
	SessionTTL         time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	NonceTTL           time.Duration `mapstructure:"nonce_ttl" yaml:"nonce_ttl"`
	NoncePurgeInterval time.Duration `mapstructure:"nonce_purge_interval" yaml:"nonce_purge_interval"`
	CookieSecure       bool          `mapstructure:"cookie_secure" yaml:"cookie_secure"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
}

// LoadAPIServer loads API server configuration from file and environment
func LoadAPIServer(configPath string) (*APIServerConfig, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("goalstake")
	viper.AutomaticEnv()

	setAPIServerDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Env override for the signing secret so it can stay out of config files
	if secret := viper.GetString("jwt_secret"); secret != "" {
		viper.Set("auth.jwt_secret", secret)
	}

	var config APIServerConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateAPIServer(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setAPIServerDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.database", "goalstake")

	// Auth defaults
	viper.SetDefault("auth.session_ttl", "1h")
	viper.SetDefault("auth.nonce_ttl", "10m")
	viper.SetDefault("auth.nonce_purge_interval", "15m")
	viper.SetDefault("auth.cookie_secure", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output_path", "stdout")
}

func validateAPIServer(config *APIServerConfig) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set GOALSTAKE_JWT_SECRET)")
	}
	if config.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if config.Auth.NonceTTL <= 0 {
		return fmt.Errorf("auth.nonce_ttl must be positive")
	}
	return nil
}

// Dump renders the effective configuration as YAML with the signing secret
// and database password elided.
func (c *APIServerConfig) Dump() (string, error) {
	redacted := *c
	if redacted.Auth.JWTSecret != "" {
		redacted.Auth.JWTSecret = "<redacted>"
	}
	if redacted.Database.Password != "" {
		redacted.Database.Password = "<redacted>"
	}
	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}
