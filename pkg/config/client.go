package config

import (
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/goalstake/goalstake/pkg/chain"
)

// ClientConfig represents the goalctl client configuration
type ClientConfig struct {
	API     APIClientConfig `mapstructure:"api" yaml:"api"`
	Wallet  WalletConfig    `mapstructure:"wallet" yaml:"wallet"`
	Chain   chain.Config    `mapstructure:"chain" yaml:"chain"`
	Logging LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// APIClientConfig locates the goalstake API server
type APIClientConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// WalletConfig holds the signing key for the local wallet.
//
// PrivateKey is a hex-encoded secp256k1 key. Keep it out of config files
// and set it through the GOALSTAKE_PRIVATE_KEY environment variable.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key" yaml:"private_key,omitempty"`
}

// LoadClient loads goalctl configuration from file and environment
func LoadClient(configPath string) (*ClientConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("goalstake")
	v.AutomaticEnv()

	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "stderr")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Env override for the wallet key so it can stay out of config files
	if key := v.GetString("private_key"); key != "" {
		v.Set("wallet.private_key", key)
	}

	var config ClientConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}
	if config.Wallet.PrivateKey == "" {
		return nil, fmt.Errorf("wallet.private_key is required (set GOALSTAKE_PRIVATE_KEY)")
	}
	if err := config.Chain.Normalize(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Dump renders the effective configuration as YAML with the wallet key
// elided.
func (c *ClientConfig) Dump() (string, error) {
	redacted := *c
	if redacted.Wallet.PrivateKey != "" {
		redacted.Wallet.PrivateKey = "<redacted>"
	}
	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}
