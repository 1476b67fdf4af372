package chain

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/ethereum/go-ethereum/common"
)

// Config describes the chain endpoint and the deployed escrow contract.
type Config struct {
	RPCURL             string        `mapstructure:"rpc_url" yaml:"rpc_url" default:"http://localhost:8545"`
	ChainID            int64         `mapstructure:"chain_id" yaml:"chain_id" default:"31337"`
	GoalFactoryAddress string        `mapstructure:"goal_factory_address" yaml:"goal_factory_address"`
	GasLimit           uint64        `mapstructure:"gas_limit" yaml:"gas_limit" default:"500000"`
	ConfirmTimeout     time.Duration `mapstructure:"confirm_timeout" yaml:"confirm_timeout" default:"2m"`
}

// Normalize fills unset fields with defaults and validates the result.
func (c *Config) Normalize() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("failed to apply config defaults: %w", err)
	}
	if c.GoalFactoryAddress == "" {
		return fmt.Errorf("goal_factory_address is required")
	}
	if !common.IsHexAddress(c.GoalFactoryAddress) {
		return fmt.Errorf("goal_factory_address %q is not a valid address", c.GoalFactoryAddress)
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("chain_id must be positive")
	}
	return nil
}
