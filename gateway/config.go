// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"
	"os"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"gopkg.in/yaml.v3"

	"github.com/luxfi/swapgate/dex"
)

// Permissions are the hook callbacks a gateway address must enable
var Permissions = dex.HookPermissions{
	BeforeAddLiquidity:    true,
	BeforeSwap:            true,
	BeforeDonate:          true,
	BeforeSwapReturnDelta: true,
}

// Config is the deployment configuration of a gateway
type Config struct {
	// Owner administers policy, authority and the bypass registry
	Owner common.Address `json:"owner" yaml:"owner"`
	// PoolManager is the only caller allowed to invoke hook callbacks
	PoolManager common.Address `json:"poolManager" yaml:"poolManager"`
	// Address is the gateway's own address; its leading bits carry Permissions
	Address common.Address `json:"address" yaml:"address"`

	PolicyID  string         `json:"policyID" yaml:"policyID"`
	Authority common.Address `json:"authority" yaml:"authority"`

	LiquidityProviders []common.Address `json:"liquidityProviders,omitempty" yaml:"liquidityProviders,omitempty"`
	Swappers           []common.Address `json:"swappers,omitempty" yaml:"swappers,omitempty"`

	Logger log.Logger `json:"-" yaml:"-"`
}

// LoadConfig reads a YAML gateway config from [path]
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading gateway config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing gateway config %s: %w", path, err)
	}
	return cfg, nil
}

// Verify checks the config can back a gateway
func (c Config) Verify() error {
	if c.Owner == (common.Address{}) {
		return fmt.Errorf("%w: zero owner", ErrInvalidConfig)
	}
	if c.PoolManager == (common.Address{}) {
		return fmt.Errorf("%w: zero pool manager", ErrInvalidConfig)
	}
	if err := dex.ValidateHookAddress(c.Address, Permissions); err != nil {
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, err, c.Address.Hex())
	}
	return nil
}

// HookAddress derives a gateway address carrying Permissions
func HookAddress(deployer common.Address, salt [32]byte) common.Address {
	return dex.GenerateHookAddress(deployer, salt, Permissions)
}
