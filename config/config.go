package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	// RPC endpoint of the target network
	RPCEndpoint string `json:"rpc_endpoint"`

	// EIP-155 chain ID of the target network
	ChainID int64 `json:"chain_id"`

	// BIP39 mnemonic for signer derivation when no host wallet supplies entropy
	Mnemonic string `json:"mnemonic"`

	// AMM router and factory addresses on the target network
	RouterAddress  string `json:"router_address"`
	FactoryAddress string `json:"factory_address"`

	// Token table: symbol -> contract address
	Tokens map[string]string `json:"tokens"`

	// Slippage tolerance in basis points; 0 accepts any nonzero output
	SlippageBps int64 `json:"slippage_bps"`

	// Swap deadline window in seconds (default 300)
	DeadlineSeconds int64 `json:"deadline_seconds"`

	// Per-transaction confirmation wait bound in seconds (default 90)
	ConfirmTimeoutSeconds int64 `json:"confirm_timeout_seconds"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RPCEndpoint == "" {
		return fmt.Errorf("rpc_endpoint is required")
	}
	if c.ChainID == 0 {
		return fmt.Errorf("chain_id is required")
	}
	if c.Mnemonic == "" {
		return fmt.Errorf("mnemonic is required")
	}
	if !common.IsHexAddress(c.RouterAddress) {
		return fmt.Errorf("router_address %q is not a valid address", c.RouterAddress)
	}
	if !common.IsHexAddress(c.FactoryAddress) {
		return fmt.Errorf("factory_address %q is not a valid address", c.FactoryAddress)
	}
	for symbol, addr := range c.Tokens {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("token %s address %q is not a valid address", symbol, addr)
		}
	}
	if c.SlippageBps < 0 || c.SlippageBps >= 10000 {
		return fmt.Errorf("slippage_bps must be in [0, 10000)")
	}
	if c.DeadlineSeconds == 0 {
		c.DeadlineSeconds = 300
	}
	if c.ConfirmTimeoutSeconds == 0 {
		c.ConfirmTimeoutSeconds = 90
	}
	return nil
}

// TokenAddress resolves a token given either a symbol from the token table
// or a literal hex address.
func (c *Config) TokenAddress(s string) (common.Address, error) {
	if addr, ok := c.Tokens[strings.ToUpper(s)]; ok {
		return common.HexToAddress(addr), nil
	}
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	return common.Address{}, fmt.Errorf("unknown token %q", s)
}

func (c *Config) DeadlineWindow() time.Duration {
	return time.Duration(c.DeadlineSeconds) * time.Second
}

func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSeconds) * time.Second
}
