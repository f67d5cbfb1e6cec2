// Package contracts is a static catalog of the contract ABIs and addresses
// the swap pipeline talks to: the ERC-20 token interface, the AMM router,
// the pair, and the factory. ABIs are minimal fragments covering only the
// methods actually used.
package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	erc20ABIJSON = `[{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

	routerABIJSON = `[{"inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"name":"swapExactTokensForTokens","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"nonpayable","type":"function"},{"inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"}]`

	pairABIJSON = `[{"inputs":[],"name":"getReserves","outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"token0","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},{"inputs":[],"name":"token1","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}]`

	factoryABIJSON = `[{"inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"name":"getPair","outputs":[{"name":"pair","type":"address"}],"stateMutability":"view","type":"function"}]`
)

var (
	ERC20ABI   abi.ABI
	RouterABI  abi.ABI
	PairABI    abi.ABI
	FactoryABI abi.ABI
)

func init() {
	ERC20ABI = mustParse(erc20ABIJSON)
	RouterABI = mustParse(routerABIJSON)
	PairABI = mustParse(pairABIJSON)
	FactoryABI = mustParse(factoryABIJSON)
}

func mustParse(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Registry holds the fixed contract addresses for one network. Token and
// pair addresses are supplied per call; only the router and factory are
// pinned at startup.
type Registry struct {
	Router  common.Address
	Factory common.Address
}

// NewRegistry builds a Registry for the given router and factory addresses.
// Zero addresses are rejected so a contract call can never target an
// unparsed or placeholder address.
func NewRegistry(router, factory common.Address) (*Registry, error) {
	if router == (common.Address{}) {
		return nil, fmt.Errorf("router address is zero")
	}
	if factory == (common.Address{}) {
		return nil, fmt.Errorf("factory address is zero")
	}
	return &Registry{Router: router, Factory: factory}, nil
}

// ParseAddress converts a hex string from config into a validated address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid contract address %q", s)
	}
	return common.HexToAddress(s), nil
}
