package contracts

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRejectsZeroAddresses(t *testing.T) {
	router := common.HexToAddress("0x3333333333333333333333333333333333333333")
	factory := common.HexToAddress("0x4444444444444444444444444444444444444444")

	_, err := NewRegistry(common.Address{}, factory)
	assert.Error(t, err)

	_, err = NewRegistry(router, common.Address{})
	assert.Error(t, err)

	registry, err := NewRegistry(router, factory)
	require.NoError(t, err)
	assert.Equal(t, router, registry.Router)
	assert.Equal(t, factory, registry.Factory)
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984")
	require.NoError(t, err)
	assert.Equal(t, "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", addr.Hex())

	// A logical name is not an address; it must never reach a contract call.
	_, err = ParseAddress("router")
	assert.Error(t, err)

	_, err = ParseAddress("0xdeadbeef")
	assert.Error(t, err)
}

func TestABIsCoverUsedMethods(t *testing.T) {
	for _, tc := range []struct {
		name    string
		abi     abi.ABI
		methods map[string]int // method name -> expected input count
	}{
		{"erc20", ERC20ABI, map[string]int{"approve": 2, "allowance": 2, "balanceOf": 1}},
		{"router", RouterABI, map[string]int{"swapExactTokensForTokens": 5, "getAmountsOut": 2}},
		{"pair", PairABI, map[string]int{"getReserves": 0, "token0": 0, "token1": 0}},
		{"factory", FactoryABI, map[string]int{"getPair": 2}},
	} {
		for name, inputs := range tc.methods {
			method, ok := tc.abi.Methods[name]
			require.True(t, ok, "%s ABI missing %s", tc.name, name)
			assert.Len(t, method.Inputs, inputs, "%s.%s", tc.name, name)
		}
	}
}
