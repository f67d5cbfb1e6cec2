package swap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/snapwallet/dexswap/contracts"
)

const bpsDenominator = 10000

// MinOutput computes a slippage-protected minimum output for swapping
// amountIn along path: a live getAmountsOut quote reduced by slippageBps
// basis points. With slippageBps <= 0 no quote is taken and the minimum is
// 1, i.e. any nonzero output is accepted.
func (e *Executor) MinOutput(ctx context.Context, amountIn *big.Int, path []common.Address, slippageBps int64) (*big.Int, error) {
	if slippageBps <= 0 {
		return big.NewInt(1), nil
	}
	if slippageBps >= bpsDenominator {
		return nil, fmt.Errorf("slippage %d bps leaves no acceptable output", slippageBps)
	}

	data, err := contracts.RouterABI.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("packing getAmountsOut: %w", err)
	}

	output, err := e.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &e.registry.Router,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("quoting %s: %w", path[0].Hex(), err)
	}

	decoded, err := contracts.RouterABI.Unpack("getAmountsOut", output)
	if err != nil {
		return nil, fmt.Errorf("unpacking getAmountsOut: %w", err)
	}

	amounts, ok := decoded[0].([]*big.Int)
	if !ok || len(amounts) != len(path) {
		return nil, fmt.Errorf("unexpected getAmountsOut return")
	}

	quoted := amounts[len(amounts)-1]
	min := new(big.Int).Mul(quoted, big.NewInt(bpsDenominator-slippageBps))
	min.Div(min, big.NewInt(bpsDenominator))
	if min.Sign() == 0 {
		min.SetInt64(1)
	}

	return min, nil
}
