package swap

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultDeadlineWindow is how far in the future a plan's deadline sits.
// The router enforces it on-chain: a swap mined after the deadline reverts.
const DefaultDeadlineWindow = 300 * time.Second

// Plan describes one routed swap: the token pair, the exact input amount,
// the minimum acceptable output, and an absolute deadline in UNIX seconds.
type Plan struct {
	TokenIn      common.Address
	TokenOut     common.Address
	AmountIn     *big.Int
	MinAmountOut *big.Int
	Deadline     *big.Int
}

// NewPlan builds a Plan with a deadline of now plus window. A zero window
// falls back to DefaultDeadlineWindow. A nil minAmountOut accepts any
// nonzero output (MinAmountOut = 1).
func NewPlan(tokenIn, tokenOut common.Address, amountIn, minAmountOut *big.Int, now time.Time, window time.Duration) (Plan, error) {
	if tokenIn == (common.Address{}) || tokenOut == (common.Address{}) {
		return Plan{}, fmt.Errorf("token addresses must be non-zero")
	}
	if tokenIn == tokenOut {
		return Plan{}, fmt.Errorf("input and output token are the same: %s", tokenIn.Hex())
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Plan{}, fmt.Errorf("input amount must be positive")
	}

	if window <= 0 {
		window = DefaultDeadlineWindow
	}
	if minAmountOut == nil || minAmountOut.Sign() <= 0 {
		minAmountOut = big.NewInt(1)
	}

	return Plan{
		TokenIn:      tokenIn,
		TokenOut:     tokenOut,
		AmountIn:     amountIn,
		MinAmountOut: minAmountOut,
		Deadline:     big.NewInt(now.Unix() + int64(window/time.Second)),
	}, nil
}

// Path returns the swap path, input token first.
func (p Plan) Path() []common.Address {
	return []common.Address{p.TokenIn, p.TokenOut}
}
