// Package swap executes a two-step DEX swap: an exact-amount ERC-20
// approval followed by a routed swap through the AMM router, each awaited
// to on-chain confirmation before the next step.
package swap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/snapwallet/dexswap/contracts"
	"github.com/snapwallet/dexswap/wallet"
)

// Failure kinds surfaced by Execute. Callers discriminate with errors.Is.
var (
	ErrApprovalFailed      = errors.New("approval failed")
	ErrSwapFailed          = errors.New("swap failed")
	ErrConfirmationTimeout = errors.New("confirmation timed out")
)

// DefaultConfirmTimeout bounds each wait for transaction inclusion.
const DefaultConfirmTimeout = 90 * time.Second

const (
	approveGasLimit = 100000
	swapGasLimit    = 200000
)

// Backend is the chain connection the executor needs. *ethclient.Client
// satisfies it; tests substitute a fake.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Executor submits the approval and swap transactions for one plan. The
// backend and registry are explicit dependencies; there is no shared state
// between invocations.
type Executor struct {
	backend        Backend
	chainID        *big.Int
	registry       *contracts.Registry
	confirmTimeout time.Duration
}

// NewExecutor creates an Executor. A zero confirmTimeout falls back to
// DefaultConfirmTimeout.
func NewExecutor(backend Backend, chainID *big.Int, registry *contracts.Registry, confirmTimeout time.Duration) *Executor {
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	return &Executor{
		backend:        backend,
		chainID:        chainID,
		registry:       registry,
		confirmTimeout: confirmTimeout,
	}
}

// Receipts holds the two confirmations produced by one swap invocation.
type Receipts struct {
	Approval *types.Receipt
	Swap     *types.Receipt
}

// Execute approves the router for exactly plan.AmountIn of the input token,
// waits for the approval to be mined, then submits the routed swap and waits
// for it in turn. The swap is never submitted before the approval receipt is
// observed: the router's transferFrom depends on the allowance being visible
// on-chain. Nothing is retried; a failed step surfaces as ErrApprovalFailed,
// ErrSwapFailed, or ErrConfirmationTimeout.
func (e *Executor) Execute(ctx context.Context, signer *wallet.Signer, plan Plan) (*Receipts, error) {
	// Step 1: approve the router to spend the exact input amount.
	approveData, err := contracts.ERC20ABI.Pack("approve", e.registry.Router, plan.AmountIn)
	if err != nil {
		return nil, fmt.Errorf("packing approve: %w", err)
	}

	approvalReceipt, err := e.submit(ctx, signer, plan.TokenIn, approveData, approveGasLimit)
	if err != nil {
		if errors.Is(err, ErrConfirmationTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrApprovalFailed, err)
	}
	if approvalReceipt.Status != types.ReceiptStatusSuccessful {
		return &Receipts{Approval: approvalReceipt}, fmt.Errorf("%w: approve tx %s reverted", ErrApprovalFailed, approvalReceipt.TxHash.Hex())
	}

	// Step 2: the allowance is mined; submit the swap.
	swapData, err := contracts.RouterABI.Pack("swapExactTokensForTokens",
		plan.AmountIn, plan.MinAmountOut, plan.Path(), signer.Address, plan.Deadline)
	if err != nil {
		return &Receipts{Approval: approvalReceipt}, fmt.Errorf("packing swap: %w", err)
	}

	swapReceipt, err := e.submit(ctx, signer, e.registry.Router, swapData, swapGasLimit)
	if err != nil {
		if errors.Is(err, ErrConfirmationTimeout) {
			return &Receipts{Approval: approvalReceipt}, err
		}
		return &Receipts{Approval: approvalReceipt}, fmt.Errorf("%w: %v", ErrSwapFailed, err)
	}

	receipts := &Receipts{Approval: approvalReceipt, Swap: swapReceipt}
	if swapReceipt.Status != types.ReceiptStatusSuccessful {
		if reason := e.revertReason(ctx, signer.Address, e.registry.Router, swapData, swapReceipt.BlockNumber); reason != "" {
			return receipts, fmt.Errorf("%w: %s", ErrSwapFailed, reason)
		}
		return receipts, fmt.Errorf("%w: swap tx %s reverted", ErrSwapFailed, swapReceipt.TxHash.Hex())
	}

	return receipts, nil
}

// submit signs and broadcasts a contract call, then blocks until it is mined
// or the confirmation timeout expires. The returned receipt may carry a
// failed status; the caller decides what that means.
func (e *Executor) submit(ctx context.Context, signer *wallet.Signer, to common.Address, data []byte, gasLimit uint64) (*types.Receipt, error) {
	nonce, err := e.backend.PendingNonceAt(ctx, signer.Address)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	signedTx, err := signer.SignTx(tx, e.chainID)
	if err != nil {
		return nil, fmt.Errorf("signing tx: %w", err)
	}

	if err := e.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("sending tx: %w", err)
	}

	log.Printf("Tx sent to %s: %s", to.Hex(), signedTx.Hash().Hex())

	waitCtx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, e.backend, signedTx)
	if err != nil {
		if waitCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: tx %s", ErrConfirmationTimeout, signedTx.Hash().Hex())
		}
		return nil, fmt.Errorf("waiting for tx %s: %w", signedTx.Hash().Hex(), err)
	}

	return receipt, nil
}

// revertReason replays a failed call at its inclusion block to recover the
// revert reason. Best effort: an empty string means none was available.
func (e *Executor) revertReason(ctx context.Context, from, to common.Address, data []byte, blockNumber *big.Int) string {
	_, err := e.backend.CallContract(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: data,
	}, blockNumber)
	if err != nil {
		return err.Error()
	}
	return ""
}
