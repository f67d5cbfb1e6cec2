package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapwallet/dexswap/contracts"
	"github.com/snapwallet/dexswap/wallet"
)

var (
	testChainID  = big.NewInt(11155111)
	testTokenIn  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testTokenOut = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testRouter   = common.HexToAddress("0x3333333333333333333333333333333333333333")
	testFactory  = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

// fakeBackend records submissions and receipt polls so tests can assert the
// approve-before-swap sequencing.
type fakeBackend struct {
	mu sync.Mutex

	// status for the i-th sent transaction, types.ReceiptStatus*
	statuses []uint64
	// when true, no transaction is ever reported mined
	neverMine bool
	// scripted CallContract behavior (quotes and revert-reason replays)
	callResult []byte
	callErr    error

	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	events   []string
}

func newFakeBackend(statuses ...uint64) *fakeBackend {
	return &fakeBackend{
		statuses: statuses,
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1000000000), nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := len(b.sent)
	if idx >= len(b.statuses) {
		return fmt.Errorf("unexpected submission %d to %s", idx, tx.To().Hex())
	}

	b.sent = append(b.sent, tx)
	b.events = append(b.events, "send:"+tx.To().Hex())

	if !b.neverMine {
		b.receipts[tx.Hash()] = &types.Receipt{
			Status:      b.statuses[idx],
			TxHash:      tx.Hash(),
			BlockNumber: big.NewInt(int64(idx) + 1),
		}
	}
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	receipt, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	b.events = append(b.events, "mined:"+txHash.Hex())
	return receipt, nil
}

func (b *fakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{1}, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return b.callResult, b.callErr
}

func testExecutor(t *testing.T, backend Backend, confirmTimeout time.Duration) *Executor {
	t.Helper()
	registry, err := contracts.NewRegistry(testRouter, testFactory)
	require.NoError(t, err)
	return NewExecutor(backend, testChainID, registry, confirmTimeout)
}

func testSigner(t *testing.T) *wallet.Signer {
	t.Helper()
	handle, err := wallet.EntropyFromMnemonic("test test test test test test test test test test test junk")
	require.NoError(t, err)
	signer, err := wallet.DeriveSigner(handle, 0)
	require.NoError(t, err)
	return signer
}

func testPlan(t *testing.T) Plan {
	t.Helper()
	plan, err := NewPlan(testTokenIn, testTokenOut, big.NewInt(1000000), big.NewInt(1), time.Now(), 0)
	require.NoError(t, err)
	return plan
}

func TestExecuteApproveThenSwap(t *testing.T) {
	backend := newFakeBackend(types.ReceiptStatusSuccessful, types.ReceiptStatusSuccessful)
	executor := testExecutor(t, backend, 0)
	signer := testSigner(t)
	plan := testPlan(t)

	receipts, err := executor.Execute(context.Background(), signer, plan)
	require.NoError(t, err)
	require.NotNil(t, receipts.Approval)
	require.NotNil(t, receipts.Swap)

	require.Len(t, backend.sent, 2)
	assert.Equal(t, testTokenIn, *backend.sent[0].To())
	assert.Equal(t, testRouter, *backend.sent[1].To())

	// The swap must not be submitted until the approval is observed mined.
	approveHash := backend.sent[0].Hash().Hex()
	require.Len(t, backend.events, 4)
	assert.Equal(t, "send:"+testTokenIn.Hex(), backend.events[0])
	assert.Equal(t, "mined:"+approveHash, backend.events[1])
	assert.Equal(t, "send:"+testRouter.Hex(), backend.events[2])
}

func TestExecuteApproveCallData(t *testing.T) {
	backend := newFakeBackend(types.ReceiptStatusSuccessful, types.ReceiptStatusSuccessful)
	executor := testExecutor(t, backend, 0)
	plan := testPlan(t)

	_, err := executor.Execute(context.Background(), testSigner(t), plan)
	require.NoError(t, err)

	// Exact-amount approval for the router, never unlimited.
	method, err := contracts.ERC20ABI.MethodById(backend.sent[0].Data()[:4])
	require.NoError(t, err)
	assert.Equal(t, "approve", method.Name)

	args, err := method.Inputs.Unpack(backend.sent[0].Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, testRouter, args[0].(common.Address))
	assert.Zero(t, plan.AmountIn.Cmp(args[1].(*big.Int)))
}

func TestExecuteApprovalRevertStopsSwap(t *testing.T) {
	backend := newFakeBackend(types.ReceiptStatusFailed)
	executor := testExecutor(t, backend, 0)

	_, err := executor.Execute(context.Background(), testSigner(t), testPlan(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrApprovalFailed)

	// Zero swap submissions.
	require.Len(t, backend.sent, 1)
	assert.Equal(t, testTokenIn, *backend.sent[0].To())
}

func TestExecuteSwapRevert(t *testing.T) {
	backend := newFakeBackend(types.ReceiptStatusSuccessful, types.ReceiptStatusFailed)
	backend.callErr = errors.New("execution reverted: UniswapV2Router: EXPIRED")
	executor := testExecutor(t, backend, 0)

	receipts, err := executor.Execute(context.Background(), testSigner(t), testPlan(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSwapFailed)
	assert.Contains(t, err.Error(), "EXPIRED")

	// The approval receipt is still returned.
	require.NotNil(t, receipts)
	assert.NotNil(t, receipts.Approval)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipts.Approval.Status)
}

func TestExecuteConfirmationTimeout(t *testing.T) {
	backend := newFakeBackend(types.ReceiptStatusSuccessful, types.ReceiptStatusSuccessful)
	backend.neverMine = true
	executor := testExecutor(t, backend, 50*time.Millisecond)

	_, err := executor.Execute(context.Background(), testSigner(t), testPlan(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
	assert.NotErrorIs(t, err, ErrApprovalFailed)
}

func TestMinOutputAcceptAnyWithoutSlippage(t *testing.T) {
	executor := testExecutor(t, newFakeBackend(), 0)

	min, err := executor.MinOutput(context.Background(), big.NewInt(1000000), []common.Address{testTokenIn, testTokenOut}, 0)
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(1).Cmp(min))
}

func TestMinOutputAppliesSlippage(t *testing.T) {
	backend := newFakeBackend()
	out, err := contracts.RouterABI.Methods["getAmountsOut"].Outputs.Pack(
		[]*big.Int{big.NewInt(1000000), big.NewInt(500000)})
	require.NoError(t, err)
	backend.callResult = out

	executor := testExecutor(t, backend, 0)
	min, err := executor.MinOutput(context.Background(), big.NewInt(1000000), []common.Address{testTokenIn, testTokenOut}, 100)
	require.NoError(t, err)

	// 500000 quoted minus 1% tolerance.
	assert.Zero(t, big.NewInt(495000).Cmp(min))
}

func TestMinOutputRejectsFullSlippage(t *testing.T) {
	executor := testExecutor(t, newFakeBackend(), 0)

	_, err := executor.MinOutput(context.Background(), big.NewInt(1), []common.Address{testTokenIn, testTokenOut}, 10000)
	assert.Error(t, err)
}
