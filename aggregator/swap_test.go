package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chicks "github.com/chicksfi/chicks-sdk"
	"github.com/chicksfi/chicks-sdk/provider"
)

// Mock implementations for testing

type swapWallet struct {
	address common.Address

	allowance   *big.Int
	approvals   int
	estimateErr error
	sendErr     error
	sent        bool
}

func newSwapWallet() *swapWallet {
	return &swapWallet{
		address:   common.HexToAddress("0x1111111111111111111111111111111111111111"),
		allowance: new(big.Int),
	}
}

func (w *swapWallet) Address() common.Address { return w.address }

func (w *swapWallet) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(43114), nil }

func (w *swapWallet) ReadContract(ctx context.Context, contract common.Address, abiJSON, method string, args ...interface{}) ([]interface{}, error) {
	if method == "allowance" {
		return []interface{}{new(big.Int).Set(w.allowance)}, nil
	}
	return nil, errors.New("unexpected read")
}

func (w *swapWallet) WriteContract(ctx context.Context, contract common.Address, abiJSON, method string, opts provider.TxOptions, args ...interface{}) (common.Hash, error) {
	if method == "approve" {
		w.approvals++
		w.allowance = new(big.Int).Set(args[1].(*big.Int))
		return common.HexToHash("0x01"), nil
	}
	return common.Hash{}, errors.New("unexpected write")
}

func (w *swapWallet) EstimateGas(ctx context.Context, to common.Address, value *big.Int, data []byte) (uint64, error) {
	if w.estimateErr != nil {
		return 0, w.estimateErr
	}
	return 210_000, nil
}

func (w *swapWallet) SendTransaction(ctx context.Context, to common.Address, data []byte, opts provider.TxOptions) (common.Hash, error) {
	if w.sendErr != nil {
		return common.Hash{}, w.sendErr
	}
	w.sent = true
	return common.HexToHash("0x02"), nil
}

func (w *swapWallet) WaitForReceipt(ctx context.Context, txHash common.Hash) (*provider.Receipt, error) {
	return &provider.Receipt{TxHash: txHash, Status: provider.TxStatusSuccess}, nil
}

func (w *swapWallet) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return new(big.Int), nil
}

func swapHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/quote", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"data": map[string]interface{}{"inAmount": "1000000", "outAmount": "987654"},
		})
	})
	mux.HandleFunc("/swap", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"data": map[string]interface{}{"to": router.Hex(), "data": "0xdeadbeef", "value": "0"},
		})
	})
	return mux
}

func TestExecuteSwapFullSequence(t *testing.T) {
	client, server := newTestClient(swapHandler())
	defer server.Close()
	wallet := newSwapWallet()

	var transitions []Status
	attempt, err := client.ExecuteSwap(context.Background(), wallet, SwapParams{
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		Amount:      big.NewInt(1_000_000),
		SlippageBps: 50,
		OnStatus:    func(s Status) { transitions = append(transitions, s) },
	})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, attempt.Status)
	assert.NotEmpty(t, attempt.ID)
	assert.NotEqual(t, common.Hash{}, attempt.TxHash)
	assert.Equal(t, big.NewInt(987_654), attempt.Quote.OutAmount)

	// Allowance was zero, so the approving state is entered.
	assert.Equal(t, []Status{StatusQuoting, StatusApproving, StatusSwapping, StatusSuccess}, transitions)
	assert.Equal(t, 1, wallet.approvals)
	assert.True(t, wallet.sent)
}

func TestExecuteSwapSkipsApprovalWhenSufficient(t *testing.T) {
	client, server := newTestClient(swapHandler())
	defer server.Close()
	wallet := newSwapWallet()
	wallet.allowance = big.NewInt(2_000_000)

	var transitions []Status
	_, err := client.ExecuteSwap(context.Background(), wallet, SwapParams{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Amount:   big.NewInt(1_000_000),
		OnStatus: func(s Status) { transitions = append(transitions, s) },
	})
	require.NoError(t, err)

	assert.Zero(t, wallet.approvals)
	assert.NotContains(t, transitions, StatusApproving, "a covered allowance skips the approving state entirely")
	assert.Equal(t, []Status{StatusQuoting, StatusSwapping, StatusSuccess}, transitions)
}

func TestExecuteSwapNativeInputSkipsAllowance(t *testing.T) {
	client, server := newTestClient(swapHandler())
	defer server.Close()
	wallet := newSwapWallet()

	var transitions []Status
	_, err := client.ExecuteSwap(context.Background(), wallet, SwapParams{
		TokenIn:  common.Address{}, // native asset
		TokenOut: tokenOut,
		Amount:   big.NewInt(1_000_000),
		OnStatus: func(s Status) { transitions = append(transitions, s) },
	})
	require.NoError(t, err)

	assert.Zero(t, wallet.approvals)
	assert.NotContains(t, transitions, StatusApproving)
}

func TestExecuteSwapTranslatesSlippageEstimateFailure(t *testing.T) {
	client, server := newTestClient(swapHandler())
	defer server.Close()
	wallet := newSwapWallet()
	wallet.allowance = big.NewInt(2_000_000)
	wallet.estimateErr = errors.New("execution reverted: Return amount is not enough")

	attempt, err := client.ExecuteSwap(context.Background(), wallet, SwapParams{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Amount:   big.NewInt(1_000_000),
	})
	require.Error(t, err)
	assert.True(t, chicks.IsCode(err, chicks.ErrCodeSlippage))
	assert.Equal(t, StatusError, attempt.Status)
	assert.False(t, wallet.sent, "a failed estimate must not submit")
}

func TestExecuteSwapTranslatesInsufficientFunds(t *testing.T) {
	client, server := newTestClient(swapHandler())
	defer server.Close()
	wallet := newSwapWallet()
	wallet.allowance = big.NewInt(2_000_000)
	wallet.estimateErr = errors.New("insufficient funds for gas * price + value")

	_, err := client.ExecuteSwap(context.Background(), wallet, SwapParams{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Amount:   big.NewInt(1_000_000),
	})
	require.Error(t, err)
	assert.True(t, chicks.IsCode(err, chicks.ErrCodeInsufficientFunds))
}

func TestExecuteSwapUnknownEstimateFailurePropagates(t *testing.T) {
	client, server := newTestClient(swapHandler())
	defer server.Close()
	wallet := newSwapWallet()
	wallet.allowance = big.NewInt(2_000_000)
	wallet.estimateErr = errors.New("execution reverted: totally novel condition")

	_, err := client.ExecuteSwap(context.Background(), wallet, SwapParams{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Amount:   big.NewInt(1_000_000),
	})
	require.Error(t, err)
	assert.False(t, chicks.IsCode(err, chicks.ErrCodeSlippage))
	assert.False(t, chicks.IsCode(err, chicks.ErrCodeInsufficientFunds))
	assert.Contains(t, err.Error(), "totally novel condition")
}

func TestExecuteSwapUserRejection(t *testing.T) {
	client, server := newTestClient(swapHandler())
	defer server.Close()
	wallet := newSwapWallet()
	wallet.allowance = big.NewInt(2_000_000)
	wallet.sendErr = &provider.RPCError{Code: provider.CodeUserRejected, Message: "User rejected the request."}

	attempt, err := client.ExecuteSwap(context.Background(), wallet, SwapParams{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Amount:   big.NewInt(1_000_000),
	})
	require.Error(t, err)
	assert.True(t, chicks.IsCode(err, chicks.ErrCodeUserRejected))
	assert.Equal(t, StatusError, attempt.Status)
}

func TestExecuteSwapQuoteFailureIsTerminal(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 500, "message": "no route"})
	}))
	defer server.Close()
	wallet := newSwapWallet()

	attempt, err := client.ExecuteSwap(context.Background(), wallet, SwapParams{
		TokenIn:  tokenIn,
		TokenOut: tokenOut,
		Amount:   big.NewInt(1_000_000),
	})
	require.Error(t, err)
	assert.Equal(t, StatusError, attempt.Status)
	assert.Zero(t, wallet.approvals)
	assert.False(t, wallet.sent)
}
