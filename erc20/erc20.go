// Package erc20 is the minimal standard-token surface the SDK needs:
// allowance, approve, balanceOf, and the check-then-approve step that
// precedes every token-moving transaction.
package erc20

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/chicksfi/chicks-sdk/provider"
)

// ABI covers the ERC-20 methods the SDK calls.
const ABI = `[
	{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

// MaxAllowance is the unlimited-approval value (2^256 - 1).
var MaxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Allowance returns how much spender may move from owner's balance.
func Allowance(ctx context.Context, w provider.Wallet, token, owner, spender common.Address) (*big.Int, error) {
	outputs, err := w.ReadContract(ctx, token, ABI, "allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("allowance query failed: %w", err)
	}
	return asBigInt(outputs, "allowance")
}

// BalanceOf returns account's token balance.
func BalanceOf(ctx context.Context, w provider.Wallet, token, account common.Address) (*big.Int, error) {
	outputs, err := w.ReadContract(ctx, token, ABI, "balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("balance query failed: %w", err)
	}
	return asBigInt(outputs, "balanceOf")
}

// Approve submits an approval for spender and returns the transaction
// hash without waiting for confirmation.
func Approve(ctx context.Context, w provider.Wallet, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	txHash, err := w.WriteContract(ctx, token, ABI, "approve", provider.TxOptions{}, spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("approve failed: %w", err)
	}
	return txHash, nil
}

// EnsureAllowance reads the current allowance and, if insufficient,
// submits an approval and waits for it to confirm before returning. The
// approval is for exactly the required amount unless widenToMax is set
// (used by flows that would otherwise re-approve on every interaction).
//
// Returns true when an approval transaction was issued. Calling it again
// with the same requirement observes a sufficient allowance and skips.
func EnsureAllowance(ctx context.Context, w provider.Wallet, token, spender common.Address, required *big.Int, widenToMax bool, log zerolog.Logger) (bool, error) {
	current, err := Allowance(ctx, w, token, w.Address(), spender)
	if err != nil {
		return false, err
	}
	if current.Cmp(required) >= 0 {
		return false, nil
	}

	amount := required
	if widenToMax {
		amount = MaxAllowance
	}

	log.Debug().
		Str("token", token.Hex()).
		Str("spender", spender.Hex()).
		Str("amount", amount.String()).
		Msg("submitting approval")

	txHash, err := Approve(ctx, w, token, spender, amount)
	if err != nil {
		return false, err
	}

	// The economic transaction must not be submitted until the approval
	// is mined; doing so would revert on-chain.
	receipt, err := w.WaitForReceipt(ctx, txHash)
	if err != nil {
		return false, fmt.Errorf("failed waiting for approval: %w", err)
	}
	if receipt.Status != provider.TxStatusSuccess {
		return false, fmt.Errorf("approval transaction %s reverted", txHash.Hex())
	}
	return true, nil
}

func asBigInt(outputs []interface{}, method string) (*big.Int, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%s returned no outputs", method)
	}
	v, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, outputs[0])
	}
	return v, nil
}
