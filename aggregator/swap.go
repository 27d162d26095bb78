package aggregator

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	chicks "github.com/chicksfi/chicks-sdk"
	"github.com/chicksfi/chicks-sdk/erc20"
	"github.com/chicksfi/chicks-sdk/provider"
)

// Status is the state of a single swap attempt. error is terminal per
// attempt; the client is reusable for a new attempt with fresh state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusQuoting   Status = "quoting"
	StatusApproving Status = "approving"
	StatusSwapping  Status = "swapping"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
)

// SwapParams describes one requested swap. A zero TokenIn/TokenOut means
// the native asset.
type SwapParams struct {
	TokenIn  common.Address
	TokenOut common.Address
	Amount   *big.Int

	// SlippageBps is the slippage tolerance in basis points.
	SlippageBps int

	// Deadline is when the route expires. Zero means one minute from now.
	Deadline time.Time

	// OnStatus, when set, observes each state transition.
	OnStatus func(Status)
}

// Attempt is the record of one swap attempt.
type Attempt struct {
	ID     string
	Status Status
	Quote  *chicks.QuoteResult
	TxHash common.Hash
	Err    error
}

// ExecuteSwap runs one full swap: quote, allowance check, approval when
// the allowance falls short (never for the native asset), route build,
// gas estimation, and submission. Gas-estimation failures for the two
// well-known upstream conditions are translated into actionable
// guidance; unrecognized ones propagate unchanged.
func (c *Client) ExecuteSwap(ctx context.Context, wallet provider.Wallet, params SwapParams) (*Attempt, error) {
	attempt := &Attempt{ID: uuid.NewString(), Status: StatusIdle}
	advance := func(s Status) {
		attempt.Status = s
		if params.OnStatus != nil {
			params.OnStatus(s)
		}
	}
	fail := func(err error) (*Attempt, error) {
		attempt.Err = err
		advance(StatusError)
		return attempt, err
	}

	advance(StatusQuoting)
	quote, err := c.GetQuote(ctx, params.TokenIn, params.TokenOut, params.Amount)
	if err != nil {
		return fail(err)
	}
	attempt.Quote = quote

	if !IsNative(params.TokenIn) {
		allowance, err := erc20.Allowance(ctx, wallet, params.TokenIn, wallet.Address(), c.router)
		if err != nil {
			return fail(err)
		}
		// The approving state exists only when an approval transaction is
		// actually needed; a covered allowance goes straight to swapping.
		if allowance.Cmp(params.Amount) < 0 {
			advance(StatusApproving)
			if _, err := erc20.EnsureAllowance(ctx, wallet, params.TokenIn, c.router, params.Amount, false, c.log); err != nil {
				return fail(c.translateSubmitError(err))
			}
		}
	}

	advance(StatusSwapping)
	deadline := params.Deadline
	if deadline.IsZero() {
		deadline = time.Now().Add(time.Minute)
	}
	tx, err := c.BuildTransaction(ctx, quote, params.TokenIn, params.TokenOut, wallet.Address(), params.SlippageBps, deadline.Unix())
	if err != nil {
		return fail(err)
	}

	gasLimit, err := wallet.EstimateGas(ctx, tx.To, tx.Value, tx.Data)
	if err != nil {
		return fail(c.translateEstimateError(err))
	}

	txHash, err := wallet.SendTransaction(ctx, tx.To, tx.Data, provider.TxOptions{
		GasLimit: gasLimit,
		Value:    tx.Value,
	})
	if err != nil {
		return fail(c.translateSubmitError(err))
	}

	attempt.TxHash = txHash
	advance(StatusSuccess)
	c.log.Info().Str("attempt", attempt.ID).Str("tx", txHash.Hex()).Msg("swap submitted")
	return attempt, nil
}

// translateEstimateError pattern-matches the two well-known estimation
// failures and turns them into guidance the UI can show directly.
func (c *Client) translateEstimateError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "return amount is not enough") || strings.Contains(msg, "insufficient output"):
		return chicks.NewError(chicks.ErrCodeSlippage,
			"The swap cannot complete at the chosen slippage. Raise the slippage tolerance and try again.", err)
	case strings.Contains(msg, "insufficient funds"):
		return chicks.NewError(chicks.ErrCodeInsufficientFunds,
			"Your balance does not cover this swap plus gas. Top up and try again.", err)
	default:
		return err
	}
}

// translateSubmitError distinguishes a wallet-level user rejection from a
// generic failure.
func (c *Client) translateSubmitError(err error) error {
	if provider.IsUserRejection(err) {
		return chicks.NewError(chicks.ErrCodeUserRejected,
			"The transaction was rejected in the wallet.", err)
	}
	return err
}
