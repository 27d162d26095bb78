package chicks

import (
	"encoding/json"
	"math/big"
	"time"
)

// Token decimals used by the protocol. Both USDC and CHICKS use 6.
const (
	USDCDecimals   = 6
	ChicksDecimals = 6
)

// WalletSession is the single source of truth for "is a wallet connected,
// and to which account/chain".
//
// Invariant: Connected == true implies Address is a valid checksummed
// account string.
type WalletSession struct {
	Address   string `json:"address,omitempty"`
	Connected bool   `json:"connected"`
	ChainID   int64  `json:"chainId"`
}

// LoanPosition is a read-only projection of on-chain loan state for one
// account. Amounts are in 6-decimal token units. It is never mutated
// locally; callers refresh it with explicit queries.
type LoanPosition struct {
	Collateral   *big.Int `json:"collateralAmount"`
	Borrowed     *big.Int `json:"borrowedAmount"`
	EndDate      int64    `json:"endDateEpoch"`
	DurationDays uint64   `json:"durationDays"`
}

// Active reports whether the position represents a live loan.
// Borrowed > 0 defines "has active loan".
func (p LoanPosition) Active() bool {
	return p.Borrowed != nil && p.Borrowed.Sign() > 0
}

// Expired reports whether the loan's end date has passed.
func (p LoanPosition) Expired(now time.Time) bool {
	return p.Active() && p.EndDate > 0 && p.EndDate < now.Unix()
}

// PendingApproval is the allowance decision computed immediately before a
// mutating call. It is ephemeral: recomputed every time, never stored.
type PendingApproval struct {
	Token    string   `json:"token"`
	Spender  string   `json:"spender"`
	Required *big.Int `json:"required"`
}

// QuoteResult is a single aggregator quote. It has no identity beyond the
// request that produced it and is discarded once consumed by the swap
// submission step or the UI.
type QuoteResult struct {
	InAmount    *big.Int        `json:"inAmount"`
	OutAmount   *big.Int        `json:"outAmount"`
	PriceImpact string          `json:"priceImpact"`
	Route       json.RawMessage `json:"route,omitempty"`
}
