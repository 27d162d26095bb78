// Package provider abstracts the wallet the SDK acts through: account
// access, chain negotiation, change events, and transaction submission.
// Implementations are constructor-injected so tests can substitute a fake
// without touching shared state.
package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Well-known wallet RPC error codes (EIP-1193).
const (
	CodeUserRejected   = 4001
	CodeRequestPending = -32002
)

// RPCError is an error reported by the wallet provider itself, carrying the
// provider's numeric code so callers can distinguish a user rejection from
// a wallet that is busy with an earlier request.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// IsUserRejection reports whether err is a wallet-level user rejection.
func IsUserRejection(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeUserRejected
}

// IsRequestPending reports whether err indicates the wallet is already
// busy with a pending access request.
func IsRequestPending(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == CodeRequestPending
}

// Provider is the injected wallet surface the session layer negotiates
// with. RequestAccounts may prompt the user; Accounts never does.
type Provider interface {
	// RequestAccounts asks the wallet for account access, prompting the
	// user if necessary. Returns at least one address on success.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// Accounts returns the accounts already authorized, without prompting.
	// An empty slice means the wallet no longer grants access.
	Accounts(ctx context.Context) ([]common.Address, error)

	// ChainID returns the chain the provider is currently on.
	ChainID(ctx context.Context) (*big.Int, error)

	// SwitchChain asks the provider to move to the given chain.
	SwitchChain(ctx context.Context, chainID *big.Int) error

	// OnAccountsChanged registers a callback for account changes.
	// The returned function unsubscribes it.
	OnAccountsChanged(fn func(accounts []common.Address)) (unsubscribe func())

	// OnChainChanged registers a callback for chain changes.
	OnChainChanged(fn func(chainID *big.Int)) (unsubscribe func())

	// Wallet returns the transaction-capable wallet for the active
	// account. Fails if no account is authorized.
	Wallet() (Wallet, error)
}

// Factory lazily initializes and caches a single shared Provider. Multiple
// code paths requesting a provider get the same instance, so the wallet is
// only acquired once; unlike ambient module-level state the factory itself
// is an explicit dependency.
type Factory struct {
	build func() (Provider, error)

	once sync.Once
	p    Provider
	err  error
}

// NewFactory creates a factory around the given constructor. The
// constructor runs at most once, on first use.
func NewFactory(build func() (Provider, error)) *Factory {
	return &Factory{build: build}
}

// Provider returns the cached provider, building it on first call.
func (f *Factory) Provider() (Provider, error) {
	f.once.Do(func() {
		f.p, f.err = f.build()
	})
	return f.p, f.err
}
