// Package gateway wraps the CHICKS lending/trading contract behind a
// typed method surface. Reads need no signer; writes lazily connect the
// session and run the allowance protocol before submitting.
package gateway

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	chicks "github.com/chicksfi/chicks-sdk"
	"github.com/chicksfi/chicks-sdk/provider"
	"github.com/chicksfi/chicks-sdk/session"
)

// Config configures a Gateway. Contract, USDC, Chicks, and Provider are
// required; Session enables lazy connect-on-demand for writes.
type Config struct {
	// Contract is the lending/trading contract address.
	Contract common.Address

	// USDC and Chicks are the stablecoin and governed-token addresses.
	USDC   common.Address
	Chicks common.Address

	Provider provider.Provider
	Session  *session.Manager

	// Logger receives boundary failures before they are re-thrown.
	// Defaults to a no-op.
	Logger *zerolog.Logger
}

// Gateway exposes every on-chain action of the protocol as an async
// method, hiding unit conversion and allowance bookkeeping.
type Gateway struct {
	contract common.Address
	usdc     common.Address
	chicks   common.Address

	provider provider.Provider
	session  *session.Manager
	log      zerolog.Logger
}

// New creates a gateway. config must not be nil.
func New(config *Config) *Gateway {
	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}
	return &Gateway{
		contract: config.Contract,
		usdc:     config.USDC,
		chicks:   config.Chicks,
		provider: config.Provider,
		session:  config.Session,
		log:      log,
	}
}

// reader returns a wallet for read-only calls. Reads never require a
// connected session.
func (g *Gateway) reader() (provider.Wallet, error) {
	if g.provider == nil {
		return nil, chicks.NewError(chicks.ErrCodeNoProvider,
			"No wallet provider found. Please install a wallet to continue.", nil)
	}
	return g.provider.Wallet()
}

// signer returns a wallet for state-changing calls, transparently
// triggering the session's Connect first when no session is attached yet.
func (g *Gateway) signer(ctx context.Context) (provider.Wallet, error) {
	if g.session != nil && !g.session.Connected() {
		if _, err := g.session.Connect(ctx); err != nil {
			return nil, err
		}
	}
	return g.reader()
}

// outstandingDebt returns borrowed + accrued interest for account.
func (g *Gateway) outstandingDebt(ctx context.Context, account common.Address) (*big.Int, error) {
	loan, err := g.LoanInfo(ctx, account)
	if err != nil {
		return nil, err
	}
	interest, err := g.AccruedInterest(ctx, account)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(loan.Borrowed, interest), nil
}
