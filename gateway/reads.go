package gateway

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	chicks "github.com/chicksfi/chicks-sdk"
	"github.com/chicksfi/chicks-sdk/erc20"
)

// TokenPrice returns the current CHICKS price in 6-decimal USDC units.
func (g *Gateway) TokenPrice(ctx context.Context) (*big.Int, error) {
	return g.readUint(ctx, "chicksPrice")
}

// Backing returns the total USDC backing the token supply.
func (g *Gateway) Backing(ctx context.Context) (*big.Int, error) {
	return g.readUint(ctx, "backing")
}

// USDCBalance returns account's stablecoin balance.
func (g *Gateway) USDCBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	w, err := g.reader()
	if err != nil {
		return nil, err
	}
	return erc20.BalanceOf(ctx, w, g.usdc, account)
}

// ChicksBalance returns account's governed-token balance.
func (g *Gateway) ChicksBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	w, err := g.reader()
	if err != nil {
		return nil, err
	}
	return erc20.BalanceOf(ctx, w, g.chicks, account)
}

// EstimateSellOutput returns the post-fee USDC output of selling amount
// CHICKS, as quoted by the contract.
func (g *Gateway) EstimateSellOutput(ctx context.Context, amount *big.Int) (*big.Int, error) {
	w, err := g.reader()
	if err != nil {
		return nil, err
	}
	outputs, err := w.ReadContract(ctx, g.contract, ContractABI, "quoteSell", amount)
	if err != nil {
		return nil, g.translateRevert("quoteSell", err)
	}
	return firstUint(outputs, "quoteSell")
}

// MinimumSellOutput returns the contract's minimum accepted sell output.
func (g *Gateway) MinimumSellOutput(ctx context.Context) (*big.Int, error) {
	return g.readUint(ctx, "minimumSellOutput")
}

// LoanInfo returns the on-chain loan state for account. A zeroed position
// (Borrowed == 0) means no active loan.
func (g *Gateway) LoanInfo(ctx context.Context, account common.Address) (chicks.LoanPosition, error) {
	w, err := g.reader()
	if err != nil {
		return chicks.LoanPosition{}, err
	}
	outputs, err := w.ReadContract(ctx, g.contract, ContractABI, "loans", account)
	if err != nil {
		return chicks.LoanPosition{}, g.translateRevert("loans", err)
	}
	if len(outputs) < 4 {
		return chicks.LoanPosition{}, fmt.Errorf("loans returned %d outputs, want 4", len(outputs))
	}

	fields := make([]*big.Int, 4)
	for i := 0; i < 4; i++ {
		v, ok := outputs[i].(*big.Int)
		if !ok {
			return chicks.LoanPosition{}, fmt.Errorf("unexpected loans output type %T", outputs[i])
		}
		fields[i] = v
	}

	return chicks.LoanPosition{
		Collateral:   fields[0],
		Borrowed:     fields[1],
		EndDate:      fields[2].Int64(),
		DurationDays: fields[3].Uint64(),
	}, nil
}

// AccruedInterest returns the interest accrued on account's loan so far.
func (g *Gateway) AccruedInterest(ctx context.Context, account common.Address) (*big.Int, error) {
	w, err := g.reader()
	if err != nil {
		return nil, err
	}
	outputs, err := w.ReadContract(ctx, g.contract, ContractABI, "accruedInterest", account)
	if err != nil {
		return nil, g.translateRevert("accruedInterest", err)
	}
	return firstUint(outputs, "accruedInterest")
}

// HasActiveLoan reports whether account currently has a loan open. This is
// a convenience probe: a query failure degrades to false rather than
// blocking the surrounding flow.
func (g *Gateway) HasActiveLoan(ctx context.Context, account common.Address) bool {
	loan, err := g.LoanInfo(ctx, account)
	if err != nil {
		g.log.Warn().Err(err).Msg("active-loan probe failed")
		return false
	}
	return loan.Active()
}

// IsLoanExpired reports whether account's loan has passed its end date.
// Degrades to false on query failure, like HasActiveLoan.
func (g *Gateway) IsLoanExpired(ctx context.Context, account common.Address) bool {
	loan, err := g.LoanInfo(ctx, account)
	if err != nil {
		g.log.Warn().Err(err).Msg("loan-expiry probe failed")
		return false
	}
	return loan.Expired(time.Now())
}

// GetHealthFactor returns account's loan health as a 2-decimal string,
// or the sentinel "999" when no loan is active. A probe failure degrades
// to "0" rather than propagating.
func (g *Gateway) GetHealthFactor(ctx context.Context, account common.Address) string {
	loan, err := g.LoanInfo(ctx, account)
	if err != nil {
		g.log.Warn().Err(err).Msg("health-factor probe failed")
		return "0"
	}
	if !loan.Active() {
		return HealthFactorSentinel
	}

	interest, err := g.AccruedInterest(ctx, account)
	if err != nil {
		g.log.Warn().Err(err).Msg("health-factor probe failed")
		return "0"
	}
	price, err := g.TokenPrice(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("health-factor probe failed")
		return "0"
	}
	return HealthFactor(loan, interest, price)
}

// GetLiquidationPrice returns the CHICKS price, in 6-decimal USDC units,
// at which account's loan becomes liquidatable. Nil when no loan is open.
func (g *Gateway) GetLiquidationPrice(ctx context.Context, account common.Address) (*big.Int, error) {
	loan, err := g.LoanInfo(ctx, account)
	if err != nil {
		return nil, err
	}
	if !loan.Active() {
		return nil, nil
	}
	interest, err := g.AccruedInterest(ctx, account)
	if err != nil {
		return nil, err
	}
	return LiquidationPrice(loan, interest), nil
}

// PendingUSDCApproval reports the approval the next USDC-moving call
// would have to issue, or nil when the current allowance already covers
// required. UIs use this to surface an "Approve" step before submit.
func (g *Gateway) PendingUSDCApproval(ctx context.Context, account common.Address, required *big.Int) (*chicks.PendingApproval, error) {
	w, err := g.reader()
	if err != nil {
		return nil, err
	}
	current, err := erc20.Allowance(ctx, w, g.usdc, account, g.contract)
	if err != nil {
		return nil, err
	}
	if current.Cmp(required) >= 0 {
		return nil, nil
	}
	return &chicks.PendingApproval{
		Token:    g.usdc.Hex(),
		Spender:  g.contract.Hex(),
		Required: required,
	}, nil
}

func (g *Gateway) readUint(ctx context.Context, method string) (*big.Int, error) {
	w, err := g.reader()
	if err != nil {
		return nil, err
	}
	outputs, err := w.ReadContract(ctx, g.contract, ContractABI, method)
	if err != nil {
		return nil, g.translateRevert(method, err)
	}
	return firstUint(outputs, method)
}

func firstUint(outputs []interface{}, method string) (*big.Int, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%s returned no outputs", method)
	}
	v, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, outputs[0])
	}
	return v, nil
}
