package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	chicks "github.com/chicksfi/chicks-sdk"
	"github.com/chicksfi/chicks-sdk/erc20"
	"github.com/chicksfi/chicks-sdk/provider"
)

// BuyChicks purchases CHICKS with amount USDC (a decimal string like
// "1.0"). Amounts below 0.13 USDC are rejected locally, before any
// network call.
func (g *Gateway) BuyChicks(ctx context.Context, amount string) (common.Hash, error) {
	units, err := chicks.ParseUnits(amount, chicks.USDCDecimals)
	if err != nil {
		return common.Hash{}, err
	}
	if units.Cmp(big.NewInt(MinBuyUSDC)) < 0 {
		return common.Hash{}, chicks.NewError(chicks.ErrCodeBelowMinimum,
			"Minimum purchase is 0.13 USDC.", nil)
	}

	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := erc20.EnsureAllowance(ctx, w, g.usdc, g.contract, units, false, g.log); err != nil {
		return common.Hash{}, g.translateRevert("approve", err)
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "buyChicks", provider.TxOptions{}, w.Address(), units)
	if err != nil {
		return common.Hash{}, g.translateRevert("buyChicks", err)
	}
	return txHash, nil
}

// SellChicks sells amount CHICKS (decimal string) for USDC. The implied
// post-fee output is quoted first; if it would not clear the contract's
// minimum, the sale is rejected with a suggested minimum sell size.
func (g *Gateway) SellChicks(ctx context.Context, amount string) (common.Hash, error) {
	units, err := chicks.ParseUnits(amount, chicks.ChicksDecimals)
	if err != nil {
		return common.Hash{}, err
	}
	if units.Sign() == 0 {
		return common.Hash{}, chicks.NewError(chicks.ErrCodeInvalidInput, "Sell amount must be positive.", nil)
	}

	quoted, err := g.EstimateSellOutput(ctx, units)
	if err != nil {
		return common.Hash{}, err
	}
	minOutput, err := g.MinimumSellOutput(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if quoted.Cmp(minOutput) <= 0 {
		suggested := SuggestedMinimumSell(units, quoted, minOutput)
		msg := "Sell amount is too small."
		if suggested != nil {
			msg = fmt.Sprintf("Sell amount is too small. Minimum is about %s CHICKS.",
				chicks.FormatUnits(suggested, chicks.ChicksDecimals))
		}
		return common.Hash{}, chicks.NewError(chicks.ErrCodeBelowMinimum, msg, nil)
	}

	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := erc20.EnsureAllowance(ctx, w, g.chicks, g.contract, units, false, g.log); err != nil {
		return common.Hash{}, g.translateRevert("approve", err)
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "sellChicks", provider.TxOptions{}, units)
	if err != nil {
		return common.Hash{}, g.translateRevert("sellChicks", err)
	}
	return txHash, nil
}

// Borrow opens a new loan against collateralAmount CHICKS for the given
// duration. If the contract reports an existing loan, the error comes
// back typed so callers can switch to the borrow-more flow without
// re-deriving intent from the revert text.
func (g *Gateway) Borrow(ctx context.Context, collateralAmount string, durationDays uint64) (common.Hash, error) {
	units, err := chicks.ParseUnits(collateralAmount, chicks.ChicksDecimals)
	if err != nil {
		return common.Hash{}, err
	}

	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := erc20.EnsureAllowance(ctx, w, g.chicks, g.contract, units, false, g.log); err != nil {
		return common.Hash{}, g.translateRevert("approve", err)
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "borrow", provider.TxOptions{},
		units, new(big.Int).SetUint64(durationDays))
	if err != nil {
		return common.Hash{}, g.translateRevert("borrow", err)
	}
	return txHash, nil
}

// BorrowMore adds collateral to an existing loan and draws more USDC.
func (g *Gateway) BorrowMore(ctx context.Context, collateralAmount string) (common.Hash, error) {
	units, err := chicks.ParseUnits(collateralAmount, chicks.ChicksDecimals)
	if err != nil {
		return common.Hash{}, err
	}

	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := erc20.EnsureAllowance(ctx, w, g.chicks, g.contract, units, false, g.log); err != nil {
		return common.Hash{}, g.translateRevert("approve", err)
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "borrowMore", provider.TxOptions{}, units)
	if err != nil {
		return common.Hash{}, g.translateRevert("borrowMore", err)
	}
	return txHash, nil
}

// Repay pays down amount USDC of the outstanding loan.
func (g *Gateway) Repay(ctx context.Context, amount string) (common.Hash, error) {
	units, err := chicks.ParseUnits(amount, chicks.USDCDecimals)
	if err != nil {
		return common.Hash{}, err
	}

	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := erc20.EnsureAllowance(ctx, w, g.usdc, g.contract, units, false, g.log); err != nil {
		return common.Hash{}, g.translateRevert("approve", err)
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "repay", provider.TxOptions{}, units)
	if err != nil {
		return common.Hash{}, g.translateRevert("repay", err)
	}
	return txHash, nil
}

// RepayAll repays the exact outstanding balance (borrowed plus accrued
// interest) and releases the collateral.
func (g *Gateway) RepayAll(ctx context.Context) (common.Hash, error) {
	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	outstanding, err := g.outstandingDebt(ctx, w.Address())
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := erc20.EnsureAllowance(ctx, w, g.usdc, g.contract, outstanding, false, g.log); err != nil {
		return common.Hash{}, g.translateRevert("approve", err)
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "repayAll", provider.TxOptions{})
	if err != nil {
		return common.Hash{}, g.translateRevert("repayAll", err)
	}
	return txHash, nil
}

// Leverage opens a leveraged position seeded with amount USDC. The
// allowance is widened to the maximum here, because the leverage flow
// would otherwise re-approve on every interaction. Submission follows the
// declared gas schedule: a plain attempt, then one retry with a raised
// limit and explicit gas price. If both attempts fail and a loan now
// exists (a race with another transaction), that is surfaced as the cause.
func (g *Gateway) Leverage(ctx context.Context, amount string, durationDays uint64) (common.Hash, error) {
	units, err := chicks.ParseUnits(amount, chicks.USDCDecimals)
	if err != nil {
		return common.Hash{}, err
	}

	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := erc20.EnsureAllowance(ctx, w, g.usdc, g.contract, units, true, g.log); err != nil {
		return common.Hash{}, g.translateRevert("approve", err)
	}

	var lastErr error
	for i, opts := range leverageGasSchedule {
		txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "leverage", opts,
			units, new(big.Int).SetUint64(durationDays))
		if err == nil {
			return txHash, nil
		}
		lastErr = err
		g.log.Warn().Err(err).Int("attempt", i+1).Msg("leverage attempt failed")
	}

	if g.HasActiveLoan(ctx, w.Address()) {
		return common.Hash{}, chicks.NewError(chicks.ErrCodeBorrowMoreRequired,
			`You already have an active loan. Please use "Borrow More" instead.`, lastErr)
	}
	return common.Hash{}, g.translateRevert("leverage", lastErr)
}

// ExtendLoan extends the loan by extraDays, paying the accrued interest
// in USDC up front.
func (g *Gateway) ExtendLoan(ctx context.Context, extraDays uint64) (common.Hash, error) {
	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	interest, err := g.AccruedInterest(ctx, w.Address())
	if err != nil {
		return common.Hash{}, err
	}
	if interest.Sign() > 0 {
		if _, err := erc20.EnsureAllowance(ctx, w, g.usdc, g.contract, interest, false, g.log); err != nil {
			return common.Hash{}, g.translateRevert("approve", err)
		}
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "extendLoan", provider.TxOptions{},
		new(big.Int).SetUint64(extraDays))
	if err != nil {
		return common.Hash{}, g.translateRevert("extendLoan", err)
	}
	return txHash, nil
}

// Liquidate repays borrower's expired or undercollateralized loan and
// claims the collateral. The liquidator covers the debt in USDC.
func (g *Gateway) Liquidate(ctx context.Context, borrower common.Address) (common.Hash, error) {
	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	debt, err := g.outstandingDebt(ctx, borrower)
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := erc20.EnsureAllowance(ctx, w, g.usdc, g.contract, debt, false, g.log); err != nil {
		return common.Hash{}, g.translateRevert("approve", err)
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "liquidate", provider.TxOptions{}, borrower)
	if err != nil {
		return common.Hash{}, g.translateRevert("liquidate", err)
	}
	return txHash, nil
}

// AddCollateral locks additional CHICKS behind the active loan.
func (g *Gateway) AddCollateral(ctx context.Context, amount string) (common.Hash, error) {
	units, err := chicks.ParseUnits(amount, chicks.ChicksDecimals)
	if err != nil {
		return common.Hash{}, err
	}

	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := erc20.EnsureAllowance(ctx, w, g.chicks, g.contract, units, false, g.log); err != nil {
		return common.Hash{}, g.translateRevert("approve", err)
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "addCollateral", provider.TxOptions{}, units)
	if err != nil {
		return common.Hash{}, g.translateRevert("addCollateral", err)
	}
	return txHash, nil
}

// RemoveCollateral releases amount CHICKS from the loan, as far as the
// contract's collateral requirements allow.
func (g *Gateway) RemoveCollateral(ctx context.Context, amount string) (common.Hash, error) {
	units, err := chicks.ParseUnits(amount, chicks.ChicksDecimals)
	if err != nil {
		return common.Hash{}, err
	}

	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "removeCollateral", provider.TxOptions{}, units)
	if err != nil {
		return common.Hash{}, g.translateRevert("removeCollateral", err)
	}
	return txHash, nil
}

// ClosePosition repays the exact outstanding balance and releases the
// collateral in one step. If the contract reports insufficient collateral
// for the direct path, it falls back to a flash close: an atomic
// flash-loan-style transaction that needs no upfront user funds.
func (g *Gateway) ClosePosition(ctx context.Context) (common.Hash, error) {
	w, err := g.signer(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	outstanding, err := g.outstandingDebt(ctx, w.Address())
	if err != nil {
		return common.Hash{}, err
	}
	if _, err := erc20.EnsureAllowance(ctx, w, g.usdc, g.contract, outstanding, false, g.log); err != nil {
		return common.Hash{}, g.translateRevert("approve", err)
	}

	txHash, err := w.WriteContract(ctx, g.contract, ContractABI, "closePosition", provider.TxOptions{})
	if err == nil {
		return txHash, nil
	}

	translated := g.translateRevert("closePosition", err)
	if !chicks.IsCode(translated, chicks.ErrCodeInsufficientCollateral) {
		return common.Hash{}, translated
	}

	g.log.Info().Msg("direct close rejected, falling back to flash close")
	txHash, err = w.WriteContract(ctx, g.contract, ContractABI, "flashClose", provider.TxOptions{})
	if err != nil {
		return common.Hash{}, g.translateRevert("flashClose", err)
	}
	return txHash, nil
}
