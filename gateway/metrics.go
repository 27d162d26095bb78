package gateway

import (
	"fmt"
	"math/big"

	chicks "github.com/chicksfi/chicks-sdk"
)

// LiquidationPrice computes the CHICKS price at which a loan becomes
// liquidatable, in 6-decimal USDC units:
//
//	threshold = (borrowed + interest) * 110 / 100
//	price     = threshold * 10^6 / collateral
//
// The 110%-of-debt threshold is the protocol's convention. Returns nil
// for an inactive loan or zero collateral.
func LiquidationPrice(loan chicks.LoanPosition, interest *big.Int) *big.Int {
	if !loan.Active() || loan.Collateral == nil || loan.Collateral.Sign() == 0 {
		return nil
	}
	if interest == nil {
		interest = new(big.Int)
	}

	debt := new(big.Int).Add(loan.Borrowed, interest)
	threshold := new(big.Int).Mul(debt, big.NewInt(liquidationThresholdNum))
	threshold.Div(threshold, big.NewInt(liquidationThresholdDen))

	price := new(big.Int).Mul(threshold, unitScale)
	return price.Div(price, loan.Collateral)
}

// HealthFactor computes loan health as a percentage of collateral value
// over outstanding debt, rendered with 2 decimal places:
//
//	health = (collateral * price) * 100 / (borrowed + interest)
//
// price is in 6-decimal USDC units per whole CHICKS. Accounts with no
// active loan get the fixed sentinel "999" regardless of collateral or
// price.
func HealthFactor(loan chicks.LoanPosition, interest, price *big.Int) string {
	if !loan.Active() {
		return HealthFactorSentinel
	}
	if interest == nil {
		interest = new(big.Int)
	}

	debt := new(big.Int).Add(loan.Borrowed, interest)
	if debt.Sign() == 0 {
		return HealthFactorSentinel
	}

	// Two extra decimal digits are carried through the division so the
	// rendering step does not lose precision.
	numerator := new(big.Int).Mul(loan.Collateral, price)
	numerator.Mul(numerator, big.NewInt(100*100))

	denominator := new(big.Int).Mul(debt, unitScale)

	v := numerator.Div(numerator, denominator)
	whole, frac := new(big.Int).QuoRem(v, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s.%02d", whole.String(), frac.Int64())
}

// SuggestedMinimumSell computes the smallest sell amount whose quoted
// output clears minOutput, scaling the rejected amount by the shortfall
// and rounding up.
func SuggestedMinimumSell(amount, quotedOutput, minOutput *big.Int) *big.Int {
	if quotedOutput == nil || quotedOutput.Sign() == 0 {
		return nil
	}
	suggested := new(big.Int).Mul(amount, minOutput)
	rem := new(big.Int)
	suggested.QuoRem(suggested, quotedOutput, rem)
	if rem.Sign() > 0 {
		suggested.Add(suggested, big.NewInt(1))
	}
	return suggested
}
