package gateway

import (
	"math/big"

	"github.com/chicksfi/chicks-sdk/provider"
)

const (
	// MinBuyUSDC is the smallest accepted purchase, in 6-decimal USDC
	// units (0.13 USDC). Checked locally before any network call.
	MinBuyUSDC = 130_000

	// Liquidation threshold: a position is liquidatable when collateral
	// value falls to 110% of the outstanding debt.
	liquidationThresholdNum = 110
	liquidationThresholdDen = 100

	// HealthFactorSentinel is returned for accounts with no active loan,
	// meaning "maximally healthy / not applicable".
	HealthFactorSentinel = "999"
)

// unitScale is 10^6, the fixed-point scale shared by USDC and CHICKS.
var unitScale = big.NewInt(1_000_000)

// leverageGasSchedule is the bounded retry policy for opening a leveraged
// position: first attempt with a plain gas limit, one retry with a raised
// limit and an explicit gas price.
var leverageGasSchedule = []provider.TxOptions{
	{GasLimit: 1_000_000},
	{GasLimit: 2_000_000, GasPrice: big.NewInt(5_000_000_000)},
}

// ContractABI is the lending/trading contract surface the gateway drives.
const ContractABI = `[
	{"name":"chicksPrice","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"backing","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"quoteSell","type":"function","stateMutability":"view","inputs":[{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"minimumSellOutput","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"loans","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"collateralAmount","type":"uint256"},{"name":"borrowedAmount","type":"uint256"},{"name":"endDate","type":"uint256"},{"name":"duration","type":"uint256"}]},
	{"name":"accruedInterest","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"buyChicks","type":"function","stateMutability":"nonpayable","inputs":[{"name":"recipient","type":"address"},{"name":"usdcAmount","type":"uint256"}],"outputs":[]},
	{"name":"sellChicks","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"borrow","type":"function","stateMutability":"nonpayable","inputs":[{"name":"collateralAmount","type":"uint256"},{"name":"durationDays","type":"uint256"}],"outputs":[]},
	{"name":"borrowMore","type":"function","stateMutability":"nonpayable","inputs":[{"name":"collateralAmount","type":"uint256"}],"outputs":[]},
	{"name":"repay","type":"function","stateMutability":"nonpayable","inputs":[{"name":"usdcAmount","type":"uint256"}],"outputs":[]},
	{"name":"repayAll","type":"function","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"name":"leverage","type":"function","stateMutability":"nonpayable","inputs":[{"name":"usdcAmount","type":"uint256"},{"name":"durationDays","type":"uint256"}],"outputs":[]},
	{"name":"extendLoan","type":"function","stateMutability":"nonpayable","inputs":[{"name":"extraDays","type":"uint256"}],"outputs":[]},
	{"name":"liquidate","type":"function","stateMutability":"nonpayable","inputs":[{"name":"borrower","type":"address"}],"outputs":[]},
	{"name":"addCollateral","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"removeCollateral","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"closePosition","type":"function","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"name":"flashClose","type":"function","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`
