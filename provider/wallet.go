package provider

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Transaction status values as reported in receipts.
const (
	TxStatusSuccess = 1
	TxStatusFailed  = 0
)

// Receipt is the subset of a transaction receipt the SDK consumes.
type Receipt struct {
	TxHash      common.Hash
	Status      uint64
	BlockNumber *big.Int
	GasUsed     uint64
}

// TxOptions carries optional per-transaction overrides. Zero values mean
// "let the node decide".
type TxOptions struct {
	GasLimit uint64
	GasPrice *big.Int
	Value    *big.Int
}

// Wallet submits reads and writes to the chain on behalf of one account.
//
// Every method suspends the caller until the node responds; none of them
// are cancellable once a transaction has been submitted.
type Wallet interface {
	// Address returns the account this wallet signs for.
	Address() common.Address

	// ChainID returns the chain ID of the connected network.
	ChainID(ctx context.Context) (*big.Int, error)

	// ReadContract performs a read-only contract call and returns the
	// unpacked outputs. It needs no signer and may be used before any
	// session is connected.
	ReadContract(ctx context.Context, contract common.Address, abiJSON, method string, args ...interface{}) ([]interface{}, error)

	// WriteContract packs and submits a state-changing contract call.
	WriteContract(ctx context.Context, contract common.Address, abiJSON, method string, opts TxOptions, args ...interface{}) (common.Hash, error)

	// EstimateGas estimates gas for a raw call against the current state.
	EstimateGas(ctx context.Context, to common.Address, value *big.Int, data []byte) (uint64, error)

	// SendTransaction submits a transaction with pre-encoded calldata.
	// Used for aggregator routes where the calldata comes from upstream.
	SendTransaction(ctx context.Context, to common.Address, data []byte, opts TxOptions) (common.Hash, error)

	// WaitForReceipt blocks until the transaction is mined.
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error)

	// BalanceOf returns the native-asset balance of the account.
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
}
