package provider

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// receiptPollInterval is how often WaitForReceipt polls the node.
const receiptPollInterval = 1 * time.Second

// EthProvider is a node-backed Provider for a locally held key. It has no
// wallet UI, so RequestAccounts never prompts and account/chain change
// events never fire; embedding wallets layer their own event sources on
// top of the same interface.
type EthProvider struct {
	wallet *EthWallet

	mu           sync.Mutex
	accountsSubs map[int]func([]common.Address)
	chainSubs    map[int]func(*big.Int)
	nextSubToken int
}

// NewEthProvider creates a provider around an RPC endpoint and a
// hex-encoded private key (with or without "0x" prefix).
func NewEthProvider(rpcURL, privateKeyHex string) (*EthProvider, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	return NewEthProviderWithClient(client, privateKeyHex)
}

// NewEthProviderWithClient creates a provider around an existing ethclient.
func NewEthProviderWithClient(client *ethclient.Client, privateKeyHex string) (*EthProvider, error) {
	wallet, err := NewEthWallet(client, privateKeyHex)
	if err != nil {
		return nil, err
	}
	return &EthProvider{
		wallet:       wallet,
		accountsSubs: make(map[int]func([]common.Address)),
		chainSubs:    make(map[int]func(*big.Int)),
	}, nil
}

func (p *EthProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.wallet.Address()}, nil
}

func (p *EthProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.wallet.Address()}, nil
}

func (p *EthProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return p.wallet.ChainID(ctx)
}

// SwitchChain verifies the node is already on the requested chain. A
// key-backed provider cannot move the node, so a mismatch is an error.
func (p *EthProvider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	current, err := p.wallet.ChainID(ctx)
	if err != nil {
		return err
	}
	if current.Cmp(chainID) != 0 {
		return fmt.Errorf("node is on chain %s, cannot switch to %s", current, chainID)
	}
	return nil
}

func (p *EthProvider) OnAccountsChanged(fn func([]common.Address)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	token := p.nextSubToken
	p.nextSubToken++
	p.accountsSubs[token] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.accountsSubs, token)
	}
}

func (p *EthProvider) OnChainChanged(fn func(*big.Int)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	token := p.nextSubToken
	p.nextSubToken++
	p.chainSubs[token] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.chainSubs, token)
	}
}

func (p *EthProvider) Wallet() (Wallet, error) {
	return p.wallet, nil
}

// EthWallet implements Wallet with an ECDSA private key and an ethclient.
type EthWallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	client     *ethclient.Client

	mu      sync.Mutex
	chainID *big.Int
}

// NewEthWallet creates a wallet from a hex-encoded private key.
func NewEthWallet(client *ethclient.Client, privateKeyHex string) (*EthWallet, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &EthWallet{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		client:     client,
	}, nil
}

func (w *EthWallet) Address() common.Address {
	return w.address
}

func (w *EthWallet) ChainID(ctx context.Context) (*big.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.chainID != nil {
		return w.chainID, nil
	}
	chainID, err := w.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	w.chainID = chainID
	return chainID, nil
}

func (w *EthWallet) ReadContract(ctx context.Context, contract common.Address, abiJSON, method string, args ...interface{}) ([]interface{}, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	result, err := w.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("contract call %s failed: %w", method, err)
	}

	outputs, err := parsed.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return outputs, nil
}

func (w *EthWallet) WriteContract(ctx context.Context, contract common.Address, abiJSON, method string, opts TxOptions, args ...interface{}) (common.Hash, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to parse ABI: %w", err)
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	return w.submit(ctx, contract, data, opts)
}

func (w *EthWallet) EstimateGas(ctx context.Context, to common.Address, value *big.Int, data []byte) (uint64, error) {
	return w.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  w.address,
		To:    &to,
		Value: value,
		Data:  data,
	})
}

func (w *EthWallet) SendTransaction(ctx context.Context, to common.Address, data []byte, opts TxOptions) (common.Hash, error) {
	return w.submit(ctx, to, data, opts)
}

func (w *EthWallet) WaitForReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return &Receipt{
				TxHash:      receipt.TxHash,
				Status:      receipt.Status,
				BlockNumber: receipt.BlockNumber,
				GasUsed:     receipt.GasUsed,
			}, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get receipt: %w", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (w *EthWallet) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := w.client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

func (w *EthWallet) submit(ctx context.Context, to common.Address, data []byte, opts TxOptions) (common.Hash, error) {
	chainID, err := w.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice := opts.GasPrice
	if gasPrice == nil {
		gasPrice, err = w.client.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}

	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		gasLimit, err = w.client.EstimateGas(ctx, ethereum.CallMsg{
			From:     w.address,
			To:       &to,
			Value:    value,
			GasPrice: gasPrice,
			Data:     data,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), w.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signed.Hash(), nil
}
