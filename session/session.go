// Package session owns wallet-connection state: which account is
// connected, on which chain, and how that survives restarts.
package session

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	chicks "github.com/chicksfi/chicks-sdk"
	"github.com/chicksfi/chicks-sdk/provider"
)

// DefaultChainDebounce is the minimum quiet period applied to chain-change
// events. Some wallets emit the event several times per switch; the
// trailing event wins.
const DefaultChainDebounce = 500 * time.Millisecond

// Config configures a session manager. Provider is required; everything
// else has working defaults.
type Config struct {
	Provider provider.Provider

	// Store persists the connected address. Defaults to an in-memory
	// store (no persistence across runs).
	Store Store

	// ChainDebounce overrides the chain-change debounce interval.
	ChainDebounce time.Duration

	// Logger receives session lifecycle events. Defaults to a no-op.
	Logger *zerolog.Logger
}

// Manager is the single source of truth for wallet-connection state.
type Manager struct {
	provider      provider.Provider
	store         Store
	chainDebounce time.Duration
	log           zerolog.Logger

	mu      sync.Mutex
	session chicks.WalletSession
	unsubs  []func()

	debounceTimer *time.Timer
}

// NewManager creates a session manager. config must not be nil but its
// optional fields may be zero.
func NewManager(config *Config) *Manager {
	store := config.Store
	if store == nil {
		store = &MemStore{}
	}

	debounce := config.ChainDebounce
	if debounce == 0 {
		debounce = DefaultChainDebounce
	}

	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}

	return &Manager{
		provider:      config.Provider,
		store:         store,
		chainDebounce: debounce,
		log:           log,
	}
}

// Current returns a snapshot of the session state.
func (m *Manager) Current() chicks.WalletSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Connected reports whether a wallet is currently connected.
func (m *Manager) Connected() bool {
	return m.Current().Connected
}

// Address returns the connected account, or the zero address when
// disconnected.
func (m *Manager) Address() common.Address {
	s := m.Current()
	if !s.Connected {
		return common.Address{}
	}
	return common.HexToAddress(s.Address)
}

// Connect requests account access from the provider, normalizes the
// returned address to checksum form, persists it, and transitions to
// connected. On any failure the state rolls back to disconnected.
func (m *Manager) Connect(ctx context.Context) (chicks.WalletSession, error) {
	if m.provider == nil {
		return chicks.WalletSession{}, chicks.NewError(chicks.ErrCodeNoProvider,
			"No wallet provider found. Please install a wallet to continue.", nil)
	}

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		return chicks.WalletSession{}, m.translateConnectError(err)
	}
	if len(accounts) == 0 {
		return chicks.WalletSession{}, chicks.NewError(chicks.ErrCodeUserRejected,
			"The wallet returned no accounts.", nil)
	}

	chainID := int64(0)
	if id, err := m.provider.ChainID(ctx); err == nil {
		chainID = id.Int64()
	}

	address := accounts[0].Hex()
	if err := m.store.Save(address); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist session")
	}

	m.mu.Lock()
	m.session = chicks.WalletSession{Address: address, Connected: true, ChainID: chainID}
	m.subscribeLocked()
	session := m.session
	m.mu.Unlock()

	m.log.Info().Str("address", address).Int64("chain_id", chainID).Msg("wallet connected")
	return session, nil
}

// Disconnect clears in-memory state and durable storage. It has no
// on-chain effect; disconnection is a local state change only.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.session = chicks.WalletSession{}
	unsubs := m.unsubs
	m.unsubs = nil
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
		m.debounceTimer = nil
	}
	m.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if err := m.store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear persisted session")
	}
	m.log.Info().Msg("wallet disconnected")
}

// Restore reads the persisted address and, if well-formed, optimistically
// marks the session connected without re-prompting the wallet. A malformed
// persisted address is corrupt state: it is cleared, not retried. The
// provider is not consulted here; the first real interaction must call
// Resync to reconcile.
func (m *Manager) Restore() (chicks.WalletSession, error) {
	stored, err := m.store.Load()
	if err != nil {
		return chicks.WalletSession{}, err
	}
	if stored == "" {
		return chicks.WalletSession{}, nil
	}

	if !common.IsHexAddress(stored) {
		if err := m.store.Clear(); err != nil {
			m.log.Warn().Err(err).Msg("failed to clear corrupt session")
		}
		m.log.Warn().Str("stored", stored).Msg("discarding corrupt persisted address")
		return chicks.WalletSession{}, chicks.NewError(chicks.ErrCodeCorruptSession,
			"Stored wallet session was invalid and has been cleared.", nil)
	}

	address := common.HexToAddress(stored).Hex()

	m.mu.Lock()
	m.session = chicks.WalletSession{Address: address, Connected: true}
	m.subscribeLocked()
	session := m.session
	m.mu.Unlock()

	m.log.Info().Str("address", address).Msg("session restored from storage")
	return session, nil
}

// Resync reconciles an optimistically restored session with the provider.
// If the provider no longer grants access the session is torn down; if it
// reports a different account the session silently follows it.
func (m *Manager) Resync(ctx context.Context) {
	if m.provider == nil || !m.Connected() {
		return
	}

	accounts, err := m.provider.Accounts(ctx)
	if err != nil {
		// Leave the restored state alone; the next mutating call will
		// surface a real error if the provider is truly gone.
		m.log.Warn().Err(err).Msg("resync query failed")
		return
	}
	m.handleAccountsChanged(accounts)
}

// handleAccountsChanged follows the provider's account list: empty means
// the wallet revoked access (equivalent to Disconnect), otherwise the
// first account becomes the session account, re-checksummed.
func (m *Manager) handleAccountsChanged(accounts []common.Address) {
	if len(accounts) == 0 {
		m.Disconnect()
		return
	}

	address := accounts[0].Hex()

	m.mu.Lock()
	changed := m.session.Address != address
	m.session.Address = address
	m.session.Connected = true
	m.mu.Unlock()

	if changed {
		if err := m.store.Save(address); err != nil {
			m.log.Warn().Err(err).Msg("failed to persist session")
		}
		m.log.Info().Str("address", address).Msg("active account changed")
	}
}

// debouncedChainChange coalesces bursts of chain-change events; only the
// trailing event inside the debounce window is applied, and only internal
// bookkeeping changes. No page-reload analogue exists here.
func (m *Manager) debouncedChainChange(chainID *big.Int) {
	id := chainID.Int64()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.debounceTimer != nil {
		m.debounceTimer.Stop()
	}
	m.debounceTimer = time.AfterFunc(m.chainDebounce, func() {
		m.mu.Lock()
		m.session.ChainID = id
		m.mu.Unlock()
		m.log.Info().Int64("chain_id", id).Msg("chain changed")
	})
}

func (m *Manager) subscribeLocked() {
	if m.provider == nil || len(m.unsubs) > 0 {
		return
	}

	unsubAccounts := m.provider.OnAccountsChanged(m.handleAccountsChanged)
	unsubChain := m.provider.OnChainChanged(m.debouncedChainChange)
	m.unsubs = []func(){unsubAccounts, unsubChain}
}

func (m *Manager) translateConnectError(err error) error {
	switch {
	case provider.IsUserRejection(err):
		return chicks.NewError(chicks.ErrCodeUserRejected,
			"Connection request was rejected in the wallet.", err)
	case provider.IsRequestPending(err):
		return chicks.NewError(chicks.ErrCodeRequestPending,
			"The wallet is already processing a connection request. Open your wallet to continue.", err)
	default:
		return chicks.NewError(chicks.ErrCodeNoProvider,
			"Could not connect to the wallet.", err)
	}
}
