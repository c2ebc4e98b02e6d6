// Package sync bridges the device-local ledger used by anonymous sessions
// and the remote per-user document store used after sign-in.
package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"

	"github.com/username/tradefolio/backend/src/ledger"
	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/models"
	"github.com/username/tradefolio/backend/src/storage"
)

// ErrRemoteUnavailable indicates no remote store is configured for sign-in.
var ErrRemoteUnavailable = errors.New("remote store not configured")

// Coordinator selects the storage target for each session and keeps the
// active-account pointer valid as snapshots change underneath it.
type Coordinator struct {
	local  storage.Backend
	remote storage.Backend

	mu       stdsync.Mutex
	sessions map[string]*session
}

type session struct {
	signedIn        bool
	activeAccountID string
}

// NewCoordinator creates a coordinator over a local backend and an optional
// remote backend (nil when the deployment has no document store).
func NewCoordinator(local, remote storage.Backend) *Coordinator {
	return &Coordinator{
		local:    local,
		remote:   remote,
		sessions: make(map[string]*session),
	}
}

func (c *Coordinator) session(userID string) *session {
	s, ok := c.sessions[userID]
	if !ok {
		s = &session{}
		c.sessions[userID] = s
	}
	return s
}

// BackendFor returns the storage target for the user's current session:
// the remote store once signed in, the local store otherwise.
func (c *Coordinator) BackendFor(userID string) storage.Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessions[userID] != nil && c.sessions[userID].signedIn && c.remote != nil {
		return c.remote
	}
	return c.local
}

// StoreFor returns a ledger bound to the session's current backend.
func (c *Coordinator) StoreFor(userID string) *ledger.Store {
	return ledger.NewStore(c.BackendFor(userID))
}

// SignIn switches the session's read/write target to the remote store.
// Local-only data stays untouched on the local store until the user triggers
// SyncToCloud; nothing is discarded.
func (c *Coordinator) SignIn(ctx context.Context, userID string) error {
	if c.remote == nil {
		return ErrRemoteUnavailable
	}
	c.mu.Lock()
	s := c.session(userID)
	s.signedIn = true
	s.activeAccountID = ""
	c.mu.Unlock()

	// Settle the active-account pointer against the remote snapshot.
	if _, err := c.ActiveAccount(ctx, userID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	logger.FromContext(ctx).Info("session switched to remote store", "userID", userID)
	return nil
}

// SignOut reverts the session to the local store, discarding in-memory
// remote-sourced session state.
func (c *Coordinator) SignOut(ctx context.Context, userID string) {
	c.mu.Lock()
	delete(c.sessions, userID)
	c.mu.Unlock()
	logger.FromContext(ctx).Info("session reverted to local store", "userID", userID)
}

// SyncToCloud copies the anonymous local ledger into the remote store under
// the authenticated user, as one change set. Account documents are copied
// with their balances rather than replayed trade by trade, so balance deltas
// are never applied twice.
func (c *Coordinator) SyncToCloud(ctx context.Context, userID string) (accounts, trades int, err error) {
	if c.remote == nil {
		return 0, 0, ErrRemoteUnavailable
	}
	localAccounts, err := c.local.Accounts(ctx, storage.LocalUserID)
	if err != nil {
		return 0, 0, fmt.Errorf("reading local accounts: %w", err)
	}
	localTrades, err := c.local.Trades(ctx, storage.LocalUserID)
	if err != nil {
		return 0, 0, fmt.Errorf("reading local trades: %w", err)
	}
	if len(localAccounts) == 0 && len(localTrades) == 0 {
		return 0, 0, nil
	}

	cs := storage.ChangeSet{PutAccounts: localAccounts, PutTrades: localTrades}
	for i := range cs.PutAccounts {
		cs.PutAccounts[i].UserID = userID
	}
	for i := range cs.PutTrades {
		cs.PutTrades[i].UserID = userID
	}
	if err := c.remote.Apply(ctx, userID, cs); err != nil {
		return 0, 0, fmt.Errorf("copying ledger to remote store: %w", err)
	}
	logger.FromContext(ctx).Info("local ledger synced to cloud",
		"userID", userID, "accounts", len(localAccounts), "trades", len(localTrades))
	return len(localAccounts), len(localTrades), nil
}

// ActiveAccount returns the session's active account, re-validating the
// pointer against the current account set. When the pointed-at account no
// longer exists the session deterministically fails over to the first
// account in creation order. A session with no accounts at all lazily gets
// a default one.
func (c *Coordinator) ActiveAccount(ctx context.Context, userID string) (models.Account, error) {
	backend := c.BackendFor(userID)
	accounts, err := backend.Accounts(ctx, userID)
	if err != nil {
		return models.Account{}, fmt.Errorf("listing accounts: %w", err)
	}
	if len(accounts) == 0 {
		created, err := ledger.NewStore(backend).CreateAccount(ctx, userID, "Default", 0, "USD")
		if err != nil {
			return models.Account{}, fmt.Errorf("creating default account: %w", err)
		}
		c.setActive(userID, created.ID)
		return *created, nil
	}

	c.mu.Lock()
	activeID := c.session(userID).activeAccountID
	c.mu.Unlock()

	for _, a := range accounts {
		if a.ID == activeID {
			return a, nil
		}
	}
	if activeID != "" {
		logger.FromContext(ctx).Warn("active account missing from snapshot, failing over",
			"userID", userID, "previousAccountID", activeID, "newAccountID", accounts[0].ID)
	}
	c.setActive(userID, accounts[0].ID)
	return accounts[0], nil
}

// SwitchAccount changes the active-account pointer. Pointing at an id that
// does not exist in the current account set is a logged no-op.
func (c *Coordinator) SwitchAccount(ctx context.Context, userID, accountID string) (models.Account, error) {
	backend := c.BackendFor(userID)
	account, err := backend.Account(ctx, userID, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.FromContext(ctx).Warn("switch to unknown account ignored",
				"userID", userID, "accountID", accountID)
			return c.ActiveAccount(ctx, userID)
		}
		return models.Account{}, err
	}
	c.setActive(userID, account.ID)
	return account, nil
}

// SetActiveAccount records a freshly created account as active.
func (c *Coordinator) SetActiveAccount(userID, accountID string) {
	c.setActive(userID, accountID)
}

func (c *Coordinator) setActive(userID, accountID string) {
	c.mu.Lock()
	c.session(userID).activeAccountID = accountID
	c.mu.Unlock()
}

// SignedIn reports whether the session currently targets the remote store.
func (c *Coordinator) SignedIn(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[userID] != nil && c.sessions[userID].signedIn
}
