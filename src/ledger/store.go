package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/models"
	"github.com/username/tradefolio/backend/src/processors"
	"github.com/username/tradefolio/backend/src/security/validation"
	"github.com/username/tradefolio/backend/src/storage"
)

// ErrAccountNotFound is returned by mutations that require an existing account.
var ErrAccountNotFound = errors.New("account not found")

// Store is the single source of truth for accounts and trades. Every trade
// mutation and its balance delta go through one storage.ChangeSet, so the
// account balance always equals the initial balance plus the sum of its
// trades' PnL. There is no runtime cross-check; the invariant holds because
// no code path writes one side without the other.
type Store struct {
	backend   storage.Backend
	processor *processors.TradeProcessor
	now       func() time.Time
}

// NewStore creates a ledger over the given storage backend.
func NewStore(backend storage.Backend) *Store {
	return &Store{
		backend:   backend,
		processor: processors.NewTradeProcessor(),
		now:       time.Now,
	}
}

// Backend exposes the underlying storage target, used by the sync layer.
func (s *Store) Backend() storage.Backend { return s.backend }

// AddTrade validates and enriches the input, then appends the trade and
// applies its PnL to the owning account in one atomic change.
func (s *Store) AddTrade(ctx context.Context, userID string, in models.TradeInput) (*models.Trade, error) {
	if err := validation.ValidateTradeInput(in); err != nil {
		return nil, err
	}
	account, err := s.backend.Account(ctx, userID, in.AccountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, in.AccountID)
		}
		return nil, fmt.Errorf("loading account %s: %w", in.AccountID, err)
	}

	trade := s.processor.Process(in, userID, account.Balance, s.now().UTC())
	account.ApplyPnL(trade.PnL)

	cs := storage.ChangeSet{
		PutTrades:   []models.Trade{trade},
		PutAccounts: []models.Account{account},
	}
	if err := s.backend.Apply(ctx, userID, cs); err != nil {
		return nil, fmt.Errorf("persisting trade: %w", err)
	}
	return &trade, nil
}

// ImportTrades bulk-adds records from the import boundary. Records follow the
// same derivation rules as manual entry; each affected account receives one
// net balance adjustment, and the whole batch is applied atomically.
func (s *Store) ImportTrades(ctx context.Context, userID string, ins []models.TradeInput) ([]models.Trade, error) {
	if len(ins) == 0 {
		return nil, nil
	}
	accounts := make(map[string]models.Account)
	var trades []models.Trade
	now := s.now().UTC()

	for i, in := range ins {
		if err := validation.ValidateTradeInput(in); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		account, ok := accounts[in.AccountID]
		if !ok {
			var err error
			account, err = s.backend.Account(ctx, userID, in.AccountID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil, fmt.Errorf("record %d: %w: %s", i, ErrAccountNotFound, in.AccountID)
				}
				return nil, fmt.Errorf("record %d: loading account %s: %w", i, in.AccountID, err)
			}
		}

		trade := s.processor.Process(in, userID, account.Balance, now)
		account.ApplyPnL(trade.PnL)
		accounts[in.AccountID] = account
		trades = append(trades, trade)
	}

	cs := storage.ChangeSet{PutTrades: trades}
	for _, a := range accounts {
		cs.PutAccounts = append(cs.PutAccounts, a)
	}
	if err := s.backend.Apply(ctx, userID, cs); err != nil {
		return nil, fmt.Errorf("persisting imported trades: %w", err)
	}
	return trades, nil
}

// EditTrade applies a partial update, recomputing derived fields whose inputs
// changed, and moves the owning account balance by newPnL - oldPnL in the
// same change. Editing a trade that does not exist is a logged no-op; stale
// ids are expected after remote snapshots and are not an error.
func (s *Store) EditTrade(ctx context.Context, userID, id string, upd models.TradeUpdate) (*models.Trade, error) {
	trade, err := s.backend.Trade(ctx, userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.FromContext(ctx).Warn("edit of unknown trade ignored", "tradeID", id)
			return nil, nil
		}
		return nil, fmt.Errorf("loading trade %s: %w", id, err)
	}

	oldPnL := trade.PnL
	updated := s.processor.ApplyUpdate(trade, upd, s.now().UTC())
	pnlDiff := updated.PnL - oldPnL

	cs := storage.ChangeSet{PutTrades: []models.Trade{updated}}
	if pnlDiff != 0 {
		account, err := s.backend.Account(ctx, userID, updated.AccountID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				logger.FromContext(ctx).Warn("edit of trade with unknown account ignored",
					"tradeID", id, "accountID", updated.AccountID)
				return nil, nil
			}
			return nil, fmt.Errorf("loading account %s: %w", updated.AccountID, err)
		}
		// pnl_percent stays anchored to the balance before this edit's delta.
		if account.Balance != 0 {
			updated.PnLPercent = updated.PnL / account.Balance * 100
		}
		account.ApplyPnL(pnlDiff)
		cs.PutTrades = []models.Trade{updated}
		cs.PutAccounts = []models.Account{account}
	}
	if err := s.backend.Apply(ctx, userID, cs); err != nil {
		return nil, fmt.Errorf("persisting trade update: %w", err)
	}
	return &updated, nil
}

// DeleteTrade removes one trade, reversing its balance contribution.
func (s *Store) DeleteTrade(ctx context.Context, userID, id string) error {
	return s.DeleteTrades(ctx, userID, []string{id})
}

// DeleteTrades removes a set of trades. Balance reversals are batched into a
// single net adjustment per affected account, applied together with the
// removals; no intermediate state is observable. Unknown ids are skipped.
func (s *Store) DeleteTrades(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	deltas := make(map[string]float64)
	var found []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		// A duplicated id must reverse its PnL only once.
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		trade, err := s.backend.Trade(ctx, userID, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				logger.FromContext(ctx).Warn("delete of unknown trade ignored", "tradeID", id)
				continue
			}
			return fmt.Errorf("loading trade %s: %w", id, err)
		}
		found = append(found, id)
		deltas[trade.AccountID] -= trade.PnL
	}
	if len(found) == 0 {
		return nil
	}

	cs := storage.ChangeSet{DeleteTradeIDs: found}
	for accountID, delta := range deltas {
		account, err := s.backend.Account(ctx, userID, accountID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				logger.FromContext(ctx).Warn("deleted trades referenced unknown account",
					"accountID", accountID)
				continue
			}
			return fmt.Errorf("loading account %s: %w", accountID, err)
		}
		account.ApplyPnL(delta)
		cs.PutAccounts = append(cs.PutAccounts, account)
	}
	if err := s.backend.Apply(ctx, userID, cs); err != nil {
		return fmt.Errorf("persisting trade deletion: %w", err)
	}
	return nil
}

// CreateAccount creates a profile with balance and equity at the initial
// deposit.
func (s *Store) CreateAccount(ctx context.Context, userID, name string, initialBalance float64, currency string) (*models.Account, error) {
	if err := validation.ValidateAccountInput(name, initialBalance, currency); err != nil {
		return nil, err
	}
	account := models.Account{
		ID:             uuid.New().String(),
		UserID:         userID,
		Name:           name,
		Balance:        initialBalance,
		Equity:         initialBalance,
		Currency:       currency,
		InitialBalance: initialBalance,
		CreatedAt:      s.now().UTC(),
	}
	cs := storage.ChangeSet{PutAccounts: []models.Account{account}}
	if err := s.backend.Apply(ctx, userID, cs); err != nil {
		return nil, fmt.Errorf("persisting account: %w", err)
	}
	return &account, nil
}

// Deposit adds funds to the account.
func (s *Store) Deposit(ctx context.Context, userID, accountID string, amount float64) (*models.Account, error) {
	if err := validation.ValidatePositiveAmount(amount, "amount"); err != nil {
		return nil, err
	}
	return s.adjustBalance(ctx, userID, accountID, func(a *models.Account) {
		a.ApplyPnL(amount)
	})
}

// Withdraw removes funds from the account.
func (s *Store) Withdraw(ctx context.Context, userID, accountID string, amount float64) (*models.Account, error) {
	if err := validation.ValidatePositiveAmount(amount, "amount"); err != nil {
		return nil, err
	}
	return s.adjustBalance(ctx, userID, accountID, func(a *models.Account) {
		a.ApplyPnL(-amount)
	})
}

// SetBalance overwrites the account balance outright.
func (s *Store) SetBalance(ctx context.Context, userID, accountID string, amount float64) (*models.Account, error) {
	if err := validation.ValidateNonNegativeAmount(amount, "amount"); err != nil {
		return nil, err
	}
	return s.adjustBalance(ctx, userID, accountID, func(a *models.Account) {
		a.SetBalance(amount)
	})
}

// SetInitialBalance resets the account baseline: balance, equity and the
// recorded initial balance all move to the given amount.
func (s *Store) SetInitialBalance(ctx context.Context, userID, accountID string, amount float64) (*models.Account, error) {
	if err := validation.ValidateNonNegativeAmount(amount, "amount"); err != nil {
		return nil, err
	}
	return s.adjustBalance(ctx, userID, accountID, func(a *models.Account) {
		a.InitialBalance = amount
		a.SetBalance(amount)
	})
}

func (s *Store) adjustBalance(ctx context.Context, userID, accountID string, mutate func(*models.Account)) (*models.Account, error) {
	account, err := s.backend.Account(ctx, userID, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.FromContext(ctx).Warn("balance adjustment on unknown account ignored", "accountID", accountID)
			return nil, nil
		}
		return nil, fmt.Errorf("loading account %s: %w", accountID, err)
	}
	mutate(&account)
	cs := storage.ChangeSet{PutAccounts: []models.Account{account}}
	if err := s.backend.Apply(ctx, userID, cs); err != nil {
		return nil, fmt.Errorf("persisting balance adjustment: %w", err)
	}
	return &account, nil
}

// Trades lists the user's trades ordered by close time.
func (s *Store) Trades(ctx context.Context, userID string) ([]models.Trade, error) {
	return s.backend.Trades(ctx, userID)
}

// AccountTrades lists the trades belonging to one account.
func (s *Store) AccountTrades(ctx context.Context, userID, accountID string) ([]models.Trade, error) {
	all, err := s.backend.Trades(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Trade, 0, len(all))
	for _, t := range all {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Accounts lists the user's accounts in creation order.
func (s *Store) Accounts(ctx context.Context, userID string) ([]models.Account, error) {
	return s.backend.Accounts(ctx, userID)
}

// Account fetches one account.
func (s *Store) Account(ctx context.Context, userID, id string) (models.Account, error) {
	return s.backend.Account(ctx, userID, id)
}
