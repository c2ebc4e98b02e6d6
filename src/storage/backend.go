package storage

import (
	"context"
	"errors"

	"github.com/username/tradefolio/backend/src/models"
)

// ErrNotFound indicates the requested trade or account does not exist.
var ErrNotFound = errors.New("not found")

// LocalUserID is the namespace used for anonymous, not-signed-in sessions.
const LocalUserID = "local"

// ChangeSet is one logical ledger mutation: the trades it writes or removes
// and the account rows carrying the matching balance deltas. A backend must
// apply the whole set or none of it; callers rely on this for the invariant
// that a trade's PnL and its account's balance never diverge.
type ChangeSet struct {
	PutTrades      []models.Trade
	DeleteTradeIDs []string
	PutAccounts    []models.Account
}

// Empty reports whether the change set would write nothing.
func (c ChangeSet) Empty() bool {
	return len(c.PutTrades) == 0 && len(c.DeleteTradeIDs) == 0 && len(c.PutAccounts) == 0
}

// Backend persists the ledger for one storage target (device-local SQLite,
// remote document store, or in-memory). All reads and writes are scoped to a
// user namespace.
type Backend interface {
	Apply(ctx context.Context, userID string, cs ChangeSet) error
	Trade(ctx context.Context, userID, id string) (models.Trade, error)
	Trades(ctx context.Context, userID string) ([]models.Trade, error)
	Account(ctx context.Context, userID, id string) (models.Account, error)
	Accounts(ctx context.Context, userID string) ([]models.Account, error)
	Close(ctx context.Context) error
}
