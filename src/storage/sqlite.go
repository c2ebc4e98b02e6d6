package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/username/tradefolio/backend/src/models"
)

// Schema mirrors db/migrations/000001_init.up.sql. It is applied directly by
// NewSQLiteBackend so tests and anonymous local databases work without a
// migrations directory on disk.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL,
	currency TEXT NOT NULL,
	initial_balance REAL NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);

CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	account_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	type TEXT NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	size REAL NOT NULL,
	pnl REAL NOT NULL,
	pnl_percent REAL NOT NULL,
	pips REAL NOT NULL,
	r_multiple REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	status TEXT NOT NULL,
	exits TEXT NOT NULL DEFAULT '[]',
	stop_loss REAL,
	take_profit REAL,
	strategy TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	psychology TEXT NOT NULL DEFAULT '',
	followed_plan INTEGER,
	moved_stop_loss INTEGER NOT NULL DEFAULT 0,
	revenge_trade INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_user_account ON trades(user_id, account_id);
CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
`

const tradeColumns = `id, user_id, account_id, symbol, type, entry_price, exit_price, size,
	pnl, pnl_percent, pips, r_multiple, open_time, close_time, status, exits,
	stop_loss, take_profit, strategy, notes, psychology,
	followed_plan, moved_stop_loss, revenge_trade, created_at, updated_at`

// SQLiteBackend persists the ledger in a local SQLite database. It is the
// device-local store used before sign-in.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend wraps an open database handle and ensures the schema exists.
func NewSQLiteBackend(db *sql.DB) (*SQLiteBackend, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("ensuring ledger schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Apply runs the whole change set inside one SQL transaction.
func (s *SQLiteBackend) Apply(ctx context.Context, userID string, cs ChangeSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning ledger transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, t := range cs.PutTrades {
		if err := upsertTrade(ctx, tx, userID, t); err != nil {
			return err
		}
	}
	if len(cs.DeleteTradeIDs) > 0 {
		for _, id := range cs.DeleteTradeIDs {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM trades WHERE user_id = ? AND id = ?`, userID, id); err != nil {
				return fmt.Errorf("deleting trade %s: %w", id, err)
			}
		}
	}
	for _, a := range cs.PutAccounts {
		if err := upsertAccount(ctx, tx, userID, a); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ledger transaction: %w", err)
	}
	committed = true
	return nil
}

func upsertTrade(ctx context.Context, tx *sql.Tx, userID string, t models.Trade) error {
	exits, err := json.Marshal(t.Exits)
	if err != nil {
		return fmt.Errorf("encoding exits for trade %s: %w", t.ID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			symbol = excluded.symbol,
			type = excluded.type,
			entry_price = excluded.entry_price,
			exit_price = excluded.exit_price,
			size = excluded.size,
			pnl = excluded.pnl,
			pnl_percent = excluded.pnl_percent,
			pips = excluded.pips,
			r_multiple = excluded.r_multiple,
			open_time = excluded.open_time,
			close_time = excluded.close_time,
			status = excluded.status,
			exits = excluded.exits,
			stop_loss = excluded.stop_loss,
			take_profit = excluded.take_profit,
			strategy = excluded.strategy,
			notes = excluded.notes,
			psychology = excluded.psychology,
			followed_plan = excluded.followed_plan,
			moved_stop_loss = excluded.moved_stop_loss,
			revenge_trade = excluded.revenge_trade,
			updated_at = excluded.updated_at`,
		t.ID, userID, t.AccountID, t.Symbol, string(t.Type), t.EntryPrice, t.ExitPrice, t.Size,
		t.PnL, t.PnLPercent, t.Pips, t.RMultiple, t.OpenTime, t.CloseTime, string(t.Status), string(exits),
		t.StopLoss, t.TakeProfit, t.Strategy, t.Notes, t.Psychology,
		t.FollowedPlan, t.MovedStopLoss, t.RevengeTrade, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting trade %s: %w", t.ID, err)
	}
	return nil
}

func upsertAccount(ctx context.Context, tx *sql.Tx, userID string, a models.Account) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, balance, equity, currency, initial_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			balance = excluded.balance,
			equity = excluded.equity,
			currency = excluded.currency,
			initial_balance = excluded.initial_balance`,
		a.ID, userID, a.Name, a.Balance, a.Equity, a.Currency, a.InitialBalance, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting account %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteBackend) Trade(ctx context.Context, userID, id string) (models.Trade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trade{}, ErrNotFound
	}
	return t, err
}

func (s *SQLiteBackend) Trades(ctx context.Context, userID string) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE user_id = ?
		ORDER BY close_time ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying trades: %w", err)
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trades: %w", err)
	}
	return out, nil
}

func (s *SQLiteBackend) Account(ctx context.Context, userID, id string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, balance, equity, currency, initial_balance, created_at
		FROM accounts
		WHERE user_id = ? AND id = ?`, userID, id)

	var a models.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Balance, &a.Equity, &a.Currency, &a.InitialBalance, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("scanning account: %w", err)
	}
	return a, nil
}

func (s *SQLiteBackend) Accounts(ctx context.Context, userID string) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, balance, equity, currency, initial_balance, created_at
		FROM accounts
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Balance, &a.Equity, &a.Currency, &a.InitialBalance, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return out, nil
}

func (s *SQLiteBackend) Close(context.Context) error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (models.Trade, error) {
	var (
		t         models.Trade
		tradeType string
		status    string
		exitsJSON string
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.AccountID, &t.Symbol, &tradeType, &t.EntryPrice, &t.ExitPrice, &t.Size,
		&t.PnL, &t.PnLPercent, &t.Pips, &t.RMultiple, &t.OpenTime, &t.CloseTime, &status, &exitsJSON,
		&t.StopLoss, &t.TakeProfit, &t.Strategy, &t.Notes, &t.Psychology,
		&t.FollowedPlan, &t.MovedStopLoss, &t.RevengeTrade, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return models.Trade{}, err
	}
	t.Type = models.TradeType(tradeType)
	t.Status = models.TradeStatus(status)
	if exitsJSON != "" && exitsJSON != "null" {
		if err := json.Unmarshal([]byte(exitsJSON), &t.Exits); err != nil {
			return models.Trade{}, fmt.Errorf("decoding exits for trade %s: %w", t.ID, err)
		}
	}
	return t, nil
}
