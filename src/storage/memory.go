package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/username/tradefolio/backend/src/models"
)

// MemoryBackend keeps the ledger in process memory. It is the backend for
// anonymous sessions without a database file, and for tests.
type MemoryBackend struct {
	mu       sync.RWMutex
	trades   map[string]map[string]models.Trade
	accounts map[string]map[string]models.Account
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		trades:   make(map[string]map[string]models.Trade),
		accounts: make(map[string]map[string]models.Account),
	}
}

// Apply applies the change set under a single lock, so readers never observe
// a trade write without its paired account write.
func (m *MemoryBackend) Apply(_ context.Context, userID string, cs ChangeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.trades[userID] == nil {
		m.trades[userID] = make(map[string]models.Trade)
	}
	if m.accounts[userID] == nil {
		m.accounts[userID] = make(map[string]models.Account)
	}
	for _, t := range cs.PutTrades {
		m.trades[userID][t.ID] = t
	}
	for _, id := range cs.DeleteTradeIDs {
		delete(m.trades[userID], id)
	}
	for _, a := range cs.PutAccounts {
		m.accounts[userID][a.ID] = a
	}
	return nil
}

func (m *MemoryBackend) Trade(_ context.Context, userID, id string) (models.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.trades[userID][id]
	if !ok {
		return models.Trade{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryBackend) Trades(_ context.Context, userID string) ([]models.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Trade, 0, len(m.trades[userID]))
	for _, t := range m.trades[userID] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CloseTime.Equal(out[j].CloseTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].CloseTime.Before(out[j].CloseTime)
	})
	return out, nil
}

func (m *MemoryBackend) Account(_ context.Context, userID, id string) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[userID][id]
	if !ok {
		return models.Account{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryBackend) Accounts(_ context.Context, userID string) ([]models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Account, 0, len(m.accounts[userID]))
	for _, a := range m.accounts[userID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryBackend) Close(context.Context) error { return nil }
