package models

import "time"

// Account is a trading profile. Balance and Equity move together because
// no open-position mark-to-market is modeled; every realized P/L lands in both.
type Account struct {
	ID             string    `json:"id" bson:"_id"`
	UserID         string    `json:"user_id" bson:"user_id"`
	Name           string    `json:"name" bson:"name"`
	Balance        float64   `json:"balance" bson:"balance"`
	Equity         float64   `json:"equity" bson:"equity"`
	Currency       string    `json:"currency" bson:"currency"`
	InitialBalance float64   `json:"initial_balance" bson:"initial_balance"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// ApplyPnL adjusts balance and equity by a realized P/L delta.
func (a *Account) ApplyPnL(delta float64) {
	a.Balance += delta
	a.Equity = a.Balance
}

// SetBalance overwrites balance and equity.
func (a *Account) SetBalance(amount float64) {
	a.Balance = amount
	a.Equity = amount
}
