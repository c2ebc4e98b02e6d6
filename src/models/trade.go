package models

import (
	"math"
	"strings"
	"time"
)

// TradeType is the direction of a trade.
type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// TradeStatus is the lifecycle state of a trade record.
type TradeStatus string

const (
	TradeStatusOpen    TradeStatus = "OPEN"
	TradeStatusClosed  TradeStatus = "CLOSED"
	TradeStatusPending TradeStatus = "PENDING"
)

// lotScale converts a price move times position size into account currency.
// Fixed scalar, kept for compatibility with historical journal data.
const lotScale = 100.0

// Exit is a partial close of a position at a given price.
type Exit struct {
	ID         string     `json:"id" bson:"id"`
	Type       string     `json:"type" bson:"type"`
	Percentage float64    `json:"percentage" bson:"percentage"`
	Price      float64    `json:"price" bson:"price"`
	Date       *time.Time `json:"date,omitempty" bson:"date,omitempty"`
}

// Trade is a single journaled trade. It belongs to exactly one account,
// and its PnL contribution is mirrored into that account's balance by the
// ledger; the trade record itself never mutates the account directly.
type Trade struct {
	ID            string      `json:"id" bson:"_id"`
	UserID        string      `json:"user_id" bson:"user_id"`
	AccountID     string      `json:"account_id" bson:"account_id"`
	Symbol        string      `json:"symbol" bson:"symbol"`
	Type          TradeType   `json:"type" bson:"type"`
	EntryPrice    float64     `json:"entry_price" bson:"entry_price"`
	ExitPrice     float64     `json:"exit_price" bson:"exit_price"`
	Size          float64     `json:"size" bson:"size"`
	PnL           float64     `json:"pnl" bson:"pnl"`
	PnLPercent    float64     `json:"pnl_percent" bson:"pnl_percent"`
	Pips          float64     `json:"pips" bson:"pips"`
	RMultiple     float64     `json:"r_multiple" bson:"r_multiple"`
	OpenTime      time.Time   `json:"open_time" bson:"open_time"`
	CloseTime     time.Time   `json:"close_time" bson:"close_time"`
	Status        TradeStatus `json:"status" bson:"status"`
	Exits         []Exit      `json:"exits,omitempty" bson:"exits,omitempty"`
	StopLoss      *float64    `json:"stop_loss,omitempty" bson:"stop_loss,omitempty"`
	TakeProfit    *float64    `json:"take_profit,omitempty" bson:"take_profit,omitempty"`
	Strategy      string      `json:"strategy" bson:"strategy"`
	Notes         string      `json:"notes" bson:"notes"`
	Psychology    string      `json:"psychology" bson:"psychology"`
	FollowedPlan  *bool       `json:"followed_plan,omitempty" bson:"followed_plan,omitempty"`
	MovedStopLoss bool        `json:"moved_stop_loss" bson:"moved_stop_loss"`
	RevengeTrade  bool        `json:"revenge_trade" bson:"revenge_trade"`
	CreatedAt     time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" bson:"updated_at"`
}

// Direction returns +1 for BUY and -1 for SELL.
func (t Trade) Direction() float64 {
	if t.Type == TradeTypeSell {
		return -1
	}
	return 1
}

// PipMultiplier returns the pip scale for the trade's instrument.
// JPY-quoted pairs use two decimals, everything else four.
func PipMultiplier(symbol string) float64 {
	if strings.Contains(strings.ToUpper(symbol), "JPY") {
		return 100
	}
	return 10000
}

// ComputePips derives the pip distance between entry and effective exit,
// signed by direction and rounded to one decimal.
func (t Trade) ComputePips() float64 {
	exit := t.EffectiveExitPrice()
	move := exit - t.EntryPrice
	if t.Type == TradeTypeSell {
		move = t.EntryPrice - exit
	}
	return math.Round(move*PipMultiplier(t.Symbol)*10) / 10
}

// EffectiveExitPrice is the percentage-weighted average exit across partial
// exits. Any remainder below 100% is closed at the top-level exit price.
// Without exits it is simply the top-level exit price.
func (t Trade) EffectiveExitPrice() float64 {
	if len(t.Exits) == 0 {
		return t.ExitPrice
	}
	var weighted, totalPct float64
	for _, e := range t.Exits {
		weighted += e.Price * e.Percentage / 100
		totalPct += e.Percentage
	}
	if totalPct < 100 && t.ExitPrice != 0 {
		weighted += t.ExitPrice * (100 - totalPct) / 100
		totalPct = 100
	}
	if totalPct == 0 {
		return t.ExitPrice
	}
	if totalPct < 100 {
		// Exits below 100% with no top-level close: average over what was closed.
		return weighted * 100 / totalPct
	}
	return weighted
}

// ComputePnL derives realized P/L from entry, exit(s), size and direction.
func (t Trade) ComputePnL() float64 {
	if len(t.Exits) == 0 {
		return (t.ExitPrice - t.EntryPrice) * t.Size * t.Direction() * lotScale
	}
	var pnl, totalPct float64
	for _, e := range t.Exits {
		pnl += (e.Price - t.EntryPrice) * (t.Size * e.Percentage / 100) * t.Direction() * lotScale
		totalPct += e.Percentage
	}
	if totalPct < 100 && t.ExitPrice != 0 {
		pnl += (t.ExitPrice - t.EntryPrice) * (t.Size * (100 - totalPct) / 100) * t.Direction() * lotScale
	}
	return pnl
}

// ComputeRMultiple expresses realized P/L as a multiple of the amount risked
// between entry and stop. Zero when no stop is set or the stop distance is zero.
func (t Trade) ComputeRMultiple(pnl float64) float64 {
	if t.StopLoss == nil {
		return 0
	}
	risk := math.Abs(t.EntryPrice-*t.StopLoss) * t.Size * lotScale
	if risk == 0 {
		return 0
	}
	return pnl / risk
}

// IsWin reports whether the trade closed with positive P/L.
func (t Trade) IsWin() bool { return t.PnL > 0 }

// IsLoss reports whether the trade closed with negative P/L.
func (t Trade) IsLoss() bool { return t.PnL < 0 }
