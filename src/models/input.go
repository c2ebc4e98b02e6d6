package models

import "time"

// TradeInput is a trade as submitted by the user or the CSV import boundary.
// Optional numeric fields are pointers so an absent value can be told apart
// from an explicit zero; absent derived fields are computed by the processor.
type TradeInput struct {
	AccountID     string     `json:"account_id"`
	Symbol        string     `json:"symbol"`
	Type          TradeType  `json:"type"`
	EntryPrice    float64    `json:"entry_price"`
	ExitPrice     float64    `json:"exit_price"`
	Size          float64    `json:"size"`
	PnL           *float64   `json:"pnl,omitempty"`
	Pips          *float64   `json:"pips,omitempty"`
	RMultiple     *float64   `json:"r_multiple,omitempty"`
	OpenTime      time.Time  `json:"open_time"`
	CloseTime     time.Time  `json:"close_time"`
	Exits         []Exit     `json:"exits,omitempty"`
	StopLoss      *float64   `json:"stop_loss,omitempty"`
	TakeProfit    *float64   `json:"take_profit,omitempty"`
	Strategy      string     `json:"strategy"`
	Notes         string     `json:"notes"`
	Psychology    string     `json:"psychology"`
	FollowedPlan  *bool      `json:"followed_plan,omitempty"`
	MovedStopLoss bool       `json:"moved_stop_loss"`
	RevengeTrade  bool       `json:"revenge_trade"`
}

// TradeUpdate is a partial edit of an existing trade. Nil means the field was
// not part of the request; derived fields left nil are recomputed when the
// inputs they depend on changed.
type TradeUpdate struct {
	Symbol        *string      `json:"symbol,omitempty"`
	Type          *TradeType   `json:"type,omitempty"`
	EntryPrice    *float64     `json:"entry_price,omitempty"`
	ExitPrice     *float64     `json:"exit_price,omitempty"`
	Size          *float64     `json:"size,omitempty"`
	PnL           *float64     `json:"pnl,omitempty"`
	Pips          *float64     `json:"pips,omitempty"`
	RMultiple     *float64     `json:"r_multiple,omitempty"`
	OpenTime      *time.Time   `json:"open_time,omitempty"`
	CloseTime     *time.Time   `json:"close_time,omitempty"`
	Status        *TradeStatus `json:"status,omitempty"`
	Exits         *[]Exit      `json:"exits,omitempty"`
	StopLoss      *float64     `json:"stop_loss,omitempty"`
	TakeProfit    *float64     `json:"take_profit,omitempty"`
	Strategy      *string      `json:"strategy,omitempty"`
	Notes         *string      `json:"notes,omitempty"`
	Psychology    *string      `json:"psychology,omitempty"`
	FollowedPlan  *bool        `json:"followed_plan,omitempty"`
	MovedStopLoss *bool        `json:"moved_stop_loss,omitempty"`
	RevengeTrade  *bool        `json:"revenge_trade,omitempty"`
}

// TouchesPrices reports whether the update changes any field the pip and
// simple P/L formulas depend on.
func (u TradeUpdate) TouchesPrices() bool {
	return u.EntryPrice != nil || u.ExitPrice != nil || u.Size != nil || u.Type != nil || u.Symbol != nil
}
