package processors

import (
	"time"

	"github.com/google/uuid"

	"github.com/username/tradefolio/backend/src/models"
)

// TradeProcessor enriches raw trade input with the derived fields the journal
// displays. It trusts explicit user-provided values and only computes what
// was left absent.
type TradeProcessor struct{}

func NewTradeProcessor() *TradeProcessor { return &TradeProcessor{} }

// Process maps a TradeInput onto a full Trade record. balance is the owning
// account's balance before the trade is applied; it anchors pnl_percent.
func (p *TradeProcessor) Process(in models.TradeInput, userID string, balance float64, now time.Time) models.Trade {
	t := models.Trade{
		ID:            uuid.New().String(),
		UserID:        userID,
		AccountID:     in.AccountID,
		Symbol:        in.Symbol,
		Type:          in.Type,
		EntryPrice:    in.EntryPrice,
		ExitPrice:     in.ExitPrice,
		Size:          in.Size,
		OpenTime:      in.OpenTime,
		CloseTime:     in.CloseTime,
		Status:        models.TradeStatusClosed,
		Exits:         in.Exits,
		StopLoss:      in.StopLoss,
		TakeProfit:    in.TakeProfit,
		Strategy:      in.Strategy,
		Notes:         in.Notes,
		Psychology:    in.Psychology,
		FollowedPlan:  in.FollowedPlan,
		MovedStopLoss: in.MovedStopLoss,
		RevengeTrade:  in.RevengeTrade,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if in.OpenTime.IsZero() {
		t.OpenTime = now
	}
	if in.CloseTime.IsZero() {
		t.CloseTime = now
	}
	if len(t.Exits) > 0 {
		t.ExitPrice = t.EffectiveExitPrice()
	}

	// Explicit overrides win over derivation.
	if in.PnL != nil {
		t.PnL = *in.PnL
	} else {
		t.PnL = t.ComputePnL()
	}
	if in.Pips != nil {
		t.Pips = *in.Pips
	} else {
		t.Pips = t.ComputePips()
	}
	if in.RMultiple != nil {
		t.RMultiple = *in.RMultiple
	} else {
		t.RMultiple = t.ComputeRMultiple(t.PnL)
	}
	if balance != 0 {
		t.PnLPercent = t.PnL / balance * 100
	}
	return t
}

// ApplyUpdate merges a partial edit into an existing trade and recomputes the
// derived fields whose inputs changed. Recompute rules:
//   - an explicit pnl in the update is taken as-is, no price-based recompute
//   - an exits list in the update drives a weighted recompute of pnl and of
//     the effective exit price
//   - otherwise a change to entry/exit/size/type/symbol recomputes pnl
//   - pips recompute whenever price-affecting fields changed and the update
//     carries no explicit pips
func (p *TradeProcessor) ApplyUpdate(t models.Trade, upd models.TradeUpdate, now time.Time) models.Trade {
	if upd.Symbol != nil {
		t.Symbol = *upd.Symbol
	}
	if upd.Type != nil {
		t.Type = *upd.Type
	}
	if upd.EntryPrice != nil {
		t.EntryPrice = *upd.EntryPrice
	}
	if upd.ExitPrice != nil {
		t.ExitPrice = *upd.ExitPrice
	}
	if upd.Size != nil {
		t.Size = *upd.Size
	}
	if upd.OpenTime != nil {
		t.OpenTime = *upd.OpenTime
	}
	if upd.CloseTime != nil {
		t.CloseTime = *upd.CloseTime
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.Exits != nil {
		t.Exits = *upd.Exits
	}
	if upd.StopLoss != nil {
		t.StopLoss = upd.StopLoss
	}
	if upd.TakeProfit != nil {
		t.TakeProfit = upd.TakeProfit
	}
	if upd.Strategy != nil {
		t.Strategy = *upd.Strategy
	}
	if upd.Notes != nil {
		t.Notes = *upd.Notes
	}
	if upd.Psychology != nil {
		t.Psychology = *upd.Psychology
	}
	if upd.FollowedPlan != nil {
		t.FollowedPlan = upd.FollowedPlan
	}
	if upd.MovedStopLoss != nil {
		t.MovedStopLoss = *upd.MovedStopLoss
	}
	if upd.RevengeTrade != nil {
		t.RevengeTrade = *upd.RevengeTrade
	}

	switch {
	case upd.PnL != nil:
		t.PnL = *upd.PnL
	case upd.Exits != nil:
		t.ExitPrice = t.EffectiveExitPrice()
		t.PnL = t.ComputePnL()
	case upd.TouchesPrices():
		t.PnL = t.ComputePnL()
	}

	if upd.Pips != nil {
		t.Pips = *upd.Pips
	} else if upd.TouchesPrices() || upd.Exits != nil {
		t.Pips = t.ComputePips()
	}

	if upd.RMultiple != nil {
		t.RMultiple = *upd.RMultiple
	} else if upd.PnL != nil || upd.Exits != nil || upd.TouchesPrices() || upd.StopLoss != nil {
		t.RMultiple = t.ComputeRMultiple(t.PnL)
	}

	t.UpdatedAt = now
	return t
}
