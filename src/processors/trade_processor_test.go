package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradefolio/backend/src/models"
)

var testNow = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func TestProcessDerivesFields(t *testing.T) {
	t.Parallel()
	p := NewTradeProcessor()

	in := models.TradeInput{
		AccountID:  "a1",
		Symbol:     "EURUSD",
		Type:       models.TradeTypeBuy,
		EntryPrice: 1.1000,
		ExitPrice:  1.1050,
		Size:       10,
	}
	trade := p.Process(in, "local", 1000, testNow)

	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, "local", trade.UserID)
	assert.Equal(t, models.TradeStatusClosed, trade.Status)
	assert.InDelta(t, 5.0, trade.PnL, 1e-9)
	assert.InDelta(t, 50.0, trade.Pips, 1e-9)
	assert.InDelta(t, 0.5, trade.PnLPercent, 1e-9)
	assert.Equal(t, testNow, trade.OpenTime)
	assert.Equal(t, testNow, trade.CloseTime)
	assert.Equal(t, testNow, trade.CreatedAt)
}

func TestProcessExplicitOverridesWin(t *testing.T) {
	t.Parallel()
	p := NewTradeProcessor()

	pnl, pips, r := -3.0, 12.5, 0.8
	in := models.TradeInput{
		AccountID:  "a1",
		Symbol:     "EURUSD",
		Type:       models.TradeTypeBuy,
		EntryPrice: 1.1000,
		ExitPrice:  1.1050,
		Size:       10,
		PnL:        &pnl,
		Pips:       &pips,
		RMultiple:  &r,
	}
	trade := p.Process(in, "local", 1000, testNow)

	assert.InDelta(t, -3.0, trade.PnL, 1e-9)
	assert.InDelta(t, 12.5, trade.Pips, 1e-9)
	assert.InDelta(t, 0.8, trade.RMultiple, 1e-9)
	assert.InDelta(t, -0.3, trade.PnLPercent, 1e-9)
}

func TestProcessZeroBalanceSkipsPercent(t *testing.T) {
	t.Parallel()
	p := NewTradeProcessor()

	in := models.TradeInput{
		AccountID:  "a1",
		Symbol:     "EURUSD",
		Type:       models.TradeTypeBuy,
		EntryPrice: 1.1000,
		ExitPrice:  1.1050,
		Size:       10,
	}
	trade := p.Process(in, "local", 0, testNow)
	assert.Zero(t, trade.PnLPercent)
}

func TestProcessPartialExitsSetEffectiveExit(t *testing.T) {
	t.Parallel()
	p := NewTradeProcessor()

	in := models.TradeInput{
		AccountID:  "a1",
		Symbol:     "EURUSD",
		Type:       models.TradeTypeBuy,
		EntryPrice: 1.0000,
		Size:       10,
		Exits: []models.Exit{
			{ID: "e1", Percentage: 50, Price: 1.0050},
			{ID: "e2", Percentage: 50, Price: 1.0100},
		},
	}
	trade := p.Process(in, "local", 1000, testNow)

	assert.InDelta(t, 1.0075, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 7.5, trade.PnL, 1e-9)
}

func TestProcessKeepsProvidedTimes(t *testing.T) {
	t.Parallel()
	p := NewTradeProcessor()

	open := testNow.Add(-4 * time.Hour)
	closed := testNow.Add(-1 * time.Hour)
	in := models.TradeInput{
		AccountID: "a1", Symbol: "EURUSD", Type: models.TradeTypeBuy,
		EntryPrice: 1.1, ExitPrice: 1.2, Size: 1,
		OpenTime: open, CloseTime: closed,
	}
	trade := p.Process(in, "local", 1000, testNow)
	assert.Equal(t, open, trade.OpenTime)
	assert.Equal(t, closed, trade.CloseTime)
}

func TestApplyUpdateRecomputeRules(t *testing.T) {
	t.Parallel()
	p := NewTradeProcessor()

	base := models.Trade{
		ID: "t1", AccountID: "a1", Symbol: "EURUSD", Type: models.TradeTypeBuy,
		EntryPrice: 1.1000, ExitPrice: 1.1050, Size: 10,
		PnL: 5, Pips: 50, Status: models.TradeStatusClosed,
	}

	t.Run("price_change_recomputes", func(t *testing.T) {
		t.Parallel()
		newExit := 1.1100
		got := p.ApplyUpdate(base, models.TradeUpdate{ExitPrice: &newExit}, testNow)
		assert.InDelta(t, 10.0, got.PnL, 1e-9)
		assert.InDelta(t, 100.0, got.Pips, 1e-9)
		assert.Equal(t, testNow, got.UpdatedAt)
	})

	t.Run("explicit_pnl_wins", func(t *testing.T) {
		t.Parallel()
		newExit := 1.2000
		pnl := 1.0
		got := p.ApplyUpdate(base, models.TradeUpdate{ExitPrice: &newExit, PnL: &pnl}, testNow)
		assert.InDelta(t, 1.0, got.PnL, 1e-9)
		// Pips still follow the price change.
		assert.InDelta(t, 1000.0, got.Pips, 1e-9)
	})

	t.Run("exits_drive_weighted_recompute", func(t *testing.T) {
		t.Parallel()
		exits := []models.Exit{
			{ID: "e1", Percentage: 50, Price: 1.1100},
			{ID: "e2", Percentage: 50, Price: 1.1050},
		}
		got := p.ApplyUpdate(base, models.TradeUpdate{Exits: &exits}, testNow)
		assert.InDelta(t, 1.1075, got.ExitPrice, 1e-9)
		assert.InDelta(t, 7.5, got.PnL, 1e-9)
	})

	t.Run("note_edit_leaves_derived_alone", func(t *testing.T) {
		t.Parallel()
		notes := "second thoughts"
		got := p.ApplyUpdate(base, models.TradeUpdate{Notes: &notes}, testNow)
		assert.Equal(t, "second thoughts", got.Notes)
		assert.InDelta(t, 5.0, got.PnL, 1e-9)
		assert.InDelta(t, 50.0, got.Pips, 1e-9)
	})

	t.Run("stop_change_recomputes_r", func(t *testing.T) {
		t.Parallel()
		stop := 1.0950
		got := p.ApplyUpdate(base, models.TradeUpdate{StopLoss: &stop}, testNow)
		require.NotNil(t, got.StopLoss)
		// Risk = 0.005 * 10 * 100 = 5, PnL 5 -> 1R.
		assert.InDelta(t, 1.0, got.RMultiple, 1e-9)
	})
}
