package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradefolio/backend/src/models"
)

func closedTrade(pnl float64, closeTime time.Time) models.Trade {
	return models.Trade{
		PnL:       pnl,
		CloseTime: closeTime,
		Status:    models.TradeStatusClosed,
	}
}

func TestDailyWindowBoundaries(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC)

	trades := []models.Trade{
		closedTrade(10, now),                         // today, included
		closedTrade(20, now.AddDate(0, 0, -29)),      // oldest day of a 30-day window
		closedTrade(999, now.AddDate(0, 0, -30)),     // one day too old
		closedTrade(5, now.Add(-2*24*time.Hour)),     // two days ago
		closedTrade(-3, now.Add(-2*24*time.Hour+time.Hour)), // same bucket
	}

	stats := Daily(trades, now, 30)
	require.Len(t, stats, 30)

	assert.Equal(t, "2025-06-01", stats[0].Date)
	assert.Equal(t, "2025-06-30", stats[29].Date)

	// Oldest in-window day carries its trade; the 999 trade fell off the edge.
	assert.InDelta(t, 20.0, stats[0].PnL, 1e-9)
	assert.Equal(t, 1, stats[0].TradesCount)

	assert.InDelta(t, 10.0, stats[29].PnL, 1e-9)

	var total float64
	for _, s := range stats {
		total += s.PnL
	}
	assert.InDelta(t, 32.0, total, 1e-9)

	// Two trades on the same day share a bucket, one win of two.
	twoAgo := stats[27]
	assert.Equal(t, "2025-06-28", twoAgo.Date)
	assert.Equal(t, 2, twoAgo.TradesCount)
	assert.InDelta(t, 2.0, twoAgo.PnL, 1e-9)
	assert.InDelta(t, 50.0, twoAgo.WinRate, 1e-9)
}

func TestDailyEmptyDaysAreZeroed(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	stats := Daily(nil, now, 7)
	require.Len(t, stats, 7)
	for _, s := range stats {
		assert.Zero(t, s.PnL)
		assert.Zero(t, s.TradesCount)
		assert.Zero(t, s.WinRate)
	}
}

func TestDailyUsesUTCDate(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	// 23:30 UTC-5 on the 29th is 04:30 UTC on the 30th.
	loc := time.FixedZone("UTC-5", -5*3600)
	trades := []models.Trade{
		closedTrade(10, time.Date(2025, 6, 29, 23, 30, 0, 0, loc)),
	}

	stats := Daily(trades, now, 2)
	require.Len(t, stats, 2)
	assert.Equal(t, "2025-06-29", stats[0].Date)
	assert.Zero(t, stats[0].TradesCount)
	assert.Equal(t, "2025-06-30", stats[1].Date)
	assert.Equal(t, 1, stats[1].TradesCount)
}

func TestSummarizeRatesAndExpectancy(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		closedTrade(10, base),
		closedTrade(20, base.Add(1*time.Hour)),
		closedTrade(-10, base.Add(2*time.Hour)),
	}

	s := Summarize(trades)
	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 66.6667, s.WinRate, 1e-3)
	assert.InDelta(t, 30.0, s.GrossProfit, 1e-9)
	assert.InDelta(t, 10.0, s.GrossLoss, 1e-9)
	assert.InDelta(t, 3.0, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 15.0, s.AvgWin, 1e-9)
	assert.InDelta(t, 10.0, s.AvgLoss, 1e-9)
	// 2/3 * 15 - 1/3 * 10
	assert.InDelta(t, 6.6667, s.Expectancy, 1e-3)
	assert.InDelta(t, 20.0, s.TotalPnL, 1e-9)
}

func TestSummarizeProfitFactorWithoutLosses(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		closedTrade(10, base),
		closedTrade(20, base.Add(time.Hour)),
	}

	s := Summarize(trades)
	assert.Zero(t, s.GrossLoss)
	assert.InDelta(t, 30.0, s.ProfitFactor, 1e-9)
	assert.Zero(t, s.AvgLoss)
}

func TestSummarizeBreakevens(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		closedTrade(0, base),
		closedTrade(10, base.Add(time.Hour)),
	}

	s := Summarize(trades)
	assert.Equal(t, 1, s.Breakevens)
	assert.InDelta(t, 50.0, s.BreakevenRate, 1e-9)
}

func TestSummarizeStreaksAndDrawdown(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Ordered by close time: +10, -5, -10, +20, +5, +5.
	// Cumulative: 10, 5, -5, 15, 20, 25. Peak 10 before the trough at -5.
	pnls := []float64{10, -5, -10, 20, 5, 5}
	trades := make([]models.Trade, 0, len(pnls))
	for i, p := range pnls {
		trades = append(trades, closedTrade(p, base.Add(time.Duration(i)*time.Hour)))
	}
	// Feed the trades shuffled; Summarize must order by close time itself.
	shuffled := []models.Trade{trades[3], trades[0], trades[5], trades[2], trades[1], trades[4]}

	s := Summarize(shuffled)
	assert.Equal(t, 3, s.MaxConsecutiveWins)
	assert.Equal(t, 2, s.MaxConsecutiveLosses)
	assert.InDelta(t, 15.0, s.MaxDrawdown, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()
	s := Summarize(nil)
	assert.Zero(t, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.Expectancy)
}

func boolPtr(b bool) *bool { return &b }

func TestTrackerScoreWeights(t *testing.T) {
	t.Parallel()

	// 4 trades: 2 tagged with 1 followed (adherence 0.5), 1 moved SL, 1 revenge.
	trades := []models.Trade{
		{FollowedPlan: boolPtr(true)},
		{FollowedPlan: boolPtr(false), MovedStopLoss: true},
		{RevengeTrade: true},
		{},
	}

	b := TrackerScore(trades)
	assert.Equal(t, 2, b.TaggedTrades)
	assert.Equal(t, 4, b.TotalTrades)
	assert.InDelta(t, 0.5, b.AdherenceRate, 1e-9)
	assert.InDelta(t, 0.25, b.SLMovedRate, 1e-9)
	assert.InDelta(t, 0.25, b.RevengeRate, 1e-9)
	// 100 - 40*0.5 - 30*0.25 - 30*0.25
	assert.InDelta(t, 65.0, b.Score, 1e-9)
}

func TestTrackerScoreNoTaggedTrades(t *testing.T) {
	t.Parallel()

	trades := []models.Trade{{}, {}}
	b := TrackerScore(trades)
	assert.Zero(t, b.TaggedTrades)
	assert.InDelta(t, 1.0, b.AdherenceRate, 1e-9)
	assert.InDelta(t, 100.0, b.Score, 1e-9)
}

func TestTrackerScoreFloorsAtZero(t *testing.T) {
	t.Parallel()

	trades := []models.Trade{
		{FollowedPlan: boolPtr(false), MovedStopLoss: true, RevengeTrade: true},
	}
	b := TrackerScore(trades)
	assert.Zero(t, b.Score)
}

func TestTrackerScoreEmpty(t *testing.T) {
	t.Parallel()
	b := TrackerScore(nil)
	assert.InDelta(t, 100.0, b.Score, 1e-9)
	assert.InDelta(t, 1.0, b.AdherenceRate, 1e-9)
}

func TestBuildHeatmap(t *testing.T) {
	t.Parallel()

	monday9 := time.Date(2025, 6, 2, 9, 15, 0, 0, time.UTC) // a Monday
	friday9 := time.Date(2025, 6, 6, 9, 45, 0, 0, time.UTC) // a Friday
	trades := []models.Trade{
		{OpenTime: monday9, PnL: 10},
		{OpenTime: monday9.Add(30 * time.Minute), PnL: -5},
		{OpenTime: friday9, PnL: 20},
	}

	h := BuildHeatmap(trades)

	assert.Equal(t, 2, h.ByWeekday[time.Monday].Trades)
	assert.InDelta(t, 5.0, h.ByWeekday[time.Monday].PnL, 1e-9)
	assert.Equal(t, 1, h.ByWeekday[time.Monday].Wins)
	assert.Equal(t, 1, h.ByWeekday[time.Friday].Trades)

	assert.Equal(t, 3, h.ByHour[9].Trades)
	assert.InDelta(t, 25.0, h.ByHour[9].PnL, 1e-9)
	assert.Equal(t, 2, h.ByHour[9].Wins)
	assert.Zero(t, h.ByHour[10].Trades)
}
