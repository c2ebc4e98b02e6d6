// Package metrics derives display-ready statistics from a trade collection.
// Every function here is pure: the same trades always produce the same
// output, and nothing is cached or mutated. Memoization happens a layer up.
package metrics

import (
	"sort"
	"time"

	"github.com/username/tradefolio/backend/src/models"
)

// DailyStat is one calendar-day bucket of trading activity.
type DailyStat struct {
	Date        string  `json:"date"`
	PnL         float64 `json:"pnl"`
	TradesCount int     `json:"trades_count"`
	WinRate     float64 `json:"win_rate"`
	RMultiple   float64 `json:"r_multiple"`
	Pips        float64 `json:"pips"`
}

// Daily buckets trades by the UTC calendar date of their close time over a
// trailing window of the given number of days ending at now, inclusive.
// Every day in the window gets a bucket, zeroed if no trade closed on it.
// Output is sorted ascending by date.
func Daily(trades []models.Trade, now time.Time, days int) []DailyStat {
	if days <= 0 {
		return []DailyStat{}
	}
	today := now.UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))

	buckets := make(map[string]*DailyStat, days)
	order := make([]string, 0, days)
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		buckets[date] = &DailyStat{Date: date}
		order = append(order, date)
	}

	wins := make(map[string]int, days)
	for _, t := range trades {
		date := t.CloseTime.UTC().Format("2006-01-02")
		b, ok := buckets[date]
		if !ok {
			continue
		}
		b.PnL += t.PnL
		b.RMultiple += t.RMultiple
		b.Pips += t.Pips
		b.TradesCount++
		if t.IsWin() {
			wins[date]++
		}
	}
	for date, b := range buckets {
		if b.TradesCount > 0 {
			b.WinRate = float64(wins[date]) / float64(b.TradesCount) * 100
		}
	}

	out := make([]DailyStat, 0, days)
	for _, date := range order {
		out = append(out, *buckets[date])
	}
	return out
}

// Summary aggregates lifetime performance over a trade collection.
type Summary struct {
	TotalTrades          int     `json:"total_trades"`
	Wins                 int     `json:"wins"`
	Losses               int     `json:"losses"`
	Breakevens           int     `json:"breakevens"`
	WinRate              float64 `json:"win_rate"`
	LossRate             float64 `json:"loss_rate"`
	BreakevenRate        float64 `json:"breakeven_rate"`
	TotalPnL             float64 `json:"total_pnl"`
	GrossProfit          float64 `json:"gross_profit"`
	GrossLoss            float64 `json:"gross_loss"`
	ProfitFactor         float64 `json:"profit_factor"`
	AvgWin               float64 `json:"avg_win"`
	AvgLoss              float64 `json:"avg_loss"`
	Expectancy           float64 `json:"expectancy"`
	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	MaxDrawdown          float64 `json:"max_drawdown"`
}

// Summarize computes lifetime aggregates. Streaks and drawdown walk the
// trades ordered by close time ascending; drawdown is the largest
// peak-to-trough drop of the running cumulative PnL.
func Summarize(trades []models.Trade) Summary {
	s := Summary{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return s
	}

	for _, t := range trades {
		s.TotalPnL += t.PnL
		switch {
		case t.IsWin():
			s.Wins++
			s.GrossProfit += t.PnL
		case t.IsLoss():
			s.Losses++
			s.GrossLoss += -t.PnL
		default:
			s.Breakevens++
		}
	}

	total := float64(s.TotalTrades)
	s.WinRate = float64(s.Wins) / total * 100
	s.LossRate = float64(s.Losses) / total * 100
	s.BreakevenRate = float64(s.Breakevens) / total * 100

	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	} else {
		s.ProfitFactor = s.GrossProfit
	}
	if s.Wins > 0 {
		s.AvgWin = s.GrossProfit / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = s.GrossLoss / float64(s.Losses)
	}
	s.Expectancy = s.WinRate/100*s.AvgWin - s.LossRate/100*s.AvgLoss

	ordered := byCloseTime(trades)
	var winStreak, lossStreak int
	var cumulative, peak, drawdown float64
	for _, t := range ordered {
		if t.IsWin() {
			winStreak++
			lossStreak = 0
		} else if t.IsLoss() {
			lossStreak++
			winStreak = 0
		} else {
			winStreak = 0
			lossStreak = 0
		}
		if winStreak > s.MaxConsecutiveWins {
			s.MaxConsecutiveWins = winStreak
		}
		if lossStreak > s.MaxConsecutiveLosses {
			s.MaxConsecutiveLosses = lossStreak
		}

		cumulative += t.PnL
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > drawdown {
			drawdown = dd
		}
	}
	s.MaxDrawdown = drawdown
	return s
}

func byCloseTime(trades []models.Trade) []models.Trade {
	ordered := make([]models.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CloseTime.Before(ordered[j].CloseTime)
	})
	return ordered
}
