package metrics

import "github.com/username/tradefolio/backend/src/models"

// HeatmapCell is one slot of the behavioral heatmap.
type HeatmapCell struct {
	Trades int     `json:"trades"`
	PnL    float64 `json:"pnl"`
	Wins   int     `json:"wins"`
}

// Heatmap buckets trading activity by when positions were opened:
// 7 day-of-week slots (Sunday first, matching time.Weekday) and 24
// hour-of-day slots, in UTC.
type Heatmap struct {
	ByWeekday [7]HeatmapCell  `json:"by_weekday"`
	ByHour    [24]HeatmapCell `json:"by_hour"`
}

// BuildHeatmap aggregates PnL and counts per open-time slot.
func BuildHeatmap(trades []models.Trade) Heatmap {
	var h Heatmap
	for _, t := range trades {
		open := t.OpenTime.UTC()
		wd := int(open.Weekday())
		hr := open.Hour()

		h.ByWeekday[wd].Trades++
		h.ByWeekday[wd].PnL += t.PnL
		h.ByHour[hr].Trades++
		h.ByHour[hr].PnL += t.PnL
		if t.IsWin() {
			h.ByWeekday[wd].Wins++
			h.ByHour[hr].Wins++
		}
	}
	return h
}
