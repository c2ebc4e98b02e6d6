package metrics

import "github.com/username/tradefolio/backend/src/models"

// Tracker score penalty weights. Carried over from the original scoring
// model; the relative weighting is part of the product, not tunable.
const (
	planDeviationWeight = 40.0
	slMovedWeight       = 30.0
	revengeWeight       = 30.0
)

// TrackerBreakdown reports the behavioral consistency score and the rates
// that produced it.
type TrackerBreakdown struct {
	Score         float64 `json:"score"`
	AdherenceRate float64 `json:"adherence_rate"`
	SLMovedRate   float64 `json:"sl_moved_rate"`
	RevengeRate   float64 `json:"revenge_rate"`
	TaggedTrades  int     `json:"tagged_trades"`
	TotalTrades   int     `json:"total_trades"`
}

// TrackerScore starts at 100 and subtracts weighted penalties for deviating
// from the plan, moving the stop-loss and revenge trading, floored at zero.
// Plan adherence is measured over tagged trades only; a journal with no
// plan tags is not penalized for them.
func TrackerScore(trades []models.Trade) TrackerBreakdown {
	b := TrackerBreakdown{Score: 100, AdherenceRate: 1, TotalTrades: len(trades)}
	if len(trades) == 0 {
		return b
	}

	var followed, slMoved, revenge int
	for _, t := range trades {
		if t.FollowedPlan != nil {
			b.TaggedTrades++
			if *t.FollowedPlan {
				followed++
			}
		}
		if t.MovedStopLoss {
			slMoved++
		}
		if t.RevengeTrade {
			revenge++
		}
	}

	if b.TaggedTrades > 0 {
		b.AdherenceRate = float64(followed) / float64(b.TaggedTrades)
	}
	total := float64(len(trades))
	b.SLMovedRate = float64(slMoved) / total
	b.RevengeRate = float64(revenge) / total

	b.Score = 100 -
		planDeviationWeight*(1-b.AdherenceRate) -
		slMovedWeight*b.SLMovedRate -
		revengeWeight*b.RevengeRate
	if b.Score < 0 {
		b.Score = 0
	}
	return b
}
