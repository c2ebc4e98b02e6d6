package services

import (
	"context"
	"errors"

	"github.com/username/tradefolio/backend/src/metrics"
)

// Define common service errors
var (
	ErrReportFailed = errors.New("report computation failed")
)

// ReportService serves derived statistics for one account, memoizing the
// pure metric computations until the underlying ledger changes.
type ReportService interface {
	GetDailyStats(ctx context.Context, userID, accountID string) ([]metrics.DailyStat, error)
	GetSummary(ctx context.Context, userID, accountID string) (metrics.Summary, error)
	GetTracker(ctx context.Context, userID, accountID string) (metrics.TrackerBreakdown, error)
	GetHeatmap(ctx context.Context, userID, accountID string) (metrics.Heatmap, error)

	// InvalidateUserCache drops every memoized report for the user. Called
	// after any ledger mutation.
	InvalidateUserCache(userID string)
}
