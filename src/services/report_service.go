package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/tradefolio/backend/src/logger"
	"github.com/username/tradefolio/backend/src/metrics"
	"github.com/username/tradefolio/backend/src/models"
	syncpkg "github.com/username/tradefolio/backend/src/sync"
)

const (
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	// DailyStatsWindowDays is the trailing window rendered by the calendar
	// and daily P/L views.
	DailyStatsWindowDays = 30
)

type reportService struct {
	coordinator *syncpkg.Coordinator
	reportCache *cache.Cache
	now         func() time.Time
}

// NewReportService creates a ReportService over the session coordinator.
func NewReportService(coordinator *syncpkg.Coordinator, reportCache *cache.Cache) ReportService {
	return &reportService{
		coordinator: coordinator,
		reportCache: reportCache,
		now:         time.Now,
	}
}

func (s *reportService) trades(ctx context.Context, userID, accountID string) ([]models.Trade, error) {
	trades, err := s.coordinator.StoreFor(userID).AccountTrades(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportFailed, err)
	}
	return trades, nil
}

func (s *reportService) GetDailyStats(ctx context.Context, userID, accountID string) ([]metrics.DailyStat, error) {
	cacheKey := fmt.Sprintf("daily:%s:%s", userID, accountID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]metrics.DailyStat), nil
	}
	trades, err := s.trades(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	stats := metrics.Daily(trades, s.now(), DailyStatsWindowDays)
	s.reportCache.Set(cacheKey, stats, DefaultCacheExpiration)
	return stats, nil
}

func (s *reportService) GetSummary(ctx context.Context, userID, accountID string) (metrics.Summary, error) {
	cacheKey := fmt.Sprintf("summary:%s:%s", userID, accountID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(metrics.Summary), nil
	}
	trades, err := s.trades(ctx, userID, accountID)
	if err != nil {
		return metrics.Summary{}, err
	}
	summary := metrics.Summarize(trades)
	s.reportCache.Set(cacheKey, summary, DefaultCacheExpiration)
	return summary, nil
}

func (s *reportService) GetTracker(ctx context.Context, userID, accountID string) (metrics.TrackerBreakdown, error) {
	cacheKey := fmt.Sprintf("tracker:%s:%s", userID, accountID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(metrics.TrackerBreakdown), nil
	}
	trades, err := s.trades(ctx, userID, accountID)
	if err != nil {
		return metrics.TrackerBreakdown{}, err
	}
	breakdown := metrics.TrackerScore(trades)
	s.reportCache.Set(cacheKey, breakdown, DefaultCacheExpiration)
	return breakdown, nil
}

func (s *reportService) GetHeatmap(ctx context.Context, userID, accountID string) (metrics.Heatmap, error) {
	cacheKey := fmt.Sprintf("heatmap:%s:%s", userID, accountID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(metrics.Heatmap), nil
	}
	trades, err := s.trades(ctx, userID, accountID)
	if err != nil {
		return metrics.Heatmap{}, err
	}
	heatmap := metrics.BuildHeatmap(trades)
	s.reportCache.Set(cacheKey, heatmap, DefaultCacheExpiration)
	return heatmap, nil
}

func (s *reportService) InvalidateUserCache(userID string) {
	marker := ":" + userID + ":"
	for key := range s.reportCache.Items() {
		if strings.Contains(key, marker) {
			s.reportCache.Delete(key)
		}
	}
	logger.L.Debug("report cache invalidated", "userID", userID)
}
