package services

import (
	"context"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradefolio/backend/src/models"
	"github.com/username/tradefolio/backend/src/storage"
	syncpkg "github.com/username/tradefolio/backend/src/sync"
)

func newReportFixture(t *testing.T) (ReportService, *syncpkg.Coordinator, string) {
	t.Helper()
	local := storage.NewMemoryBackend()
	coordinator := syncpkg.NewCoordinator(local, nil)
	svc := NewReportService(coordinator, cache.New(DefaultCacheExpiration, CacheCleanupInterval))

	account, err := coordinator.StoreFor(storage.LocalUserID).
		CreateAccount(context.Background(), storage.LocalUserID, "Main", 1000, "USD")
	require.NoError(t, err)
	return svc, coordinator, account.ID
}

func addTrade(t *testing.T, c *syncpkg.Coordinator, accountID string, entry, exit float64) {
	t.Helper()
	_, err := c.StoreFor(storage.LocalUserID).AddTrade(context.Background(), storage.LocalUserID, models.TradeInput{
		AccountID:  accountID,
		Symbol:     "EURUSD",
		Type:       models.TradeTypeBuy,
		EntryPrice: entry,
		ExitPrice:  exit,
		Size:       10,
	})
	require.NoError(t, err)
}

func TestGetSummaryComputesAndCaches(t *testing.T) {
	t.Parallel()
	svc, coordinator, accountID := newReportFixture(t)
	ctx := context.Background()

	addTrade(t, coordinator, accountID, 1.1000, 1.1050) // +5

	summary, err := svc.GetSummary(ctx, storage.LocalUserID, accountID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalTrades)
	assert.InDelta(t, 5.0, summary.TotalPnL, 1e-9)

	// A second trade is invisible until the cache is invalidated.
	addTrade(t, coordinator, accountID, 1.1000, 1.1100) // +10

	cached, err := svc.GetSummary(ctx, storage.LocalUserID, accountID)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.TotalTrades)

	svc.InvalidateUserCache(storage.LocalUserID)
	fresh, err := svc.GetSummary(ctx, storage.LocalUserID, accountID)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalTrades)
	assert.InDelta(t, 15.0, fresh.TotalPnL, 1e-9)
}

func TestGetDailyStatsWindow(t *testing.T) {
	t.Parallel()
	svc, coordinator, accountID := newReportFixture(t)

	addTrade(t, coordinator, accountID, 1.1000, 1.1050)

	stats, err := svc.GetDailyStats(context.Background(), storage.LocalUserID, accountID)
	require.NoError(t, err)
	require.Len(t, stats, DailyStatsWindowDays)

	// The trade closed just now, so it lands in the final bucket.
	last := stats[len(stats)-1]
	assert.Equal(t, 1, last.TradesCount)
	assert.InDelta(t, 5.0, last.PnL, 1e-9)
}

func TestGetTrackerAndHeatmap(t *testing.T) {
	t.Parallel()
	svc, coordinator, accountID := newReportFixture(t)
	ctx := context.Background()

	addTrade(t, coordinator, accountID, 1.1000, 1.1050)

	tracker, err := svc.GetTracker(ctx, storage.LocalUserID, accountID)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, tracker.Score, 1e-9)
	assert.Equal(t, 1, tracker.TotalTrades)

	heatmap, err := svc.GetHeatmap(ctx, storage.LocalUserID, accountID)
	require.NoError(t, err)
	var total int
	for _, cell := range heatmap.ByHour {
		total += cell.Trades
	}
	assert.Equal(t, 1, total)
}

func TestInvalidateUserCacheScopedToUser(t *testing.T) {
	t.Parallel()
	local := storage.NewMemoryBackend()
	coordinator := syncpkg.NewCoordinator(local, nil)
	reportCache := cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	svc := NewReportService(coordinator, reportCache)
	ctx := context.Background()

	// Reports for two different namespaces on the local store.
	accountA, err := coordinator.StoreFor("user-a").CreateAccount(ctx, "user-a", "A", 100, "USD")
	require.NoError(t, err)
	accountB, err := coordinator.StoreFor("user-b").CreateAccount(ctx, "user-b", "B", 100, "USD")
	require.NoError(t, err)

	_, err = svc.GetSummary(ctx, "user-a", accountA.ID)
	require.NoError(t, err)
	_, err = svc.GetSummary(ctx, "user-b", accountB.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reportCache.ItemCount())

	svc.InvalidateUserCache("user-a")
	assert.Equal(t, 1, reportCache.ItemCount())
}

func TestReportsForUnknownAccountAreEmpty(t *testing.T) {
	t.Parallel()
	svc, _, _ := newReportFixture(t)

	summary, err := svc.GetSummary(context.Background(), storage.LocalUserID, "ghost")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalTrades)
}
