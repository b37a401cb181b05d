package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/database"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
)

func newTestRepo(t *testing.T) *Repository {
	db, err := database.New("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))

	repo := New(db.Conn(), zerolog.Nop())

	_, err = db.Conn().Exec(`INSERT INTO stocks (symbol, name, sector, rank) VALUES ('AAPL', 'Apple', 'Tech', 1)`)
	require.NoError(t, err)

	return repo
}

func TestGetStocks_ReturnsSeededStock(t *testing.T) {
	repo := newTestRepo(t)

	stocks, err := repo.GetStocks(context.Background())
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, "AAPL", stocks[0].Symbol)
	require.NotNil(t, stocks[0].Rank)
	assert.Equal(t, 1, *stocks[0].Rank)
}

func TestPutMarketPoint_GetLatestMarket_RoundTrips(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	point := domain.MarketDataPoint{
		Symbol:     "AAPL",
		Price:      decimal.NewFromFloat(150.25),
		Volume:     1000,
		ObservedAt: now,
		IngestedAt: now,
	}
	require.NoError(t, repo.PutMarketPoint(ctx, point))

	latest, err := repo.GetLatestMarket(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Price.Equal(point.Price))
	assert.Equal(t, int64(1000), latest.Volume)
}

func TestGetLatestMarket_NoPointsReturnsNil(t *testing.T) {
	repo := newTestRepo(t)
	latest, err := repo.GetLatestMarket(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestGetMarketHistory_ReturnsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	for i, price := range []float64{100, 101, 102} {
		require.NoError(t, repo.PutMarketPoint(ctx, domain.MarketDataPoint{
			Symbol:     "AAPL",
			Price:      decimal.NewFromFloat(price),
			Volume:     10,
			ObservedAt: base.Add(time.Duration(i) * time.Minute),
			IngestedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	history, err := repo.GetMarketHistory(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Price.Equal(decimal.NewFromFloat(102)))
}

func TestUpsertSentiment_IsIdempotentWithinTheSameMinute(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	observed := time.Date(2026, 7, 31, 10, 15, 5, 0, time.UTC)
	require.NoError(t, repo.UpsertSentiment(ctx, domain.SentimentObservation{
		Symbol: "AAPL", Source: "marketwatch.com", Score: 0.2, ObservedAt: observed, IngestedAt: observed,
	}))
	require.NoError(t, repo.UpsertSentiment(ctx, domain.SentimentObservation{
		Symbol: "AAPL", Source: "marketwatch.com", Score: 0.6, ObservedAt: observed.Add(30 * time.Second), IngestedAt: observed,
	}))

	obs, err := repo.GetSentimentSince(ctx, "AAPL", observed.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 0.6, obs[0].Score)
}

func TestGetTrackedCount_ReflectsInsertedRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := repo.db.ExecContext(ctx, `INSERT INTO user_preferences (user_id, holding_period, risk_tolerance, tier, last_updated) VALUES (?, ?, ?, ?, ?)`,
		"u1", string(domain.HoldingDaily), string(domain.RiskToleranceMedium), string(domain.TierFree), now.Format(time.RFC3339))
	require.NoError(t, err)

	_, err = repo.db.ExecContext(ctx, `INSERT INTO user_stock_tracking (user_id, symbol, created_at) VALUES (?, ?, ?)`,
		"u1", "AAPL", now.Format(time.RFC3339))
	require.NoError(t, err)

	count, err := repo.GetTrackedCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPutRecommendation_Persists(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := repo.db.ExecContext(ctx, `INSERT INTO user_preferences (user_id, holding_period, risk_tolerance, tier, last_updated) VALUES (?, ?, ?, ?, ?)`,
		"u1", string(domain.HoldingDaily), string(domain.RiskToleranceMedium), string(domain.TierFree), now.Format(time.RFC3339))
	require.NoError(t, err)

	rec := domain.Recommendation{
		UserID: "u1", Symbol: "AAPL", Signal: domain.SignalBuy,
		Confidence: 0.8, Sentiment: 0.3, Risk: domain.RiskLow,
		Explanation: "test", CreatedAt: now,
	}
	require.NoError(t, repo.PutRecommendation(ctx, rec))

	var count int
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recommendations WHERE user_id = ?`, "u1").Scan(&count))
	assert.Equal(t, 1, count)
}
