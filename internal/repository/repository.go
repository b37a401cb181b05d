// Package repository persists and retrieves every entity in the pipeline
// against the single SQLite store, in the query-per-method style of the
// teacher's per-module repositories.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/database"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
)

// Repository is the single data-access surface for the pipeline.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// New builds a Repository over db.
func New(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{db: db, log: log.With().Str("repo", "pipeline").Logger()}
}

// GetStocks returns every tracked stock.
func (r *Repository) GetStocks(ctx context.Context) ([]domain.Stock, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol, name, sector, rank FROM stocks`)
	if err != nil {
		return nil, fmt.Errorf("get stocks: %w", err)
	}
	defer rows.Close()

	var stocks []domain.Stock
	for rows.Next() {
		var s domain.Stock
		var rank sql.NullInt64
		if err := rows.Scan(&s.Symbol, &s.Name, &s.Sector, &rank); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		if rank.Valid {
			v := int(rank.Int64)
			s.Rank = &v
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// PutMarketPoint appends one market data observation (append-only per spec
// §3).
func (r *Repository) PutMarketPoint(ctx context.Context, p domain.MarketDataPoint) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO market_data_points (symbol, price, volume, observed_at, ingested_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.Symbol, p.Price.String(), p.Volume, format(p.ObservedAt), format(p.IngestedAt),
	)
	if err != nil {
		return fmt.Errorf("put market point: %w", err)
	}
	return nil
}

// GetLatestMarket returns the most recently observed market point for
// symbol, or (nil, nil) if none exist.
func (r *Repository) GetLatestMarket(ctx context.Context, symbol string) (*domain.MarketDataPoint, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT symbol, price, volume, observed_at, ingested_at
		FROM market_data_points
		WHERE symbol = ?
		ORDER BY observed_at DESC
		LIMIT 1`, symbol)

	p, err := scanMarketPoint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest market: %w", err)
	}
	return &p, nil
}

// GetMarketHistory returns up to limit most-recent market points for symbol,
// newest first.
func (r *Repository) GetMarketHistory(ctx context.Context, symbol string, limit int) ([]domain.MarketDataPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, price, volume, observed_at, ingested_at
		FROM market_data_points
		WHERE symbol = ?
		ORDER BY observed_at DESC
		LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("get market history: %w", err)
	}
	defer rows.Close()

	var points []domain.MarketDataPoint
	for rows.Next() {
		p, err := scanMarketPointFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan market point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetStocksWithStaleMarket returns stocks whose latest market point is older
// than staleAfter (or that have none at all), used by the market-data job's
// post-batch staleness report.
func (r *Repository) GetStocksWithStaleMarket(ctx context.Context, staleAfter time.Time, limit int) ([]domain.Stock, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.symbol, s.name, s.sector, s.rank
		FROM stocks s
		LEFT JOIN (
			SELECT symbol, MAX(observed_at) AS latest
			FROM market_data_points
			GROUP BY symbol
		) m ON m.symbol = s.symbol
		WHERE m.latest IS NULL OR m.latest < ?
		ORDER BY s.rank IS NULL, s.rank ASC, s.symbol ASC
		LIMIT ?`, format(staleAfter), limit)
	if err != nil {
		return nil, fmt.Errorf("get stale stocks: %w", err)
	}
	defer rows.Close()

	var stocks []domain.Stock
	for rows.Next() {
		var s domain.Stock
		var rank sql.NullInt64
		if err := rows.Scan(&s.Symbol, &s.Name, &s.Sector, &rank); err != nil {
			return nil, fmt.Errorf("scan stale stock: %w", err)
		}
		if rank.Valid {
			v := int(rank.Int64)
			s.Rank = &v
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// UpsertSentiment inserts or replaces one sentiment observation, keyed on
// (symbol, source, minute-truncated observed_at) so repeated collection
// within the same minute overwrites rather than duplicates.
func (r *Repository) UpsertSentiment(ctx context.Context, obs domain.SentimentObservation) error {
	symbol, source, observedAt := domain.SentimentKey(obs.Symbol, obs.Source, obs.ObservedAt)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sentiment_observations (symbol, source, score, observed_at, ingested_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol, source, observed_at) DO UPDATE SET
			score = excluded.score,
			ingested_at = excluded.ingested_at`,
		symbol, source, obs.Score, format(observedAt), format(obs.IngestedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert sentiment: %w", err)
	}
	return nil
}

// GetSentimentSince returns every per-source (non-aggregate) observation for
// symbol observed at or after since, used as aggregation input.
func (r *Repository) GetSentimentSince(ctx context.Context, symbol string, since time.Time) ([]domain.SentimentObservation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, source, score, observed_at, ingested_at
		FROM sentiment_observations
		WHERE symbol = ? AND source != ? AND observed_at >= ?
		ORDER BY observed_at DESC`,
		symbol, domain.SentimentSourceWebAggregate, format(since))
	if err != nil {
		return nil, fmt.Errorf("get sentiment since: %w", err)
	}
	defer rows.Close()

	var obs []domain.SentimentObservation
	for rows.Next() {
		o, err := scanSentimentFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// GetLatestAggregateSentiment returns the most recent web_aggregate
// observation for symbol, or (nil, nil) if none exist.
func (r *Repository) GetLatestAggregateSentiment(ctx context.Context, symbol string) (*domain.SentimentObservation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT symbol, source, score, observed_at, ingested_at
		FROM sentiment_observations
		WHERE symbol = ? AND source = ?
		ORDER BY observed_at DESC
		LIMIT 1`, symbol, domain.SentimentSourceWebAggregate)

	o, err := scanSentiment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest aggregate sentiment: %w", err)
	}
	return &o, nil
}

// GetUserPreferences returns one user's preferences, or (nil, nil) if unset.
func (r *Repository) GetUserPreferences(ctx context.Context, userID string) (*domain.UserPreferences, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, holding_period, risk_tolerance, tier, last_updated
		FROM user_preferences
		WHERE user_id = ?`, userID)

	var p domain.UserPreferences
	var lastUpdated string
	err := row.Scan(&p.UserID, &p.HoldingPeriod, &p.RiskTolerance, &p.Tier, &lastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user preferences: %w", err)
	}
	p.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
	return &p, nil
}

// GetUsers returns every user with a preferences row.
func (r *Repository) GetUsers(ctx context.Context) ([]domain.UserPreferences, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, holding_period, risk_tolerance, tier, last_updated
		FROM user_preferences`)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	defer rows.Close()

	var users []domain.UserPreferences
	for rows.Next() {
		var p domain.UserPreferences
		var lastUpdated string
		if err := rows.Scan(&p.UserID, &p.HoldingPeriod, &p.RiskTolerance, &p.Tier, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		p.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
		users = append(users, p)
	}
	return users, rows.Err()
}

// GetTrackedStocks returns the symbols userID tracks.
func (r *Repository) GetTrackedStocks(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol FROM user_stock_tracking WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("get tracked stocks: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan tracked symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// GetTrackedCount returns how many stocks userID currently tracks, used to
// enforce the free-tier cap before adding a new one.
func (r *Repository) GetTrackedCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_stock_tracking WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get tracked count: %w", err)
	}
	return count, nil
}

// PutRecommendation persists one recommendation for (user, symbol).
func (r *Repository) PutRecommendation(ctx context.Context, rec domain.Recommendation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recommendations (user_id, symbol, signal, confidence, sentiment, risk, explanation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Symbol, string(rec.Signal), rec.Confidence, rec.Sentiment,
		string(rec.Risk), rec.Explanation, format(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put recommendation: %w", err)
	}
	return nil
}

// WithTransaction runs fn against the repository's own connection,
// delegating to database.WithTransaction for commit/rollback/panic
// handling.
func (r *Repository) WithTransaction(fn func(*sql.Tx) error) error {
	return database.WithTransaction(r.db, fn)
}

func format(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func scanMarketPoint(row *sql.Row) (domain.MarketDataPoint, error) {
	return scanMarketPointScanner(row)
}

func scanMarketPointFromRows(rows *sql.Rows) (domain.MarketDataPoint, error) {
	return scanMarketPointScanner(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMarketPointScanner(s rowScanner) (domain.MarketDataPoint, error) {
	var p domain.MarketDataPoint
	var priceStr, observedAt, ingestedAt string

	if err := s.Scan(&p.Symbol, &priceStr, &p.Volume, &observedAt, &ingestedAt); err != nil {
		return p, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return p, fmt.Errorf("parse stored price: %w", err)
	}
	p.Price = price
	p.ObservedAt, _ = time.Parse(time.RFC3339, observedAt)
	p.IngestedAt, _ = time.Parse(time.RFC3339, ingestedAt)
	return p, nil
}

func scanSentiment(row *sql.Row) (domain.SentimentObservation, error) {
	return scanSentimentScanner(row)
}

func scanSentimentFromRows(rows *sql.Rows) (domain.SentimentObservation, error) {
	return scanSentimentScanner(rows)
}

func scanSentimentScanner(s rowScanner) (domain.SentimentObservation, error) {
	var o domain.SentimentObservation
	var observedAt, ingestedAt string

	if err := s.Scan(&o.Symbol, &o.Source, &o.Score, &observedAt, &ingestedAt); err != nil {
		return o, err
	}
	o.ObservedAt, _ = time.Parse(time.RFC3339, observedAt)
	o.IngestedAt, _ = time.Parse(time.RFC3339, ingestedAt)
	return o, nil
}
