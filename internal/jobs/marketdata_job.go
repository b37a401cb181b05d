// Package jobs implements the three scheduled units of work: market-data
// refresh, sentiment collection, and per-user recommendation generation
// (spec §4.I/J/K).
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/clients/marketdata"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/repository"
)

// MaxConcurrentFetches bounds the market-data job's fan-out so it never
// exceeds the provider's concurrent-connection comfort zone regardless of
// batch size.
const MaxConcurrentFetches = 8

// StaleAfter is how old a stock's latest market point must be, after all
// batches have run, for the job's summary to count it as stale.
const StaleAfter = 1 * time.Hour

// MarketDataJob fetches fresh quotes for every tracked stock each run,
// split into fixed-size batches (spec §4.I).
type MarketDataJob struct {
	client *marketdata.Client
	repo   *repository.Repository
	log    zerolog.Logger
	now    func() time.Time
	batch  int
}

// NewMarketDataJob builds a MarketDataJob that walks the full stock
// universe in batchSize-sized batches per run.
func NewMarketDataJob(client *marketdata.Client, repo *repository.Repository, log zerolog.Logger, batchSize int) *MarketDataJob {
	return &MarketDataJob{
		client: client,
		repo:   repo,
		log:    log.With().Str("job", "marketdata").Logger(),
		now:    time.Now,
		batch:  batchSize,
	}
}

func (j *MarketDataJob) Name() string { return "marketdata" }

// Run loads the full tracked stock universe, splits it into j.batch-sized
// batches, and fetches+persists a fresh quote for every symbol in every
// batch (spec §4.I steps 1-3), fanning out bounded concurrent fetches per
// batch and tallying per-symbol outcomes rather than failing the run on
// any single symbol's error (spec §4.I: "partial success is a first-class
// outcome").
func (j *MarketDataJob) Run(ctx context.Context) error {
	stocks, err := j.repo.GetStocks(ctx)
	if err != nil {
		return err
	}

	var succeeded, failed int
	var mu sync.Mutex

	for batchIndex, batch := range batchStocks(stocks, j.batch) {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(MaxConcurrentFetches)

		for _, stock := range batch {
			stock := stock
			g.Go(func() error {
				quote, err := j.client.Fetch(gctx, stock.Symbol)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					j.log.Warn().Str("symbol", stock.Symbol).Int("batch_index", batchIndex).Err(err).Msg("market-data fetch failed, skipping")
					return nil
				}

				point := domain.MarketDataPoint{
					Symbol:     stock.Symbol,
					Price:      quote.Price,
					Volume:     quote.Volume,
					ObservedAt: quote.ObservedAt,
					IngestedAt: j.now().UTC(),
				}
				if err := j.repo.PutMarketPoint(gctx, point); err != nil {
					failed++
					j.log.Warn().Str("symbol", stock.Symbol).Int("batch_index", batchIndex).Err(err).Msg("market-data persist failed, skipping")
					return nil
				}
				succeeded++
				return nil
			})
		}

		// errgroup's error is always nil here since every Go func swallows its
		// own error into the tally; a cancelled context shows up as per-symbol
		// fetch failures, not as an error from Wait.
		if err := g.Wait(); err != nil {
			return err
		}
	}

	remaining, err := j.repo.GetStocksWithStaleMarket(ctx, j.now().Add(-StaleAfter), 1<<30)
	staleRemaining := -1
	if err == nil {
		staleRemaining = len(remaining)
	}

	j.log.Info().
		Int("attempted", len(stocks)).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Int("stale_remaining", staleRemaining).
		Msg("market-data job summary")

	return nil
}

// batchStocks splits stocks into fixed-size batches (spec §4.I step 2:
// "default 50"). A non-positive size falls back to one batch covering the
// whole universe.
func batchStocks(stocks []domain.Stock, size int) [][]domain.Stock {
	if size <= 0 {
		size = len(stocks)
		if size == 0 {
			return nil
		}
	}

	var batches [][]domain.Stock
	for start := 0; start < len(stocks); start += size {
		end := start + size
		if end > len(stocks) {
			end = len(stocks)
		}
		batches = append(batches, stocks[start:end])
	}
	return batches
}
