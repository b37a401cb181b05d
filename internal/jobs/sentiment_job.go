package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/clients/scraper"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/repository"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/sentiment"
)

// SentimentWindow is how far back per-source observations are pulled when
// building the cross-source aggregate for a symbol.
const SentimentWindow = 6 * time.Hour

// SentimentJob scrapes every configured source for every tracked stock,
// persists each per-source observation, then persists the cross-source
// aggregate (spec §4.J).
type SentimentJob struct {
	client   *scraper.Client
	profiles []scraper.SourceProfile
	repo     *repository.Repository
	log      zerolog.Logger
	now      func() time.Time
}

// NewSentimentJob builds a SentimentJob scraping profiles for every stock
// the repository returns.
func NewSentimentJob(client *scraper.Client, profiles []scraper.SourceProfile, repo *repository.Repository, log zerolog.Logger) *SentimentJob {
	return &SentimentJob{
		client:   client,
		profiles: profiles,
		repo:     repo,
		log:      log.With().Str("job", "sentiment").Logger(),
		now:      time.Now,
	}
}

func (j *SentimentJob) Name() string { return "sentiment" }

// Run collects sentiment for every stock, source by source, then folds every
// per-source observation stored for that stock within the last
// SentimentWindow (including rows written by earlier runs) into one
// persisted aggregate.
func (j *SentimentJob) Run(ctx context.Context) error {
	stocks, err := j.repo.GetStocks(ctx)
	if err != nil {
		return err
	}

	var processed int
	sourceSuccess := make(map[string]int)
	var aggregateWrites int
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentFetches)

	for _, stock := range stocks {
		stock := stock
		g.Go(func() error {
			var obsCount int
			for _, profile := range j.profiles {
				obs, reason := j.client.Collect(gctx, stock.Symbol, profile)
				if reason != scraper.SkipNone {
					continue
				}
				if err := j.repo.UpsertSentiment(gctx, *obs); err != nil {
					j.log.Warn().Str("symbol", stock.Symbol).Str("source", profile.Domain).Err(err).Msg("sentiment persist failed")
					continue
				}
				mu.Lock()
				sourceSuccess[profile.Domain]++
				mu.Unlock()
				obsCount++
			}

			mu.Lock()
			processed++
			mu.Unlock()

			if obsCount == 0 {
				return nil
			}

			observations, err := j.repo.GetSentimentSince(gctx, stock.Symbol, j.now().Add(-SentimentWindow))
			if err != nil {
				j.log.Warn().Str("symbol", stock.Symbol).Err(err).Msg("aggregate lookup failed")
				return nil
			}
			agg, ok := sentiment.Combine(stock.Symbol, observations, nil)
			if !ok {
				return nil
			}
			now := j.now().UTC()
			if err := j.repo.UpsertSentiment(gctx, agg.ToObservation(now, now)); err != nil {
				j.log.Warn().Str("symbol", stock.Symbol).Err(err).Msg("aggregate persist failed")
				return nil
			}
			mu.Lock()
			aggregateWrites++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	j.log.Info().
		Int("processed_symbols", processed).
		Interface("per_source_success_counts", sourceSuccess).
		Int("aggregate_writes", aggregateWrites).
		Msg("sentiment job summary")

	return nil
}
