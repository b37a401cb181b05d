package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/clients/marketdata"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/clients/scraper"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/clock"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/config"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/database"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/jobs"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/prediction"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/ratelimit"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/repository"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/risk"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/scheduler"
	"github.com/AndrewLi0420/OpenAlpha-sub000/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Pretty: true})
	log.Info().Msg("starting OpenAlpha recommendation pipeline")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	db, err := database.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	repo := repository.New(db.Conn(), log)

	limiter := ratelimit.New(cfg.ScrapeDefaultSpacing)

	marketClient := marketdata.NewClient(cfg.MarketDataBaseURL, cfg.MarketDataAPIKey, cfg.MarketDataSpacing, limiter, log)
	scraperClient := scraper.NewClient(limiter, log)
	predictor := prediction.NewClient(cfg.ModelServiceURL, log)

	riskWeights := risk.Weights{
		Volatility:      cfg.RiskWeightVolatility,
		Uncertainty:     cfg.RiskWeightUncertainty,
		MarketCondition: cfg.RiskWeightMarket,
		ThresholdLow:    cfg.RiskThresholdLow,
		ThresholdMedium: cfg.RiskThresholdMedium,
	}

	marketJob := jobs.NewMarketDataJob(marketClient, repo, log, cfg.MarketDataBatchSize)
	sentimentJob := jobs.NewSentimentJob(scraperClient, scraper.DefaultProfiles(), repo, log)
	recommendationJob := jobs.NewRecommendationJob(repo, predictor, riskWeights, log, clock.Real{}, cfg.DailyRecommendationTarget, cfg.RecommendationDeadline)

	sched := scheduler.New(ctx, log)

	if err := sched.AddJob("0 * * * *", marketJob); err != nil {
		log.Fatal().Err(err).Msg("failed to register market-data job")
	}
	if err := sched.AddJob("5 * * * *", sentimentJob); err != nil {
		log.Fatal().Err(err).Msg("failed to register sentiment job")
	}
	if err := sched.AddJob("10 * * * *", recommendationJob); err != nil {
		log.Fatal().Err(err).Msg("failed to register recommendation job")
	}

	sched.Start()
	log.Info().Msg("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()
	sched.Stop()
	log.Info().Msg("stopped")
}
