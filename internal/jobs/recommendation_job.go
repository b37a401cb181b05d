package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/clock"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/prediction"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/repository"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/risk"
)

// MarketHistoryLookback is how many recent market points are pulled per
// candidate for both prediction input and volatility assessment. It is a
// count of stored points, not a calendar window.
const MarketHistoryLookback = 30

// MissingSentimentConfidencePenalty derates a candidate's effective
// confidence when no web_aggregate sentiment exists for it (spec §4.K.3.b:
// "use 0.0 with a lowered effective confidence").
const MissingSentimentConfidencePenalty = 0.5

// RecommendationJob produces and persists each user's ranked recommendation
// list (spec §4.K).
type RecommendationJob struct {
	repo       *repository.Repository
	predictor  prediction.Predictor
	risk       *risk.Assessor
	log        zerolog.Logger
	clock      clock.Clock
	dailyLimit int
	deadline   time.Duration
}

// NewRecommendationJob builds a RecommendationJob. riskWeights configures the
// risk assessor's component weights and bucket thresholds (spec §6).
func NewRecommendationJob(repo *repository.Repository, predictor prediction.Predictor, riskWeights risk.Weights, log zerolog.Logger, c clock.Clock, dailyLimit int, deadline time.Duration) *RecommendationJob {
	return &RecommendationJob{
		repo:       repo,
		predictor:  predictor,
		risk:       risk.NewAssessor(riskWeights),
		log:        log.With().Str("job", "recommendation").Logger(),
		clock:      c,
		dailyLimit: dailyLimit,
		deadline:   deadline,
	}
}

func (j *RecommendationJob) Name() string { return "recommendation" }

// Run generates recommendations for every user with a preferences row,
// against one wall-clock budget shared by the whole run (spec §4.K.7): the
// deadline is started once here, checked at each user boundary — after the
// previous user's ranked list has been persisted — and a halt is logged
// exactly once, with the users processed so far left as the run's output.
func (j *RecommendationJob) Run(ctx context.Context) error {
	users, err := j.repo.GetUsers(ctx)
	if err != nil {
		return err
	}

	deadline := j.clock.Now().Add(j.deadline)

	var processed int
	for _, user := range users {
		if j.clock.Now().After(deadline) {
			j.log.Warn().
				Int("processed", processed).
				Int("total_users", len(users)).
				Bool("deadline_exceeded", true).
				Msg("recommendation job deadline exceeded, halting")
			return nil
		}

		if err := j.runForUser(ctx, user); err != nil {
			j.log.Warn().Str("user_id", user.UserID).Err(err).Msg("recommendation run failed for user")
		}
		processed++
	}
	return nil
}

func (j *RecommendationJob) runForUser(ctx context.Context, user domain.UserPreferences) error {
	symbols, err := j.repo.GetTrackedStocks(ctx, user.UserID)
	if err != nil {
		return err
	}

	target := j.dailyLimit
	if user.Tier == domain.TierFree && target > domain.FreeTierStockLimit {
		target = domain.FreeTierStockLimit
	}

	candidates := make([]domain.Recommendation, 0, len(symbols))

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			break
		}

		rec, ok, err := j.evaluate(ctx, user, symbol)
		if err != nil {
			j.log.Warn().Str("user_id", user.UserID).Str("symbol", symbol).Err(err).Msg("candidate evaluation failed, skipping")
			continue
		}
		if !ok {
			continue
		}
		candidates = append(candidates, rec)
	}

	rank(candidates)
	if len(candidates) > target {
		candidates = candidates[:target]
	}

	for _, rec := range candidates {
		if err := j.repo.PutRecommendation(ctx, rec); err != nil {
			j.log.Warn().Str("user_id", user.UserID).Str("symbol", rec.Symbol).Err(err).Msg("recommendation persist failed")
		}
	}
	return nil
}

// evaluate builds one recommendation candidate for (user, symbol), applying
// the holding-period/risk-tolerance preference filter. Returns (zero, false,
// nil) when the candidate is filtered out, never an error for a filtered
// candidate.
func (j *RecommendationJob) evaluate(ctx context.Context, user domain.UserPreferences, symbol string) (domain.Recommendation, bool, error) {
	latest, err := j.repo.GetLatestMarket(ctx, symbol)
	if err != nil {
		return domain.Recommendation{}, false, err
	}
	if latest == nil {
		return domain.Recommendation{}, false, nil
	}

	history, err := j.repo.GetMarketHistory(ctx, symbol, MarketHistoryLookback)
	if err != nil {
		return domain.Recommendation{}, false, err
	}

	aggregate, err := j.repo.GetLatestAggregateSentiment(ctx, symbol)
	if err != nil {
		return domain.Recommendation{}, false, err
	}

	stocks, err := j.repo.GetStocks(ctx)
	if err != nil {
		return domain.Recommendation{}, false, err
	}
	var stock domain.Stock
	for _, s := range stocks {
		if s.Symbol == symbol {
			stock = s
			break
		}
	}

	output, err := j.predictor.Predict(ctx, prediction.Input{
		Stock:           stock,
		LatestMarket:    latest,
		MarketHistory:   history,
		LatestSentiment: aggregate,
	})
	if err != nil {
		return domain.Recommendation{}, false, err
	}
	if !output.Signal.Valid() || output.Confidence < 0 || output.Confidence > 1 {
		j.log.Warn().
			Str("user_id", user.UserID).
			Str("symbol", symbol).
			Str("signal", string(output.Signal)).
			Float64("confidence", output.Confidence).
			Msg("invalid prediction output, dropping candidate")
		return domain.Recommendation{}, false, nil
	}

	prices := make([]float64, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		p, _ := history[i].Price.Float64()
		prices = append(prices, p)
	}

	// Absent a web_aggregate row, sentiment reads neutral (0.0) but the
	// candidate's effective confidence is derated to reflect the missing
	// signal (spec §4.K.3.b), feeding both the risk assessor's uncertainty
	// component and the rank/persist path below.
	sentimentScore := 0.0
	effectiveConfidence := output.Confidence
	if aggregate != nil {
		sentimentScore = aggregate.Score
	} else {
		effectiveConfidence *= MissingSentimentConfidencePenalty
	}

	assessment := j.risk.Assess(j.log, symbol, prices, effectiveConfidence, nil)

	if user.RiskTolerance.MaxRiskLevel().Less(assessment.Risk) {
		return domain.Recommendation{}, false, nil
	}
	if !matchesHoldingPeriod(assessment.Risk, user.HoldingPeriod) {
		return domain.Recommendation{}, false, nil
	}

	return domain.Recommendation{
		UserID:      user.UserID,
		Symbol:      symbol,
		Signal:      output.Signal,
		Confidence:  effectiveConfidence,
		Sentiment:   sentimentScore,
		Risk:        assessment.Risk,
		Explanation: explain(output.Signal, effectiveConfidence, assessment),
		CreatedAt:   j.clock.Now(),
	}, true, nil
}

// matchesHoldingPeriod applies the holding-period vs. volatility heuristic
// (spec §4.K.4): daily horizons keep only LOW/MED risk candidates; weekly
// and monthly horizons keep every risk band. No preference for MED is
// applied to weekly horizons: rank orders candidates the same way for every
// holding period, with LOW first on its risk key.
func matchesHoldingPeriod(risk domain.RiskLevel, period domain.HoldingPeriod) bool {
	if period == domain.HoldingDaily {
		return risk == domain.RiskLow || risk == domain.RiskMedium
	}
	return true
}

// rank sorts candidates by confidence desc, then sentiment desc, then risk
// level ascending (spec §4.K.5).
func rank(candidates []domain.Recommendation) {
	sort.SliceStable(candidates, func(i, k int) bool {
		a, b := candidates[i], candidates[k]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Sentiment != b.Sentiment {
			return a.Sentiment > b.Sentiment
		}
		return a.Risk.Less(b.Risk)
	})
}

func explain(signal domain.Signal, confidence float64, assessment risk.Assessment) string {
	return fmt.Sprintf(
		"signal=%s confidence=%.2f risk=%s (volatility=%.2f uncertainty=%.2f market=%.2f)",
		signal, confidence, assessment.Risk,
		assessment.VolatilityScore, assessment.UncertaintyScore, assessment.MarketCondition,
	)
}
