package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
)

func TestRank_OrdersByConfidenceDescending(t *testing.T) {
	candidates := []domain.Recommendation{
		{Symbol: "A", Confidence: 0.5},
		{Symbol: "B", Confidence: 0.9},
		{Symbol: "C", Confidence: 0.1},
	}
	rank(candidates)
	assert.Equal(t, []string{"B", "A", "C"}, symbolsOf(candidates))
}

func TestRank_BreaksConfidenceTiesBySentimentDescending(t *testing.T) {
	candidates := []domain.Recommendation{
		{Symbol: "A", Confidence: 0.5, Sentiment: -0.1},
		{Symbol: "B", Confidence: 0.5, Sentiment: 0.4},
	}
	rank(candidates)
	assert.Equal(t, []string{"B", "A"}, symbolsOf(candidates))
}

func TestRank_BreaksRemainingTiesByRiskAscending(t *testing.T) {
	candidates := []domain.Recommendation{
		{Symbol: "A", Confidence: 0.5, Sentiment: 0.2, Risk: domain.RiskHigh},
		{Symbol: "B", Confidence: 0.5, Sentiment: 0.2, Risk: domain.RiskLow},
	}
	rank(candidates)
	assert.Equal(t, []string{"B", "A"}, symbolsOf(candidates))
}

func TestMatchesHoldingPeriod_DailyKeepsOnlyLowAndMedRisk(t *testing.T) {
	assert.True(t, matchesHoldingPeriod(domain.RiskLow, domain.HoldingDaily))
	assert.True(t, matchesHoldingPeriod(domain.RiskMedium, domain.HoldingDaily))
	assert.False(t, matchesHoldingPeriod(domain.RiskHigh, domain.HoldingDaily))
}

func TestMatchesHoldingPeriod_WeeklyAndMonthlyKeepEveryRiskBand(t *testing.T) {
	assert.True(t, matchesHoldingPeriod(domain.RiskHigh, domain.HoldingWeekly))
	assert.True(t, matchesHoldingPeriod(domain.RiskHigh, domain.HoldingMonthly))
	assert.True(t, matchesHoldingPeriod(domain.RiskLow, domain.HoldingMonthly))
}

func symbolsOf(recs []domain.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Symbol
	}
	return out
}
