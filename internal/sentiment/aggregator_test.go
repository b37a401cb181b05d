package sentiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
)

func obs(source string, score float64) domain.SentimentObservation {
	return domain.SentimentObservation{
		Symbol:     "AAPL",
		Source:     source,
		Score:      score,
		ObservedAt: time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC),
	}
}

func TestCombine_EmptyInputYieldsNoSentiment(t *testing.T) {
	agg, ok := Combine("AAPL", nil, nil)
	assert.False(t, ok)
	assert.Nil(t, agg)
}

func TestCombine_SingleObservationIsItsOwnMean(t *testing.T) {
	agg, ok := Combine("AAPL", []domain.SentimentObservation{obs("marketwatch.com", 0.4)}, nil)
	require.True(t, ok)
	assert.Equal(t, 0.4, agg.Score)
	assert.Equal(t, 1, agg.SourceCount)
	assert.Equal(t, []string{"marketwatch.com"}, agg.Sources)
}

func TestCombine_EqualWeightingByDefault(t *testing.T) {
	observations := []domain.SentimentObservation{
		obs("marketwatch.com", 0.6),
		obs("seekingalpha.com", -0.2),
	}
	agg, ok := Combine("AAPL", observations, nil)
	require.True(t, ok)
	assert.InDelta(t, 0.2, agg.Score, 1e-9)
	assert.Equal(t, 2, agg.SourceCount)
}

func TestCombine_CustomWeightsOverrideEqualWeighting(t *testing.T) {
	observations := []domain.SentimentObservation{
		obs("marketwatch.com", 1.0),
		obs("seekingalpha.com", -1.0),
	}
	weights := Weights{"marketwatch.com": 3.0, "seekingalpha.com": 1.0}

	agg, ok := Combine("AAPL", observations, weights)
	require.True(t, ok)
	assert.InDelta(t, 0.5, agg.Score, 1e-9)
}

func TestCombine_ClampsResultToValidRange(t *testing.T) {
	observations := []domain.SentimentObservation{
		obs("a", 1.0),
		obs("b", 1.0),
	}
	agg, ok := Combine("AAPL", observations, nil)
	require.True(t, ok)
	assert.LessOrEqual(t, agg.Score, 1.0)
}

func TestToObservation_TagsWebAggregate(t *testing.T) {
	agg, ok := Combine("AAPL", []domain.SentimentObservation{obs("marketwatch.com", 0.1)}, nil)
	require.True(t, ok)

	now := time.Date(2026, 7, 31, 11, 0, 0, 0, time.UTC)
	result := agg.ToObservation(now, now)

	assert.Equal(t, domain.SentimentSourceWebAggregate, result.Source)
	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, 0.1, result.Score)
}
