package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_PositiveKeywordsYieldPositiveScore(t *testing.T) {
	score, ok := Score("Shares surge after record profit beat expectations")
	require.True(t, ok)
	assert.Greater(t, score, 0.0)
}

func TestScore_NegativeKeywordsYieldNegativeScore(t *testing.T) {
	score, ok := Score("Stock plunges after downgrade and weak guidance")
	require.True(t, ok)
	assert.Less(t, score, 0.0)
}

func TestScore_NoMatchingKeywordsYieldsSkip(t *testing.T) {
	_, ok := Score("The quick brown fox jumps over the lazy dog")
	assert.False(t, ok)
}

func TestScore_EmptyTextYieldsSkip(t *testing.T) {
	_, ok := Score("")
	assert.False(t, ok)
}

func TestScore_IsCaseInsensitive(t *testing.T) {
	score, ok := Score("SURGE SURGE SURGE")
	require.True(t, ok)
	assert.Equal(t, 1.0, score)
}
