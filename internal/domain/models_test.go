package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignal_Valid(t *testing.T) {
	assert.True(t, SignalBuy.Valid())
	assert.True(t, SignalSell.Valid())
	assert.True(t, SignalHold.Valid())
	assert.False(t, Signal("short").Valid())
}

func TestRiskLevel_Less(t *testing.T) {
	assert.True(t, RiskLow.Less(RiskMedium))
	assert.True(t, RiskMedium.Less(RiskHigh))
	assert.False(t, RiskHigh.Less(RiskLow))
	assert.False(t, RiskLow.Less(RiskLow))
}

func TestRiskTolerance_MaxRiskLevel(t *testing.T) {
	assert.Equal(t, RiskLow, RiskToleranceLow.MaxRiskLevel())
	assert.Equal(t, RiskMedium, RiskToleranceMedium.MaxRiskLevel())
	assert.Equal(t, RiskHigh, RiskToleranceHigh.MaxRiskLevel())
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 1.0, ClampScore(5.0))
	assert.Equal(t, -1.0, ClampScore(-5.0))
	assert.Equal(t, 0.3, ClampScore(0.3))
}

func TestSentimentKey_TruncatesToMinute(t *testing.T) {
	observed := time.Date(2026, 7, 31, 10, 15, 42, 500, time.UTC)
	symbol, source, key := SentimentKey("AAPL", "marketwatch.com", observed)

	assert.Equal(t, "AAPL", symbol)
	assert.Equal(t, "marketwatch.com", source)
	assert.Equal(t, time.Date(2026, 7, 31, 10, 15, 0, 0, time.UTC), key)
}

func TestSentimentKey_IsStableAcrossSecondsWithinSameMinute(t *testing.T) {
	a := time.Date(2026, 7, 31, 10, 15, 1, 0, time.UTC)
	b := time.Date(2026, 7, 31, 10, 15, 59, 0, time.UTC)

	_, _, keyA := SentimentKey("AAPL", "src", a)
	_, _, keyB := SentimentKey("AAPL", "src", b)

	assert.Equal(t, keyA, keyB)
}
