// Package domain holds the entities and closed enums shared by every
// component of the hourly pipeline.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Signal is a trading recommendation direction.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Valid reports whether s is one of the closed set of signals.
func (s Signal) Valid() bool {
	switch s {
	case SignalBuy, SignalSell, SignalHold:
		return true
	}
	return false
}

// RiskLevel is the three-way bucket produced by the risk assessor.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MED"
	RiskHigh   RiskLevel = "HIGH"
)

// rank orders risk levels LOW < MED < HIGH, used for tie-break ranking
// (spec §4.K.5, tertiary key: risk level ascending).
func (r RiskLevel) rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// Less reports whether r sorts before other (LOW first).
func (r RiskLevel) Less(other RiskLevel) bool {
	return r.rank() < other.rank()
}

// HoldingPeriod is a user's preferred holding horizon.
type HoldingPeriod string

const (
	HoldingDaily   HoldingPeriod = "daily"
	HoldingWeekly  HoldingPeriod = "weekly"
	HoldingMonthly HoldingPeriod = "monthly"
)

// RiskTolerance is a user's maximum accepted risk level.
type RiskTolerance string

const (
	RiskToleranceLow    RiskTolerance = "low"
	RiskToleranceMedium RiskTolerance = "medium"
	RiskToleranceHigh   RiskTolerance = "high"
)

// MaxRiskLevel returns the highest RiskLevel a user with this tolerance
// accepts.
func (t RiskTolerance) MaxRiskLevel() RiskLevel {
	switch t {
	case RiskToleranceLow:
		return RiskLow
	case RiskToleranceMedium:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Tier is a user's subscription tier; free tier is capped at FreeTierStockLimit
// tracked stocks (spec §3 invariant).
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// FreeTierStockLimit is the maximum number of UserStockTracking rows a
// free-tier user may have at any committed state (spec §3 invariant).
const FreeTierStockLimit = 5

// Stock is a tracked equity. Created by an out-of-scope loader; read-only
// to this core.
type Stock struct {
	Symbol string // unique, uppercase, 1-10 chars
	Name   string
	Sector string
	Rank   *int
}

// MarketDataPoint is one (stock, instant) price+volume observation.
// Append-only.
type MarketDataPoint struct {
	Symbol     string
	Price      decimal.Decimal // positive, two-decimal precision
	Volume     int64           // non-negative
	ObservedAt time.Time       // UTC
	IngestedAt time.Time       // UTC
}

// SentimentSourceWebAggregate is the reserved source tag under which
// cross-source sentiment means are persisted (spec GLOSSARY).
const SentimentSourceWebAggregate = "web_aggregate"

// SentimentObservation is one (stock, source, instant) sentiment score.
// Append-only, subject to the idempotency key in SentimentKey.
type SentimentObservation struct {
	Symbol     string
	Source     string
	Score      float64 // clamped to [-1, 1]
	ObservedAt time.Time // UTC, truncated to the minute for idempotency
	IngestedAt time.Time
}

// SentimentKey returns the idempotency key for a sentiment observation:
// (stock, source, observed_at truncated to the minute).
func SentimentKey(symbol, source string, observedAt time.Time) (string, string, time.Time) {
	return symbol, source, observedAt.UTC().Truncate(time.Minute)
}

// ClampScore clamps a sentiment score to [-1, 1] (spec §3 invariant).
func ClampScore(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	if score < -1.0 {
		return -1.0
	}
	return score
}

// UserPreferences is a user's 1:1 preference record.
type UserPreferences struct {
	UserID        string
	HoldingPeriod HoldingPeriod
	RiskTolerance RiskTolerance
	Tier          Tier
	LastUpdated   time.Time
}

// UserStockTracking is one (user, stock) tracking row.
type UserStockTracking struct {
	UserID    string
	Symbol    string
	CreatedAt time.Time
}

// Recommendation is one persisted (user, stock, run) recommendation.
type Recommendation struct {
	UserID        string
	Symbol        string
	Signal        Signal
	Confidence    float64 // [0,1]
	Sentiment     float64 // [-1,1], the aggregated value used
	Risk          RiskLevel
	Explanation   string
	CreatedAt     time.Time
}
