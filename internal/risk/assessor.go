// Package risk combines price volatility, prediction uncertainty, and
// market conditions into the three-way RiskLevel bucket used by
// recommendations.
package risk

import (
	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
)

// MinUsableHistoryPoints is the fewest market-history price points (as
// passed in by the caller) needed to compute a volatility component; below this the component defaults to
// 0.0 and the caller logs a warning instead of failing the assessment.
const MinUsableHistoryPoints = 7

const defaultMarketCondition = 0.5

// Weights configures the relative contribution of each risk component and
// the bucket thresholds the combined score is cut against (spec §6: "risk
// weights and thresholds if tuned"). The three component weights are
// expected to sum to 1.0, and ThresholdLow must be <= ThresholdMedium.
type Weights struct {
	Volatility      float64
	Uncertainty     float64
	MarketCondition float64
	ThresholdLow    float64
	ThresholdMedium float64
}

// DefaultWeights is the spec's baseline weighting, used whenever the
// environment leaves the risk knobs untuned.
var DefaultWeights = Weights{
	Volatility:      0.40,
	Uncertainty:     0.40,
	MarketCondition: 0.20,
	ThresholdLow:    0.33,
	ThresholdMedium: 0.66,
}

// Assessment is the result of one risk evaluation, including the component
// scores so callers can log or explain the bucket.
type Assessment struct {
	Risk             domain.RiskLevel
	VolatilityScore  float64
	UncertaintyScore float64
	MarketCondition  float64
	UsedFallbackVol  bool // true if history was too short for a real volatility read
}

// Assessor combines price volatility, prediction uncertainty, and market
// conditions into the three-way RiskLevel bucket used by recommendations,
// under a configurable set of Weights.
type Assessor struct {
	weights Weights
}

// NewAssessor builds an Assessor under the given Weights.
func NewAssessor(weights Weights) *Assessor {
	return &Assessor{weights: weights}
}

// Assess combines the three components into a RiskLevel. modelConfidence is
// the prediction's own [0,1] confidence; marketCondition is an optional
// override of the default neutral 0.5 (spec's Open Question: no dedicated
// market-regime signal exists yet, so 0.5 is the stand-in until one does).
func (a *Assessor) Assess(log zerolog.Logger, symbol string, prices []float64, modelConfidence float64, marketCondition *float64) Assessment {
	vol, fallback := volatility(prices)
	if fallback {
		log.Warn().
			Str("symbol", symbol).
			Int("points", len(prices)).
			Msg("insufficient market history for volatility, defaulting to 0.0")
	}

	uncertainty := uncertaintyScore(modelConfidence)
	if modelConfidence < 0 || modelConfidence > 1 {
		log.Warn().
			Str("symbol", symbol).
			Float64("confidence", modelConfidence).
			Msg("model confidence out of [0,1], defaulting risk to MED")
		return Assessment{
			Risk:             domain.RiskMedium,
			VolatilityScore:  vol,
			UncertaintyScore: uncertainty,
			MarketCondition:  defaultMarketCondition,
			UsedFallbackVol:  fallback,
		}
	}

	mc := defaultMarketCondition
	if marketCondition != nil {
		mc = *marketCondition
	}

	return a.assessFromComponents(symbol, log, vol, uncertainty, mc, fallback)
}

func (a *Assessor) assessFromComponents(symbol string, log zerolog.Logger, vol, uncertainty, marketCondition float64, usedFallback bool) (result Assessment) {
	defer func() {
		if p := recover(); p != nil {
			log.Warn().
				Str("symbol", symbol).
				Interface("panic", p).
				Msg("risk assessment panicked, defaulting to MED")
			result = Assessment{
				Risk:            domain.RiskMedium,
				MarketCondition: marketCondition,
				UsedFallbackVol: usedFallback,
			}
		}
	}()

	w := a.weights
	combined := w.Volatility*vol + w.Uncertainty*uncertainty + w.MarketCondition*marketCondition

	var level domain.RiskLevel
	switch {
	case combined <= w.ThresholdLow:
		level = domain.RiskLow
	case combined <= w.ThresholdMedium:
		level = domain.RiskMedium
	default:
		level = domain.RiskHigh
	}

	return Assessment{
		Risk:             level,
		VolatilityScore:  vol,
		UncertaintyScore: uncertainty,
		MarketCondition:  marketCondition,
		UsedFallbackVol:  usedFallback,
	}
}

// volatility computes a [0,1]-ish volatility score from simple returns over
// the given prices (oldest first expected), using talib.Stddev. Returns
// (0, true) when there are fewer than MinUsableHistoryPoints usable points.
func volatility(prices []float64) (score float64, usedFallback bool) {
	if len(prices) < MinUsableHistoryPoints {
		return 0.0, true
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(returns) < MinUsableHistoryPoints-1 {
		return 0.0, true
	}

	stddev := talib.Stddev(returns, len(returns), 1)
	if len(stddev) == 0 {
		return 0.0, true
	}

	last := stddev[len(stddev)-1]
	if last != last { // NaN
		return 0.0, true
	}

	return clamp01(last * 10), false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// uncertaintyScore converts model confidence into its complement. A
// confidence of 1.0 (certain) contributes zero risk; 0.0 contributes
// maximal risk.
func uncertaintyScore(confidence float64) float64 {
	return 1 - confidence
}
