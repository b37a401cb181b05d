// Package sentiment aggregates per-source SentimentObservations into one
// cross-source value persisted under domain.SentimentSourceWebAggregate.
package sentiment

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
)

// Aggregate is the result of combining one or more per-source observations
// for the same stock. The observations may carry different instants and the
// same source more than once; each observation counts separately.
type Aggregate struct {
	Symbol      string
	Score       float64  // mean, clamped to [-1, 1]
	Sources     []string // source tag of every contributing observation, sorted (repeats kept)
	SourceCount int      // number of observations combined
}

// Weights optionally overrides the default equal weighting across sources.
// A source absent from Weights is weighted 1.0 (spec's Open Question: equal
// weighting by default, configurable per-source weight as an extension
// seam).
type Weights map[string]float64

// Combine folds observations for a single stock into one Aggregate. Returns
// (nil, false) for an empty input — "no sentiment" is a distinct result from
// "sentiment of zero", so callers must not synthesize a zero-value Aggregate
// for a symbol with no observations.
func Combine(symbol string, observations []domain.SentimentObservation, weights Weights) (*Aggregate, bool) {
	if len(observations) == 0 {
		return nil, false
	}

	scores := make([]float64, 0, len(observations))
	w := make([]float64, 0, len(observations))
	sources := make([]string, 0, len(observations))

	for _, obs := range observations {
		weight := 1.0
		if weights != nil {
			if override, ok := weights[obs.Source]; ok {
				weight = override
			}
		}
		scores = append(scores, obs.Score)
		w = append(w, weight)
		sources = append(sources, obs.Source)
	}

	mean := stat.Mean(scores, w)
	sort.Strings(sources)

	return &Aggregate{
		Symbol:      symbol,
		Score:       domain.ClampScore(mean),
		Sources:     sources,
		SourceCount: len(observations),
	}, true
}

// ToObservation converts an Aggregate into the persisted
// web_aggregate-tagged SentimentObservation.
func (a *Aggregate) ToObservation(observedAt, ingestedAt time.Time) domain.SentimentObservation {
	return domain.SentimentObservation{
		Symbol:     a.Symbol,
		Source:     domain.SentimentSourceWebAggregate,
		Score:      a.Score,
		ObservedAt: observedAt,
		IngestedAt: ingestedAt,
	}
}
