// Package prediction defines the seam between the recommendation job and
// whatever model produces a trading signal. The model itself does not ship
// here; the package holds the port and Client, an HTTP adapter that calls an
// external model-serving endpoint.
package prediction

import (
	"context"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
)

// Input is everything a Predictor needs to score one stock.
type Input struct {
	Stock           domain.Stock
	LatestMarket    *domain.MarketDataPoint
	MarketHistory   []domain.MarketDataPoint
	LatestSentiment *domain.SentimentObservation
}

// Output is one stock's predicted direction and the model's own confidence
// in it.
type Output struct {
	Signal     domain.Signal
	Confidence float64 // [0,1]
}

// Predictor produces a trading signal for one stock. Client is the one
// implementation in this package; the recommendation job depends only on
// this interface.
type Predictor interface {
	Predict(ctx context.Context, in Input) (Output, error)
}

func signalFrom(s string) (domain.Signal, bool) {
	sig := domain.Signal(s)
	return sig, sig.Valid()
}
