package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client consumes an external model's inference endpoint over HTTP. The
// model itself — training, feature engineering, weights — is out of scope
// here; this is only the contract a Predictor needs to call it (spec's
// Non-goals: "only its inference contract is consumed").
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds a Client calling the model-serving endpoint at baseURL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("client", "prediction").Logger(),
	}
}

type predictRequest struct {
	Symbol string `json:"symbol"`
}

type predictResponse struct {
	Signal     string  `json:"signal"`
	Confidence float64 `json:"confidence"`
}

// Predict implements Predictor by POSTing the candidate's symbol to the
// model-serving endpoint and parsing its signal/confidence response.
func (c *Client) Predict(ctx context.Context, in Input) (Output, error) {
	body, err := json.Marshal(predictRequest{Symbol: in.Stock.Symbol})
	if err != nil {
		return Output{}, fmt.Errorf("prediction: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Output{}, fmt.Errorf("prediction: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Output{}, fmt.Errorf("prediction: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("prediction: http status %d", resp.StatusCode)
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Output{}, fmt.Errorf("prediction: decode response: %w", err)
	}

	signal, ok := signalFrom(parsed.Signal)
	if !ok {
		return Output{}, fmt.Errorf("prediction: invalid signal %q", parsed.Signal)
	}

	return Output{Signal: signal, Confidence: parsed.Confidence}, nil
}
