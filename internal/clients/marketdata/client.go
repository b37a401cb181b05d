// Package marketdata fetches the latest price+volume for one symbol via a
// quota-capped external API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/ratelimit"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/retry"
)

// Domain is the rate-limiter key for the market-data provider's host.
const Domain = "marketdata-provider"

// Quote is one successfully fetched and validated observation.
type Quote struct {
	Price      decimal.Decimal
	Volume     int64
	ObservedAt time.Time
}

// ErrParse indicates the response body did not contain a valid price/volume
// pair. Callers (the market-data job) treat this as a per-symbol skip, not a
// retryable failure.
type ErrParse struct {
	Symbol string
	Reason string
}

func (e *ErrParse) Error() string {
	return fmt.Sprintf("marketdata: parse failure for %s: %s", e.Symbol, e.Reason)
}

// httpError wraps a non-2xx response so the retry classifier can inspect the
// status code.
type httpError struct {
	status int
}

func (e *httpError) Error() string { return fmt.Sprintf("marketdata: http status %d", e.status) }

// Classify implements retry.Classifier for market-data HTTP calls: retry on
// 429/5xx and transport errors, never on other 4xx or parse failures.
func Classify(err error) (retryable bool, class retry.ErrorClass) {
	var he *httpError
	if asHTTPError(err, &he) {
		if he.status == http.StatusTooManyRequests || he.status >= 500 {
			return true, retry.ClassTransient
		}
		return false, retry.ClassPermanent
	}
	var pe *ErrParse
	if asParseError(err, &pe) {
		return false, retry.ClassPermanent
	}
	// Anything else (timeouts, DNS blips, connection resets) is transient.
	return true, retry.ClassTransient
}

func asHTTPError(err error, target **httpError) bool {
	he, ok := err.(*httpError)
	if ok {
		*target = he
	}
	return ok
}

func asParseError(err error, target **ErrParse) bool {
	pe, ok := err.(*ErrParse)
	if ok {
		*target = pe
	}
	return ok
}

// quoteResponse is the provider's JSON body: a latest price (real) and
// volume (integer) plus a timestamp parseable as UTC.
type quoteResponse struct {
	Price     json.Number `json:"price"`
	Volume    json.Number `json:"volume"`
	Timestamp string      `json:"timestamp"`
}

// Client fetches quotes from the configured market-data provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        zerolog.Logger
}

// NewClient builds a Client. spacing is the minimum inter-call delay
// registered on limiter for Domain, tuned to the provider's documented
// free-tier quota (e.g. one call per >= 12 seconds for a 5-calls/minute
// budget).
func NewClient(baseURL, apiKey string, spacing time.Duration, limiter *ratelimit.Limiter, log zerolog.Logger) *Client {
	limiter.SetDomainRate(Domain, spacing)
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		log:        log.With().Str("client", "marketdata").Logger(),
	}
}

// Fetch retrieves the latest quote for symbol, acquiring the rate limiter
// and retrying transient failures.
func (c *Client) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	if _, err := c.limiter.Acquire(ctx, Domain); err != nil {
		return nil, fmt.Errorf("marketdata: rate limit wait: %w", err)
	}

	var quote *Quote
	err := retry.Do(ctx, c.log, retry.Options{Subject: symbol}, Classify, func(ctx context.Context) error {
		q, err := c.doFetch(ctx, symbol)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quote, nil
}

func (c *Client) doFetch(ctx context.Context, symbol string) (*Quote, error) {
	url := fmt.Sprintf("%s/quote?symbol=%s&apikey=%s", c.baseURL, symbol, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("marketdata: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketdata: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httpError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("marketdata: read response: %w", err)
	}

	var parsed quoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ErrParse{Symbol: symbol, Reason: "invalid json"}
	}

	return validate(symbol, parsed)
}

func validate(symbol string, parsed quoteResponse) (*Quote, error) {
	price, err := decimal.NewFromString(parsed.Price.String())
	if err != nil || price.Sign() <= 0 {
		return nil, &ErrParse{Symbol: symbol, Reason: "price is not a positive real"}
	}
	price = price.Round(2)

	volume, err := strconv.ParseInt(parsed.Volume.String(), 10, 64)
	if err != nil || volume < 0 {
		return nil, &ErrParse{Symbol: symbol, Reason: "volume is not a non-negative integer"}
	}

	observedAt, err := time.Parse(time.RFC3339, parsed.Timestamp)
	if err != nil {
		observedAt = time.Now().UTC()
	}

	return &Quote{Price: price, Volume: volume, ObservedAt: observedAt.UTC()}, nil
}
