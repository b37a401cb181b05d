// Package scraper implements a robots-aware HTML fetch + source-specific
// parse + keyword/lexicon sentiment score for one symbol.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/domain"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/ratelimit"
	"github.com/AndrewLi0420/OpenAlpha-sub000/internal/retry"
)

// UserAgent is the static identifying user-agent string sent with every
// scrape request and matched against robots.txt groups.
const UserAgent = "OpenAlpha-Bot/1.0"

// SkipReason names why Collect produced no observation. The job treats any
// non-empty reason as a skip, never a failure.
type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipRobotsDisallowed SkipReason = "robots_disallowed"
	SkipHTTPFailure      SkipReason = "http_failure"
	SkipParseFailure     SkipReason = "parse_failure"
)

// Client fetches and scores one symbol against one SourceProfile at a time.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	robots     *RobotsCache
	log        zerolog.Logger
}

// NewClient builds a Client sharing limiter with other scrapers/clients so
// per-domain spacing is enforced process-wide, across every scraper/market
// caller of the same domain.
func NewClient(limiter *ratelimit.Limiter, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		robots:     NewRobotsCache(UserAgent),
		log:        log.With().Str("client", "scraper").Logger(),
	}
}

// Collect fetches and scores symbol for one source profile, returning
// (observation, SkipNone) on success or (nil, reason) on any skip condition.
// HTTP/parse failures are logged with {symbol, source, error_class} here;
// the caller is not expected to log them again.
func (c *Client) Collect(ctx context.Context, symbol string, profile SourceProfile) (*domain.SentimentObservation, SkipReason) {
	base := profile.baseURL()
	path := profile.PathTemplate(symbol)

	rules := c.robots.Get(ctx, base)
	if !rules.Allowed(path) {
		c.log.Info().
			Str("symbol", symbol).
			Str("source", profile.Domain).
			Msg("robots.txt disallows path, skipping")
		return nil, SkipRobotsDisallowed
	}
	if rules.CrawlDelay > 0 {
		c.limiter.SetDomainRate(profile.Domain, rules.CrawlDelay)
	}

	if _, err := c.limiter.Acquire(ctx, profile.Domain); err != nil {
		return nil, SkipHTTPFailure
	}

	var body string
	err := retry.Do(ctx, c.log, retry.Options{Subject: symbol}, classifyHTTPErr, func(ctx context.Context) error {
		b, err := c.fetch(ctx, profile.url(symbol))
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		c.log.Warn().
			Str("symbol", symbol).
			Str("source", profile.Domain).
			Str("error_class", "http_failure").
			Err(err).
			Msg("scrape fetch failed")
		return nil, SkipHTTPFailure
	}

	score, ok := Score(body)
	if !ok {
		c.log.Info().
			Str("symbol", symbol).
			Str("source", profile.Domain).
			Str("error_class", "parse_failure").
			Msg("no scorable content")
		return nil, SkipParseFailure
	}

	return &domain.SentimentObservation{
		Symbol:     symbol,
		Source:     profile.Domain,
		Score:      score,
		ObservedAt: time.Now().UTC(),
		IngestedAt: time.Now().UTC(),
	}, SkipNone
}

type httpStatusErr struct{ status int }

func (e *httpStatusErr) Error() string { return fmt.Sprintf("scraper: http status %d", e.status) }

func classifyHTTPErr(err error) (bool, retry.ErrorClass) {
	if se, ok := err.(*httpStatusErr); ok {
		if se.status == http.StatusTooManyRequests || se.status >= 500 {
			return true, retry.ClassTransient
		}
		return false, retry.ClassPermanent
	}
	return true, retry.ClassTransient
}

func (c *Client) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("scraper: build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("scraper: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusErr{status: resp.StatusCode}
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("scraper: parse html: %w", err)
	}

	var sb strings.Builder
	collectText(doc, &sb)
	return sb.String(), nil
}

// collectText walks the parsed HTML tree, appending every text node's
// content. Script/style nodes are skipped since their content is not
// human-readable prose.
func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, sb)
	}
}
