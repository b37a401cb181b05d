package scraper

import "fmt"

// SourceProfile names one scrape-able sentiment source (spec §4.D): its
// domain (used as both the rate-limiter key and the persisted source tag),
// and how to build the symbol-specific path to fetch.
type SourceProfile struct {
	Name   string // human-readable, e.g. "MarketWatch"
	Domain string // e.g. "marketwatch.com" — persisted as SentimentObservation.Source
	Scheme string // "https" unless overridden (tests use "http")
	// PathTemplate builds the path for symbol, e.g. "/investing/stock/<lower(symbol)>".
	PathTemplate func(symbol string) string
}

func defaultPathTemplate(prefix string) func(string) string {
	return func(symbol string) string {
		return fmt.Sprintf("%s/%s", prefix, lower(symbol))
	}
}

// DefaultProfiles returns the built-in source profiles named in spec §1
// ("marketwatch.com, seekingalpha.com").
func DefaultProfiles() []SourceProfile {
	return []SourceProfile{
		{
			Name:         "MarketWatch",
			Domain:       "marketwatch.com",
			Scheme:       "https",
			PathTemplate: defaultPathTemplate("/investing/stock"),
		},
		{
			Name:         "SeekingAlpha",
			Domain:       "seekingalpha.com",
			Scheme:       "https",
			PathTemplate: defaultPathTemplate("/symbol"),
		},
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func (p SourceProfile) baseURL() string {
	return fmt.Sprintf("%s://%s", p.Scheme, p.Domain)
}

func (p SourceProfile) url(symbol string) string {
	return p.baseURL() + p.PathTemplate(symbol)
}
