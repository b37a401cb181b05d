// Package ratelimit enforces per-source call spacing and domain-specific
// crawl delays. The limiter is process-local; distributed coordination is
// out of scope.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSpacing is the inter-call spacing applied to a domain that has not
// registered an override.
const DefaultSpacing = 1 * time.Second

// Limiter enforces a minimum inter-call spacing per domain. Safe for
// concurrent use: domain state is serialized behind a mutex so (§5) the same
// domain's acquisitions never interleave incorrectly across goroutines.
type Limiter struct {
	mu       sync.Mutex
	domains  map[string]*rate.Limiter
	fallback time.Duration
}

// New creates a Limiter using fallback as the default spacing for domains
// that have not been registered via SetDomainRate.
func New(fallback time.Duration) *Limiter {
	if fallback <= 0 {
		fallback = DefaultSpacing
	}
	return &Limiter{
		domains:  make(map[string]*rate.Limiter),
		fallback: fallback,
	}
}

// SetDomainRate overrides the inter-call spacing for domain. Used when a
// source's robots.txt declares a Crawl-delay longer than the default.
func (l *Limiter) SetDomainRate(domain string, spacing time.Duration) {
	if spacing <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.domains[domain]; ok {
		lim.SetLimit(rate.Every(spacing))
		return
	}
	l.domains[domain] = rate.NewLimiter(rate.Every(spacing), 1)
}

// Acquire blocks (cooperatively, respecting ctx cancellation) until the
// minimum inter-call spacing for domain has elapsed since the last
// acquisition recorded against that domain. Returns the delay actually
// applied.
func (l *Limiter) Acquire(ctx context.Context, domain string) (time.Duration, error) {
	lim := l.limiterFor(domain)
	start := time.Now()
	if err := lim.Wait(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (l *Limiter) limiterFor(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.domains[domain]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.fallback), 1)
		l.domains[domain] = lim
	}
	return lim
}
