package scraper

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Rules is the subset of a parsed robots.txt relevant to a single scraper:
// which paths are disallowed for our user-agent, and the declared
// Crawl-delay (if any).
type Rules struct {
	Disallow   []string
	CrawlDelay time.Duration
}

// Allowed reports whether path is permitted, i.e. not a prefix match of any
// Disallow entry (spec §4.D.1: "a Disallow causes an immediate skip").
func (r *Rules) Allowed(path string) bool {
	if r == nil {
		return true
	}
	for _, d := range r.Disallow {
		if d == "" {
			continue
		}
		if strings.HasPrefix(path, d) {
			return false
		}
	}
	return true
}

// RobotsCache fetches and caches robots.txt per host for the process
// lifetime (spec §6: "cached per process lifetime").
type RobotsCache struct {
	mu         sync.Mutex
	cache      map[string]*Rules
	httpClient *http.Client
	userAgent  string
}

// NewRobotsCache creates a cache that identifies itself with userAgent when
// fetching robots.txt.
func NewRobotsCache(userAgent string) *RobotsCache {
	return &RobotsCache{
		cache:      make(map[string]*Rules),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
	}
}

// Get returns the cached Rules for baseURL's host, fetching and parsing
// robots.txt on first use. A fetch failure (no robots.txt, network error) is
// treated as "no restrictions" — an absent robots.txt does not disallow
// anything.
func (c *RobotsCache) Get(ctx context.Context, baseURL string) *Rules {
	c.mu.Lock()
	if rules, ok := c.cache[baseURL]; ok {
		c.mu.Unlock()
		return rules
	}
	c.mu.Unlock()

	rules := c.fetch(ctx, baseURL)

	c.mu.Lock()
	c.cache[baseURL] = rules
	c.mu.Unlock()

	return rules
}

func (c *RobotsCache) fetch(ctx context.Context, baseURL string) *Rules {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/robots.txt", nil)
	if err != nil {
		return &Rules{}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Rules{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Rules{}
	}

	return parseRobots(resp.Body)
}

// parseRobots parses the handful of line-oriented directives robots.txt
// uses. Only the "*" user-agent group is honored: this scraper identifies
// itself with a single static user-agent string (spec §6) and has no
// bot-specific group to match.
func parseRobots(body io.Reader) *Rules {
	rules := &Rules{}
	scanner := bufio.NewScanner(body)

	inStarGroup := false
	sawAnyUserAgent := false
	lastWasUserAgent := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := splitDirective(line)
		if !ok {
			continue
		}

		directive := strings.ToLower(key)
		switch directive {
		case "user-agent":
			// A new User-agent line starts a new group only once we've seen
			// directives for the previous one, or at the very first line.
			if lastWasUserAgent {
				inStarGroup = inStarGroup || value == "*"
			} else {
				inStarGroup = value == "*"
			}
			sawAnyUserAgent = true
		case "disallow":
			if inStarGroup || !sawAnyUserAgent {
				rules.Disallow = append(rules.Disallow, value)
			}
		case "crawl-delay":
			if inStarGroup || !sawAnyUserAgent {
				if seconds, err := strconv.ParseFloat(value, 64); err == nil && seconds > 0 {
					rules.CrawlDelay = time.Duration(seconds * float64(time.Second))
				}
			}
		}
		lastWasUserAgent = directive == "user-agent"
	}

	return rules
}

func splitDirective(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	return key, value, true
}
