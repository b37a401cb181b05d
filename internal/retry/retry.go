// Package retry wraps one call with bounded exponential backoff over a
// classified error set. A final failure is never raised to the caller — it
// is returned so the caller can account it in its own partial-success tally.
package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ErrorClass names the classification of an error observed by Do, logged
// alongside each attempt.
type ErrorClass string

const (
	ClassTransient ErrorClass = "transient" // HTTP 429/5xx, timeout, transient network
	ClassPermanent ErrorClass = "permanent" // HTTP 4xx != 429, parse/validation failure
	ClassSuccess   ErrorClass = "success"
)

// Classifier decides whether an error observed from op is retryable and how
// to label it for logging.
type Classifier func(err error) (retryable bool, class ErrorClass)

// Options configures Do.
type Options struct {
	MaxAttempts int           // default 3
	BaseDelay   time.Duration // default 1s, doubles per attempt
	Subject     string        // logged as "stock" (or symbol/source) for attribution
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 1 * time.Second
	}
	return o
}

// Do calls op, retrying per classify until MaxAttempts is exhausted or op
// succeeds or classify reports a non-retryable error. Delays double per
// attempt starting at BaseDelay. Returns the last error observed (nil on
// success) — this is the "final_failure" the caller accounts for, never a
// panic or an out-of-band signal.
func Do(ctx context.Context, log zerolog.Logger, opts Options, classify Classifier, op func(ctx context.Context) error) error {
	opts = opts.withDefaults()

	delay := opts.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		retryable, class := classify(err)
		log.Warn().
			Str("stock", opts.Subject).
			Int("attempt", attempt).
			Str("error_class", string(class)).
			Err(err).
			Msg("call failed")

		if !retryable || attempt == opts.MaxAttempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return lastErr
}
