package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

var (
	ErrParsingFailed     = errors.New("failed to parse indicator data")
	ErrInvalidResponse   = errors.New("invalid response from source")
	ErrRateLimited       = errors.New("rate limited by source server")
	ErrSourceUnavailable = errors.New("indicator source unavailable")
	ErrNoDataFound       = errors.New("no indicator data found")
)

// ScrapeError wraps a fetch failure with where and when it happened.
type ScrapeError struct {
	Source    string
	Operation string
	Err       error
	Timestamp time.Time
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("[%s] %s: %v at %s",
		e.Source, e.Operation, e.Err, e.Timestamp.Format(time.RFC3339))
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

func NewScrapeError(source, operation string, err error) *ScrapeError {
	return &ScrapeError{
		Source:    source,
		Operation: operation,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// RetryConfig tunes the exponential backoff between fetch attempts.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// WithRetry runs fn with exponential backoff and jitter, giving up early
// on errors that retrying cannot fix.
func WithRetry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func() error) error {
	var lastErr error
	attempts := 0
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		attempts++
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if logger != nil {
			logger.Warn("scrape attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", cfg.MaxAttempts),
				slog.String("error", err.Error()),
			)
		}

		if !IsRetryableError(err) {
			break
		}

		if attempt < cfg.MaxAttempts {
			jitter := time.Duration(rand.Int63n(int64(delay / 4)))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay + jitter):
			}

			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

// IsRetryableError reports whether another attempt can plausibly succeed.
// Unreachable or throttling sources recover; a page that failed to parse
// parses the same way next time.
func IsRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrRateLimited)
}
