// Package ratelimit paces calls to the Google Sheets API and backs off when
// the API pushes back.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

// Config holds limiter settings
type Config struct {
	// APIDelay is the minimum spacing between calls
	APIDelay          time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration
	// MaxAttempts bounds the tries of a single call, the first one included
	MaxAttempts int
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		APIDelay:          200 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxDelay:          30 * time.Second,
		MaxAttempts:       5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.APIDelay <= 0 {
		c.APIDelay = d.APIDelay
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = d.BackoffMultiplier
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	return c
}

// Limiter spaces calls out and slows down after throttling responses. It is
// safe for concurrent use.
type Limiter struct {
	limiter *rate.Limiter
	cfg     Config

	mu       sync.Mutex
	failures int
	delay    time.Duration
}

// New creates a limiter. Zero fields of cfg take their default.
func New(cfg Config) *Limiter {
	cfg = cfg.withDefaults()
	return &Limiter{
		limiter: rate.NewLimiter(every(cfg.APIDelay), 1),
		cfg:     cfg,
		delay:   cfg.APIDelay,
	}
}

func every(d time.Duration) rate.Limit {
	return rate.Limit(float64(time.Second) / float64(d))
}

// Config returns the effective settings
func (l *Limiter) Config() Config {
	return l.cfg
}

// Wait blocks until the next call is allowed
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Retryable reports whether err is a throttling or transient server error
// from the API
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota exceeded")
}

// backoff records a throttled call and returns how long to wait before the
// next try, and whether another try is allowed
func (l *Limiter) backoff(err error) (time.Duration, bool) {
	if !Retryable(err) {
		return 0, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures++
	wait := time.Duration(math.Min(
		float64(l.cfg.APIDelay)*math.Pow(l.cfg.BackoffMultiplier, float64(l.failures)),
		float64(l.cfg.MaxDelay),
	))
	if wait > l.delay {
		l.delay = wait
		l.limiter.SetLimit(every(wait))
	}
	return wait, l.failures < l.cfg.MaxAttempts
}

// reset restores the configured pace after a successful call
func (l *Limiter) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failures == 0 {
		return
	}
	l.failures = 0
	l.delay = l.cfg.APIDelay
	l.limiter.SetLimit(every(l.cfg.APIDelay))
}

// Do runs fn under the limiter, retrying throttled calls with exponential
// backoff. Any other error is returned as is.
func (l *Limiter) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= l.cfg.MaxAttempts; attempt++ {
		if werr := l.Wait(ctx); werr != nil {
			return fmt.Errorf("%s: waiting for rate limiter: %w", op, werr)
		}

		if err = fn(ctx); err == nil {
			l.reset()
			return nil
		}

		if !Retryable(err) {
			return err
		}
		wait, again := l.backoff(err)
		if !again || attempt == l.cfg.MaxAttempts {
			break
		}

		slog.Warn("Sheets API throttled, backing off", "op", op, "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s: gave up after %d attempts: %w", op, l.cfg.MaxAttempts, err)
}
