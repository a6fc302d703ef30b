// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package ratelimit

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Limiter tracks a provider's remaining request budget and blocks callers
// once it is spent, until the provider's advertised reset time.
type Limiter struct {
	mu         sync.Mutex
	limit      int
	remaining  int
	resetTime  time.Time
	retryAfter time.Duration
}

// NewLimiter creates a limiter assuming limit requests per hour. A
// non-positive limit falls back to GitHub's authenticated default.
func NewLimiter(limit int) *Limiter {
	if limit <= 0 {
		limit = 5000
	}
	return &Limiter{
		limit:     limit,
		remaining: limit,
		resetTime: time.Now().Add(1 * time.Hour),
	}
}

// Wait blocks until the next request is allowed: first through any pending
// Retry-After window, then until the budget resets if it is exhausted.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()

	if l.retryAfter > 0 {
		waitDuration := l.retryAfter
		l.retryAfter = 0
		l.mu.Unlock()

		if err := sleep(ctx, waitDuration); err != nil {
			return err
		}

		l.mu.Lock()
	}

	if l.remaining <= 0 && time.Now().Before(l.resetTime) {
		waitDuration := time.Until(l.resetTime)
		l.mu.Unlock()

		if err := sleep(ctx, waitDuration); err != nil {
			return err
		}

		l.mu.Lock()
	}

	l.remaining--
	l.mu.Unlock()

	return nil
}

// UpdateFromHeaders refreshes the budget from a provider response.
// GitHub's X-RateLimit-* headers and GitLab's RateLimit-* headers are both
// understood; Retry-After applies to either.
func (l *Limiter) UpdateFromHeaders(resp *http.Response) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, prefix := range []string{"X-RateLimit-", "RateLimit-"} {
		if remaining := resp.Header.Get(prefix + "Remaining"); remaining != "" {
			if r, err := strconv.Atoi(remaining); err == nil {
				l.remaining = r
			}
		}
		if limit := resp.Header.Get(prefix + "Limit"); limit != "" {
			if lim, err := strconv.Atoi(limit); err == nil {
				l.limit = lim
			}
		}
		if reset := resp.Header.Get(prefix + "Reset"); reset != "" {
			if r, err := strconv.ParseInt(reset, 10, 64); err == nil {
				l.resetTime = time.Unix(r, 0)
			}
		}
	}

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			l.retryAfter = time.Duration(seconds) * time.Second
		}
	}
}

// SetRetryAfter forces the next Wait to pause for duration first.
func (l *Limiter) SetRetryAfter(duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.retryAfter = duration
}

// Status returns the remaining budget, the full limit, and when the
// budget resets.
func (l *Limiter) Status() (remaining, limit int, resetTime time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining, l.limit, l.resetTime
}

// CalculateBackoff returns the pause before retry number attempt:
// exponential from one second, capped at a minute, with 10% jitter.
func CalculateBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 60*time.Second {
		backoff = 60 * time.Second
	}

	jitter := time.Duration(rand.Float64() * float64(backoff) * 0.1)

	return backoff + jitter
}

func sleep(ctx context.Context, duration time.Duration) error {
	select {
	case <-time.After(duration):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
