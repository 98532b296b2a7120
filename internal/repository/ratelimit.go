package repository

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// authenticatedQuota is GitHub's hourly quota for token auth.
	authenticatedQuota = 5000
	// throttleRate is the proactive request rate (req/sec).
	throttleRate = 1.2
	// quotaBuffer is the remaining-request floor below which calls wait
	// for the quota window to reset.
	quotaBuffer = 50

	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateLimit     = "X-RateLimit-Limit"
	headerRateReset     = "X-RateLimit-Reset"
)

// rateLimiter throttles GitHub API calls proactively with a token bucket
// and reactively from the rate-limit response headers.
type rateLimiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetAt   time.Time
	bucket    *rate.Limiter
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		remaining: authenticatedQuota,
		limit:     authenticatedQuota,
		bucket:    rate.NewLimiter(rate.Limit(throttleRate), 1),
	}
}

// wait blocks until the next request may be sent.
func (r *rateLimiter) wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining := r.remaining
	resetAt := r.resetAt
	r.mu.Unlock()

	if remaining < quotaBuffer && time.Now().Before(resetAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(resetAt)):
		}
	}
	return nil
}

// update refreshes quota state from GitHub response headers.
func (r *rateLimiter) update(resp *http.Response) {
	if resp == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if v := resp.Header.Get(headerRateRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.remaining = n
		}
	}
	if v := resp.Header.Get(headerRateLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.limit = n
		}
	}
	if v := resp.Header.Get(headerRateReset); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			r.resetAt = time.Unix(sec, 0)
		}
	}
}
