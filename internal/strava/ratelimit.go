package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limits is the request budget of a RateLimiter
type Limits struct {
	FifteenMinute int // requests per quarter hour
	Daily         int // requests per UTC day
	MinInterval   time.Duration
}

// DefaultLimits are Strava's default application limits
func DefaultLimits() Limits {
	return Limits{FifteenMinute: 100, Daily: 1000, MinInterval: 150 * time.Millisecond}
}

// window counts requests until resetsAt
type window struct {
	limit    int
	usage    int
	resetsAt time.Time
	next     func(time.Time) time.Time
}

func newWindow(limit int, now time.Time, next func(time.Time) time.Time) window {
	return window{limit: limit, resetsAt: next(now), next: next}
}

func (w *window) roll(now time.Time) {
	if !now.Before(w.resetsAt) {
		w.usage = 0
		w.resetsAt = w.next(now)
	}
}

func (w *window) exhausted() bool {
	return w.usage >= w.limit
}

// Strava resets the short window on the quarter hour and the daily one at
// midnight UTC
func nextQuarterHour(now time.Time) time.Time {
	return now.Truncate(15 * time.Minute).Add(15 * time.Minute)
}

func nextUTCMidnight(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}

// RateLimiter keeps sync within the Strava request budget. It is safe for
// concurrent use.
type RateLimiter struct {
	mu sync.Mutex

	short window
	daily window

	minInterval time.Duration
	lastRequest time.Time

	now func() time.Time
}

// NewRateLimiter creates a limiter. Non-positive window limits fall back to
// DefaultLimits.
func NewRateLimiter(l Limits) *RateLimiter {
	def := DefaultLimits()
	if l.FifteenMinute <= 0 {
		l.FifteenMinute = def.FifteenMinute
	}
	if l.Daily <= 0 {
		l.Daily = def.Daily
	}
	if l.MinInterval < 0 {
		l.MinInterval = 0
	}

	now := time.Now()
	return &RateLimiter{
		short:       newWindow(l.FifteenMinute, now, nextQuarterHour),
		daily:       newWindow(l.Daily, now, nextUTCMidnight),
		minInterval: l.MinInterval,
		now:         time.Now,
	}
}

// Wait blocks until a request fits both windows and the minimum spacing,
// then counts it
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		now := r.now()
		r.short.roll(now)
		r.daily.roll(now)

		delay := r.delay(now)
		if delay <= 0 {
			break
		}
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	r.short.usage++
	r.daily.usage++
	r.lastRequest = r.now()
	return nil
}

// delay is how long the next request has to wait. Called with r.mu held.
func (r *RateLimiter) delay(now time.Time) time.Duration {
	var d time.Duration
	if r.daily.exhausted() {
		d = max(d, r.daily.resetsAt.Sub(now))
	}
	if r.short.exhausted() {
		d = max(d, r.short.resetsAt.Sub(now))
	}
	if d == 0 && !r.lastRequest.IsZero() {
		d = r.minInterval - now.Sub(r.lastRequest)
	}
	return d
}

// sleep waits with r.mu released
func (r *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Unlock()
	defer r.mu.Lock()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateFromHeaders syncs the windows with Strava's own accounting.
// Activity listing is a read, so the read limits win when Strava sends both.
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// e.g. X-ReadRateLimit-Limit: "100,1000", X-ReadRateLimit-Usage: "34,512"
	if short, daily, ok := headerPair(h, "X-ReadRateLimit-Usage", "X-RateLimit-Usage"); ok {
		setIfParsed(&r.short.usage, short)
		setIfParsed(&r.daily.usage, daily)
	}
	if short, daily, ok := headerPair(h, "X-ReadRateLimit-Limit", "X-RateLimit-Limit"); ok {
		setIfParsed(&r.short.limit, short)
		setIfParsed(&r.daily.limit, daily)
	}
}

// headerPair returns the two comma separated fields of the first header present
func headerPair(h http.Header, names ...string) (string, string, bool) {
	for _, name := range names {
		v := h.Get(name)
		if v == "" {
			continue
		}
		first, second, ok := strings.Cut(v, ",")
		if !ok {
			return "", "", false
		}
		return strings.TrimSpace(first), strings.TrimSpace(second), true
	}
	return "", "", false
}

func setIfParsed(dst *int, s string) {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		*dst = n
	}
}

// Status returns the requests left in each window
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.limit - r.short.usage, r.daily.limit - r.daily.usage
}

// Usage returns the requests counted in each window
func (r *RateLimiter) Usage() (shortUsage, dailyUsage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.usage, r.daily.usage
}
