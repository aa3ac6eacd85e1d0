package rate

import (
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 10000

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter is a fixed-window counter held in process memory. State is
// per warm instance: a multi-process deployment counts independently per
// process, which is an accepted tradeoff favoring latency.
type MemoryLimiter struct {
	max        int64
	window     time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]*window

	now func() time.Time
}

// MemoryOption configures the MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithMaxEntries overrides the sweep ceiling of the backing map.
func WithMaxEntries(n int) MemoryOption {
	return func(l *MemoryLimiter) { l.maxEntries = n }
}

// WithClock injects a time source. Tests only.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) { l.now = now }
}

// NewMemoryLimiter creates a limiter allowing max hits per window.
func NewMemoryLimiter(max int, win time.Duration, opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		max:        int64(max),
		window:     win,
		maxEntries: defaultMaxEntries,
		entries:    make(map[string]*window),
		now:        time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

var _ Limiter = (*MemoryLimiter)(nil)

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		// First hit of a fresh window.
		if !ok && len(l.entries) >= l.maxEntries {
			l.sweepLocked(now)
		}
		e = &window{count: 0, resetAt: now.Add(l.window)}
		l.entries[key] = e
	}
	e.count++

	remaining := l.max - e.count
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:       e.count <= l.max,
		Remaining:     remaining,
		WindowResetAt: e.resetAt,
		CurrentHits:   e.count,
	}
	if !res.Allowed {
		res.RetryAfter = e.resetAt.Sub(now)
	}
	return res, nil
}

// sweepLocked drops expired windows only; the entry being checked is always
// re-created after the sweep so an in-flight window is never evicted.
func (l *MemoryLimiter) sweepLocked(now time.Time) {
	for k, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, k)
		}
	}
}

// Len reports the number of tracked windows. Tests only.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
