// Package rate implements per-subject fixed-window request limiting.
//
// Two backends share one interface: an in-process map (per warm instance,
// best effort) and Redis INCR+EXPIRE for cluster-wide accounting. Callers
// that must not fail closed wrap either in FailOpen.
package rate

import (
	"context"
	"time"
)

// Result is the outcome of one limiter check.
type Result struct {
	Allowed       bool
	Remaining     int64
	RetryAfter    time.Duration
	WindowResetAt time.Time
	CurrentHits   int64
}

// Limiter counts a hit for key and reports whether it is within the window
// ceiling. Counting and checking are one operation: every call is a hit.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
