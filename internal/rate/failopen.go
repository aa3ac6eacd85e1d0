package rate

import (
	"context"
	"time"

	"github.com/guilleojeda/community-content-tracker-sub000/internal/observability/logger"
)

// FailOpen wraps a Limiter so internal faults allow the request instead of
// denying it. Availability of the protected API takes priority over strict
// enforcement: risk scoring and authorization still apply downstream.
type FailOpen struct {
	Inner Limiter
	// OpenRemaining is the generous remaining count reported when the
	// inner limiter fails.
	OpenRemaining int64
}

func NewFailOpen(inner Limiter, openRemaining int64) *FailOpen {
	if openRemaining <= 0 {
		openRemaining = 100
	}
	return &FailOpen{Inner: inner, OpenRemaining: openRemaining}
}

var _ Limiter = (*FailOpen)(nil)

func (f *FailOpen) Allow(ctx context.Context, key string) (Result, error) {
	res, err := f.Inner.Allow(ctx, key)
	if err != nil {
		// fail open - allow request if rate limiting fails
		logger.From(ctx).Warn("rate limiter fault, failing open",
			logger.Op("rate.allow"), logger.Err(err))
		return Result{
			Allowed:       true,
			Remaining:     f.OpenRemaining,
			WindowResetAt: time.Now().Add(time.Minute),
		}, nil
	}
	return res, nil
}
