package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterCeiling(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "sub-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d should be allowed", i)
		assert.Equal(t, int64(3-i), res.Remaining)
		assert.Equal(t, int64(i), res.CurrentHits)
	}

	res, err := l.Allow(ctx, "sub-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	res, _ := l.Allow(ctx, "a")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, "a")
	assert.False(t, res.Allowed)

	res, _ = l.Allow(ctx, "b")
	assert.True(t, res.Allowed, "a separate subject has its own window")
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	l := NewMemoryLimiter(1, time.Minute, WithClock(func() time.Time { return clock() }))
	ctx := context.Background()

	res, _ := l.Allow(ctx, "sub")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, "sub")
	assert.False(t, res.Allowed)

	now = now.Add(61 * time.Second)

	res, _ = l.Allow(ctx, "sub")
	assert.True(t, res.Allowed, "an elapsed window starts fresh")
	assert.Equal(t, int64(1), res.CurrentHits)
}

func TestMemoryLimiterSweepsExpiredAtCeiling(t *testing.T) {
	now := time.Now()
	l := NewMemoryLimiter(10, time.Minute,
		WithMaxEntries(3),
		WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, _ = l.Allow(ctx, "k1")
	_, _ = l.Allow(ctx, "k2")
	_, _ = l.Allow(ctx, "k3")
	require.Equal(t, 3, l.Len())

	// All three windows expire; the next new key triggers the sweep.
	now = now.Add(2 * time.Minute)
	res, err := l.Allow(ctx, "k4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, l.Len(), "expired windows are dropped, only k4 remains")
}

func TestMemoryLimiterSweepKeepsLiveWindows(t *testing.T) {
	now := time.Now()
	l := NewMemoryLimiter(10, time.Minute,
		WithMaxEntries(2),
		WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, _ = l.Allow(ctx, "old")
	now = now.Add(30 * time.Second)
	_, _ = l.Allow(ctx, "live")

	// "old" is 30s into its window and still live; the sweep must not evict it.
	now = now.Add(20 * time.Second)
	_, _ = l.Allow(ctx, "new")
	assert.Equal(t, 3, l.Len(), "live windows survive the sweep")
}
