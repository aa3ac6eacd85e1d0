package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type faultyLimiter struct {
	err   error
	calls int
}

func (f *faultyLimiter) Allow(ctx context.Context, key string) (Result, error) {
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	return Result{Allowed: false, Remaining: 0}, nil
}

func TestFailOpenOnFault(t *testing.T) {
	inner := &faultyLimiter{err: errors.New("redis: connection refused")}
	f := NewFailOpen(inner, 50)

	res, err := f.Allow(context.Background(), "sub")
	require.NoError(t, err, "faults are swallowed")
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(50), res.Remaining)
	assert.Equal(t, 1, inner.calls)
}

func TestFailOpenPassesThroughDenials(t *testing.T) {
	inner := &faultyLimiter{}
	f := NewFailOpen(inner, 50)

	res, err := f.Allow(context.Background(), "sub")
	require.NoError(t, err)
	assert.False(t, res.Allowed, "a clean denial is not a fault")
}

func TestFailOpenPassesThroughAllows(t *testing.T) {
	real := NewMemoryLimiter(5, time.Minute)
	f := NewFailOpen(real, 50)

	res, err := f.Allow(context.Background(), "sub")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(4), res.Remaining)
}

func TestFailOpenDefaultRemaining(t *testing.T) {
	f := NewFailOpen(&faultyLimiter{err: errors.New("down")}, 0)
	res, _ := f.Allow(context.Background(), "sub")
	assert.Equal(t, int64(100), res.Remaining)
}
