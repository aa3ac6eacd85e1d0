package token

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultCacheRoundTrip(t *testing.T) {
	rc := newResultCache(time.Minute, 10)

	_, ok := rc.get("tok")
	assert.False(t, ok)

	want := &Verified{}
	rc.put("tok", want)

	got, ok := rc.get("tok")
	assert.True(t, ok)
	assert.Same(t, want, got)
}

func TestResultCacheExpiry(t *testing.T) {
	rc := newResultCache(30*time.Millisecond, 10)
	rc.put("tok", &Verified{})

	time.Sleep(60 * time.Millisecond)

	_, ok := rc.get("tok")
	assert.False(t, ok)
}

func TestResultCacheSweepsOnlyExpired(t *testing.T) {
	rc := newResultCache(40*time.Millisecond, 3)

	rc.put("a", &Verified{})
	rc.put("b", &Verified{})
	rc.put("c", &Verified{})

	time.Sleep(60 * time.Millisecond)

	// At the ceiling with everything expired: the insert sweeps first.
	rc.put("d", &Verified{})
	assert.Equal(t, 1, rc.c.ItemCount())

	_, ok := rc.get("d")
	assert.True(t, ok)
}

func TestResultCacheCeilingDoesNotEvictLive(t *testing.T) {
	rc := newResultCache(time.Minute, 2)

	for i := 0; i < 5; i++ {
		rc.put(fmt.Sprintf("tok-%d", i), &Verified{})
	}

	// Nothing expired, so nothing was swept; the cache may exceed its
	// ceiling rather than drop a live entry.
	for i := 0; i < 5; i++ {
		_, ok := rc.get(fmt.Sprintf("tok-%d", i))
		assert.True(t, ok, "tok-%d", i)
	}
}
