package token

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// resultCache holds successful verifications keyed by the exact raw token.
// Invalid results are never stored so a corrected retry is never masked by a
// stale failure. Eviction is opportunistic: when the cache grows past its
// ceiling, a sweep drops expired entries only.
type resultCache struct {
	c   *gocache.Cache
	max int
}

func newResultCache(ttl time.Duration, max int) *resultCache {
	// No janitor goroutine: sweeps happen inline on insert pressure.
	return &resultCache{c: gocache.New(ttl, 0), max: max}
}

func (rc *resultCache) get(raw string) (*Verified, bool) {
	v, ok := rc.c.Get(raw)
	if !ok {
		return nil, false
	}
	out, ok := v.(*Verified)
	return out, ok
}

func (rc *resultCache) put(raw string, v *Verified) {
	if rc.c.ItemCount() >= rc.max {
		rc.c.DeleteExpired()
	}
	rc.c.SetDefault(raw, v)
}
