// Package jwks resolves the identity provider's public signing keys by kid.
//
// Keys are fetched from the pool's JWKS discovery endpoint (RFC 7517) and
// cached in-process with a short TTL. Fetches are capped per window so a
// storm of unknown-kid tokens cannot hammer the provider's discovery
// endpoint: once the budget is spent, lookups fail instead of bypassing the
// ceiling.
package jwks

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/guilleojeda/community-content-tracker-sub000/internal/metrics"
)

// ErrKeyNotFound means the key set was fetched but contains no such kid.
var ErrKeyNotFound = errors.New("jwks: key not found")

// ErrFetchBudget means the upstream fetch ceiling for the current window is
// spent. Treated like an upstream availability failure by callers.
var ErrFetchBudget = errors.New("jwks: fetch budget exceeded")

// FetchError wraps any network/decoding failure while retrieving the key
// set, so callers can distinguish "bad token" from "verifier unavailable".
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("jwks: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err means the key set could not be reached
// (as opposed to a present key set without the requested kid).
func IsUnavailable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) || errors.Is(err, ErrFetchBudget)
}

const (
	defaultTTL         = 10 * time.Minute
	defaultMaxKeys     = 5
	defaultFetchMax    = 10
	defaultFetchWindow = time.Minute
)

type cacheEntry struct {
	key *rsa.PublicKey
	exp time.Time
}

// Resolver fetches and caches RSA signing keys by kid.
type Resolver struct {
	url        string
	httpClient *http.Client
	ttl        time.Duration
	maxKeys    int

	fetchMax    int
	fetchWindow time.Duration

	mu          sync.RWMutex
	keys        map[string]cacheEntry
	fetches     int
	windowStart time.Time

	group singleflight.Group
	now   func() time.Time
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithHTTPClient sets a custom HTTP client for fetching the key set.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.httpClient = c }
}

// WithTTL sets how long a resolved key stays cached.
func WithTTL(d time.Duration) Option {
	return func(r *Resolver) { r.ttl = d }
}

// WithMaxKeys bounds the cache size.
func WithMaxKeys(n int) Option {
	return func(r *Resolver) { r.maxKeys = n }
}

// WithFetchBudget caps upstream fetches per window.
func WithFetchBudget(max int, window time.Duration) Option {
	return func(r *Resolver) {
		r.fetchMax = max
		r.fetchWindow = window
	}
}

// WithClock injects a time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver for a JWKS URL.
func NewResolver(url string, opts ...Option) *Resolver {
	r := &Resolver{
		url:         url,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		ttl:         defaultTTL,
		maxKeys:     defaultMaxKeys,
		fetchMax:    defaultFetchMax,
		fetchWindow: defaultFetchWindow,
		keys:        make(map[string]cacheEntry),
		now:         time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Key returns the public key for the given kid, fetching the key set on a
// cache miss. Idempotent; the only side effect is the cache itself.
func (r *Resolver) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := r.now()

	r.mu.RLock()
	if e, ok := r.keys[kid]; ok && now.Before(e.exp) {
		r.mu.RUnlock()
		return e.key, nil
	}
	r.mu.RUnlock()

	// Collapse concurrent misses into one upstream fetch.
	_, err, _ := r.group.Do("fetch", func() (any, error) {
		return nil, r.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.keys[kid]; ok && r.now().Before(e.exp) {
		return e.key, nil
	}
	return nil, ErrKeyNotFound
}

// refresh fetches the key set and replaces the cache, charging one unit of
// the per-window fetch budget.
func (r *Resolver) refresh(ctx context.Context) error {
	now := r.now()

	r.mu.Lock()
	if now.Sub(r.windowStart) >= r.fetchWindow {
		r.windowStart = now
		r.fetches = 0
	}
	if r.fetches >= r.fetchMax {
		r.mu.Unlock()
		metrics.JWKSFetchesTotal.WithLabelValues("budget").Inc()
		return ErrFetchBudget
	}
	r.fetches++
	r.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return &FetchError{URL: r.url, Err: err}
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		metrics.JWKSFetchesTotal.WithLabelValues("error").Inc()
		return &FetchError{URL: r.url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.JWKSFetchesTotal.WithLabelValues("error").Inc()
		return &FetchError{URL: r.url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var set keySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		metrics.JWKSFetchesTotal.WithLabelValues("error").Inc()
		return &FetchError{URL: r.url, Err: err}
	}

	exp := r.now().Add(r.ttl)
	fresh := make(map[string]cacheEntry, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			continue // skip malformed entries
		}
		fresh[k.Kid] = cacheEntry{key: pub, exp: exp}
		if len(fresh) >= r.maxKeys {
			break
		}
	}
	if len(fresh) == 0 {
		return &FetchError{URL: r.url, Err: errors.New("no usable RSA signing keys")}
	}

	r.mu.Lock()
	r.keys = fresh
	r.mu.Unlock()
	metrics.JWKSFetchesTotal.WithLabelValues("ok").Inc()
	return nil
}

// JWKS JSON types

type keySet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k *jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}
