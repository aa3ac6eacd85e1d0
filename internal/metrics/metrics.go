// Package metrics exposes the gateway's Prometheus collectors.
//
// Collectors are package-level so the hot path can increment them without
// carrying a registry around; Handler() performs the one-time registration
// and returns the /metrics handler.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Authorization decisions by effect and error kind",
	}, []string{"effect", "error_kind"})

	VerifyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "authz_verify_duration_seconds",
		Help:    "Token verification latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	TokenCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authz_token_cache_hits_total",
		Help: "Verified-token cache hits",
	})

	TokenCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authz_token_cache_misses_total",
		Help: "Verified-token cache misses",
	})

	JWKSFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_jwks_fetches_total",
		Help: "Key set fetches from the identity provider by result",
	}, []string{"result"}) // ok | error | budget

	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authz_rate_limited_total",
		Help: "Requests denied by the per-subject rate limiter",
	})

	SecurityEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_security_events_total",
		Help: "Security events emitted by kind",
	}, []string{"kind"})
)

var (
	registerOnce sync.Once
	registerErr  error
)

// Handler registers all collectors (first call only) and returns the
// /metrics handler. A nil registerer uses the default one.
func Handler(reg prometheus.Registerer) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	registerOnce.Do(func() {
		for _, c := range []prometheus.Collector{
			DecisionsTotal,
			VerifyDuration,
			TokenCacheHits,
			TokenCacheMisses,
			JWKSFetchesTotal,
			RateLimitedTotal,
			SecurityEventsTotal,
		} {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
					continue
				}
				registerErr = err
				return
			}
		}
	})
	if registerErr != nil {
		return nil, registerErr
	}
	return promhttp.Handler(), nil
}
