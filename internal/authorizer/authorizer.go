// Package authorizer turns a bearer credential into an Allow/Deny decision
// with an enriched identity context.
//
// One invocation is one run of a short state machine: ARN validation, token
// extraction, deadline-bounded verification, admin gating, rate limiting,
// risk scoring, policy assembly. Every stage may short-circuit to a Deny
// carrying one kind from the closed autherr taxonomy; nothing escapes the
// orchestrator as a fault, because an unhandled fault must default to
// denial, never to an unauthenticated allow.
package authorizer

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/guilleojeda/community-content-tracker-sub000/internal/autherr"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/identity"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/metrics"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/observability/logger"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/rate"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/risk"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/security"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/token"
)

// Request is one authorization request as seen at the gateway boundary.
type Request struct {
	MethodArn     string
	Authorization string // raw Authorization header value
	SourceIP      string
	UserAgent     string
}

// TokenVerifier is the verification collaborator. Implemented by
// token.Verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*token.Verified, error)
}

const defaultVerifyTimeout = 3 * time.Second

// Authorizer sequences verification, gating and policy assembly.
type Authorizer struct {
	verifier      TokenVerifier
	limiter       rate.Limiter
	scorer        *risk.Scorer
	events        security.Sink
	verifyTimeout time.Duration
	adminPrefix   string
}

// Option configures the Authorizer.
type Option func(*Authorizer)

// WithVerifyTimeout bounds how long token verification may take before the
// request is denied with an internal error.
func WithVerifyTimeout(d time.Duration) Option {
	return func(a *Authorizer) {
		if d > 0 {
			a.verifyTimeout = d
		}
	}
}

// WithAdminPathPrefix sets the path prefix gated to administrators.
func WithAdminPathPrefix(p string) Option {
	return func(a *Authorizer) { a.adminPrefix = p }
}

// New creates an Authorizer. A nil limiter disables rate limiting, a nil
// sink discards events.
func New(verifier TokenVerifier, limiter rate.Limiter, scorer *risk.Scorer, events security.Sink, opts ...Option) *Authorizer {
	a := &Authorizer{
		verifier:      verifier,
		limiter:       limiter,
		scorer:        scorer,
		events:        events,
		verifyTimeout: defaultVerifyTimeout,
		adminPrefix:   "/admin",
	}
	if a.events == nil {
		a.events = security.Discard{}
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Authorize runs the full decision state machine. It never returns an
// error and never panics: unexpected faults become Deny(INTERNAL_ERROR).
func (a *Authorizer) Authorize(ctx context.Context, req Request) (dec Decision) {
	log := logger.From(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic recovered in authorizer",
				logger.Op("authorize"), logger.Any("panic", rec))
			a.events.Emit(security.Event{
				Kind:      security.EventInternalError,
				SourceIP:  req.SourceIP,
				UserAgent: req.UserAgent,
				Resource:  req.MethodArn,
				Detail:    "panic during authorization",
			})
			dec = a.deny(req.MethodArn, nil, autherr.ErrInternal, nil)
		}
	}()

	// ARN validation.
	arn, err := ParseMethodArn(req.MethodArn)
	if err != nil {
		a.events.Emit(security.Event{
			Kind:     security.EventInternalError,
			SourceIP: req.SourceIP,
			Resource: req.MethodArn,
			Detail:   "malformed method arn",
		})
		return a.deny(req.MethodArn, nil, autherr.ErrInternal.WithDetail("malformed method arn"), nil)
	}

	// Token extraction.
	raw, ok := bearerToken(req.Authorization)
	if !ok {
		return a.deny(req.MethodArn, arn, autherr.ErrAuthRequired, nil)
	}

	// Deadline-bounded verification.
	start := time.Now()
	verified, verr := a.verifyWithDeadline(ctx, raw)
	metrics.VerifyDuration.Observe(time.Since(start).Seconds())
	if verr != nil {
		a.events.Emit(security.Event{
			Kind:      security.EventAuthFailure,
			SourceIP:  req.SourceIP,
			UserAgent: req.UserAgent,
			Resource:  arn.Path,
			Detail:    verr.Error(),
		})
		return a.deny(req.MethodArn, arn, verr, nil)
	}

	id := verified.Identity
	claims := verified.Claims

	// Admin gate.
	if a.isAdminPath(arn.Path) && !id.IsAdmin {
		a.events.Emit(security.Event{
			Kind:      security.EventUnauthorizedAccess,
			Subject:   claims.Subject,
			SourceIP:  req.SourceIP,
			UserAgent: req.UserAgent,
			Resource:  arn.Path,
			Detail:    "non-admin user on admin resource",
		})
		return a.deny(req.MethodArn, arn, autherr.ErrPermissionDenied, nil)
	}

	// Rate limit, keyed by subject. Limiter faults fail open by policy.
	var remaining int64 = -1
	if a.limiter != nil {
		res, err := a.limiter.Allow(ctx, claims.Subject)
		if err != nil {
			// fail open - allow request if rate limiting fails
			log.Warn("rate limiter fault, failing open",
				logger.Subject(claims.Subject), logger.Err(err))
		} else {
			remaining = res.Remaining
			if !res.Allowed {
				metrics.RateLimitedTotal.Inc()
				a.events.Emit(security.Event{
					Kind:      security.EventRateLimitExceeded,
					Subject:   claims.Subject,
					SourceIP:  req.SourceIP,
					UserAgent: req.UserAgent,
					Resource:  arn.Path,
					Detail:    "window resets at " + res.WindowResetAt.UTC().Format(time.RFC3339),
				})
				return a.deny(req.MethodArn, arn, autherr.ErrRateLimited,
					map[string]string{"rateLimitRemaining": "0"})
			}
		}
	}

	// Risk scoring. High risk denies even a fully valid token; low and
	// medium are logged only.
	if a.scorer != nil {
		assessment := a.scorer.Score(claims.Subject, req.SourceIP, req.UserAgent, arn.Path)
		if assessment.Level == risk.LevelHigh {
			a.events.Emit(security.Event{
				Kind:      security.EventSuspiciousActivity,
				Subject:   claims.Subject,
				SourceIP:  req.SourceIP,
				UserAgent: req.UserAgent,
				Resource:  arn.Path,
				Detail:    strings.Join(assessment.Reasons, ","),
			})
			return a.deny(req.MethodArn, arn, autherr.ErrPermissionDenied.
				WithDetail("request flagged as high risk"), nil)
		}
		if assessment.Suspicious {
			log.Info("suspicious request allowed",
				logger.Subject(claims.Subject),
				logger.Resource(arn.Path),
				logger.Any("reasons", assessment.Reasons),
				logger.Any("risk", assessment.Level))
		}
	}

	if id.IsAdmin {
		a.events.Emit(security.Event{
			Kind:      security.EventAdminAccess,
			Subject:   claims.Subject,
			SourceIP:  req.SourceIP,
			UserAgent: req.UserAgent,
			Resource:  arn.Path,
		})
	}

	dec = Decision{
		PrincipalID: id.ID,
		Policy:      newPolicy(EffectAllow, arn.WildcardResource()),
		Context:     allowContext(claims, id, remaining),
	}
	metrics.DecisionsTotal.WithLabelValues(string(EffectAllow), "").Inc()
	log.Info("authorization decided",
		logger.Decision(string(EffectAllow)),
		logger.Subject(claims.Subject),
		logger.Resource(arn.Path))
	return dec
}

// verifyWithDeadline races verification against the configured timeout. The
// losing branch is discarded; the verifier itself refuses to write its
// cache once the context is done.
func (a *Authorizer) verifyWithDeadline(ctx context.Context, raw string) (*token.Verified, *autherr.Error) {
	vctx, cancel := context.WithTimeout(ctx, a.verifyTimeout)
	defer cancel()

	type outcome struct {
		v   *token.Verified
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- outcome{err: autherr.ErrInternal.WithDetail("panic during verification")}
			}
		}()
		v, err := a.verifier.Verify(vctx, raw)
		ch <- outcome{v: v, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return nil, autherr.FromError(o.err)
		}
		return o.v, nil
	case <-vctx.Done():
		if errors.Is(vctx.Err(), context.DeadlineExceeded) {
			return nil, autherr.ErrInternal.WithDetail("token verification timed out")
		}
		return nil, autherr.ErrInternal.WithCause(vctx.Err())
	}
}

func (a *Authorizer) isAdminPath(path string) bool {
	return a.adminPrefix != "" && strings.HasPrefix(path, a.adminPrefix)
}

// deny assembles a Deny decision. With a parsed ARN the policy is scoped to
// the caller's wildcard resource group; otherwise it names the raw input.
func (a *Authorizer) deny(rawArn string, arn *MethodArn, e *autherr.Error, extra map[string]string) Decision {
	resource := rawArn
	if arn != nil {
		resource = arn.WildcardResource()
	}
	ctxMap := map[string]string{
		"error":   string(e.Kind),
		"message": e.Message,
	}
	for k, v := range extra {
		ctxMap[k] = v
	}
	metrics.DecisionsTotal.WithLabelValues(string(EffectDeny), string(e.Kind)).Inc()
	return Decision{
		PrincipalID: UnauthorizedPrincipal,
		Policy:      newPolicy(EffectDeny, resource),
		Context:     ctxMap,
	}
}

// allowContext flattens identity fields into the string-only context map.
func allowContext(claims token.Claims, id identity.Identity, remaining int64) map[string]string {
	badges := id.Badges
	if badges == nil {
		badges = []identity.Badge{}
	}
	ctxMap := map[string]string{
		"userId":        id.ID,
		"username":      id.Username,
		"email":         id.Email,
		"isAdmin":       strconv.FormatBool(id.IsAdmin),
		"isAwsEmployee": strconv.FormatBool(id.IsAwsEmployee),
		"badges":        marshalBadges(badges),
	}
	if remaining >= 0 {
		ctxMap["rateLimitRemaining"] = formatRemaining(remaining)
	}
	for k, v := range claims.Custom {
		ctxMap[k] = v
	}
	return ctxMap
}

// bearerToken extracts the credential from an Authorization header value.
// Anything that is not exactly "Bearer <token>" is treated as absent.
func bearerToken(header string) (string, bool) {
	h := strings.TrimSpace(header)
	if h == "" {
		return "", false
	}
	i := strings.IndexByte(h, ' ')
	if i <= 0 || !strings.EqualFold(h[:i], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(h[i+1:])
	return tok, tok != ""
}

func marshalBadges(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func formatRemaining(remaining int64) string {
	return strconv.FormatInt(remaining, 10)
}
