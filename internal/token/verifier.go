// Package token verifies Cognito-issued bearer tokens and resolves the
// platform identity behind them.
//
// Verification is a fixed pipeline that short-circuits on the first failure
// and maps every fault to the closed autherr taxonomy: signature problems
// never look like store outages and vice versa. Successful results are
// cached per raw token for a TTL well below real token lifetimes.
package token

import (
	"context"
	"crypto/rsa"
	"errors"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/guilleojeda/community-content-tracker-sub000/internal/autherr"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/identity"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/jwks"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/metrics"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/observability/logger"
)

const (
	// tokenUseAccess is the only token use the gateway accepts. ID tokens
	// are for the frontend, not for API authorization.
	tokenUseAccess = "access"

	defaultCacheTTL = 5 * time.Minute
	defaultCacheMax = 1000

	clockLeeway = 30 * time.Second
)

// KeyResolver resolves a signing key by kid. Implemented by jwks.Resolver.
type KeyResolver interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Config identifies the issuing pool and the audiences the gateway accepts.
type Config struct {
	UserPoolID string
	Region     string
	Audiences  []string
	Issuer     string
}

func (c Config) complete() bool {
	return c.UserPoolID != "" && c.Region != "" && len(c.Audiences) > 0 && c.Issuer != ""
}

// Verifier validates bearer tokens and resolves identities.
type Verifier struct {
	cfg        Config
	keys       KeyResolver
	identities identity.Lookup
	cache      *resultCache
	custom     []string
}

// Option configures the Verifier.
type Option func(*Verifier)

// WithCache overrides the success-cache TTL and size ceiling.
func WithCache(ttl time.Duration, max int) Option {
	return func(v *Verifier) { v.cache = newResultCache(ttl, max) }
}

// WithCustomClaims whitelists string-valued claims to pass through into
// Claims.Custom. Anything not listed is ignored.
func WithCustomClaims(names ...string) Option {
	return func(v *Verifier) { v.custom = names }
}

// New creates a Verifier. The identity lookup is the external collaborator
// that owns user rows; the key resolver owns the provider's key set.
func New(cfg Config, keys KeyResolver, identities identity.Lookup, opts ...Option) *Verifier {
	v := &Verifier{
		cfg:        cfg,
		keys:       keys,
		identities: identities,
		cache:      newResultCache(defaultCacheTTL, defaultCacheMax),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify runs the full verification pipeline for a raw bearer token. On
// success the result is cached keyed by the exact raw string; failures are
// never cached. The error is always an *autherr.Error.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Verified, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, autherr.ErrAuthRequired.WithDetail("empty bearer token")
	}
	if !v.cfg.complete() {
		// Configuration fault, not a caller fault.
		return nil, autherr.ErrInvalidConfig
	}

	if cached, ok := v.cache.get(raw); ok {
		metrics.TokenCacheHits.Inc()
		return cached, nil
	}
	metrics.TokenCacheMisses.Inc()

	claims, err := v.VerifyClaims(ctx, raw)
	if err != nil {
		return nil, err
	}

	id, err := v.resolveIdentity(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	out := &Verified{Claims: *claims, Identity: *id}

	// A verification that lost the deadline race must not touch shared
	// state: only store while the request is still live.
	if ctx.Err() == nil {
		v.cache.put(raw, out)
	}
	return out, nil
}

// VerifyClaims validates the token itself (signature, issuer, audience,
// expiry, required claims) without resolving the identity. Used by Verify
// and by the check-token CLI.
func (v *Verifier) VerifyClaims(ctx context.Context, raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, autherr.ErrAuthRequired.WithDetail("empty bearer token")
	}
	if !v.cfg.complete() {
		return nil, autherr.ErrInvalidConfig
	}

	kid, err := headerKid(raw)
	if err != nil {
		return nil, autherr.ErrMalformedToken.WithCause(err)
	}

	key, err := v.keys.Key(ctx, kid)
	if err != nil {
		if errors.Is(err, jwks.ErrKeyNotFound) {
			return nil, autherr.ErrMalformedToken.
				WithDetail("token signed by unknown key").WithCause(err)
		}
		// Fetch budget, network, upstream 5xx: the verifier is
		// unavailable, the token is not necessarily bad.
		return nil, autherr.ErrNetwork.WithCause(err)
	}

	tok, err := jwtv5.Parse(raw,
		func(t *jwtv5.Token) (any, error) { return key, nil },
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithIssuer(v.cfg.Issuer),
		jwtv5.WithLeeway(clockLeeway),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, autherr.ErrTokenExpired.WithCause(err)
		}
		return nil, autherr.ErrMalformedToken.WithCause(err)
	}

	m, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return nil, autherr.ErrMalformedToken.WithDetail("unexpected claims shape")
	}

	// Cognito access tokens carry the app client in client_id, not aud.
	aud := claimString(m, "aud")
	if aud == "" {
		aud = claimString(m, "client_id")
	}
	if aud != "" && !contains(v.cfg.Audiences, aud) {
		return nil, autherr.ErrMalformedToken.WithDetail("audience not allowed")
	}

	for _, required := range []string{"sub", "email", "iss"} {
		if claimString(m, required) == "" {
			return nil, autherr.ErrInvalidClaims.WithDetail("missing claim: " + required)
		}
	}
	if aud == "" {
		return nil, autherr.ErrInvalidClaims.WithDetail("missing claim: aud")
	}

	if use := claimString(m, "token_use"); use != tokenUseAccess {
		return nil, autherr.ErrWrongTokenUse.WithDetail("token_use=" + use)
	}

	// Only an explicit false blocks: tokens without the claim pass, the
	// pool may simply not expose it.
	if verified, present := claimBool(m, "email_verified"); present && !verified {
		return nil, autherr.ErrEmailNotVerified
	}

	out := &Claims{
		Subject:       claimString(m, "sub"),
		Username:      usernameClaim(m),
		Email:         claimString(m, "email"),
		EmailVerified: true, // explicit false already rejected above
		Audience:      aud,
		Issuer:        claimString(m, "iss"),
		TokenUse:      tokenUseAccess,
		IssuedAt:      claimTime(m, "iat"),
		ExpiresAt:     claimTime(m, "exp"),
	}
	for _, name := range v.custom {
		if s := claimString(m, name); s != "" {
			if out.Custom == nil {
				out.Custom = make(map[string]string, len(v.custom))
			}
			out.Custom[name] = s
		}
	}
	return out, nil
}

// resolveIdentity maps the subject to a platform user and enriches it with
// badges. Badge failures degrade to an empty list: badges are informational,
// not security-determining.
func (v *Verifier) resolveIdentity(ctx context.Context, subject string) (*identity.Identity, error) {
	id, err := v.identities.FindBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, autherr.ErrIdentityNotFound
		}
		return nil, autherr.ErrIdentityLookup.WithCause(err)
	}

	badges, err := v.identities.FindBadges(ctx, id.ID)
	if err != nil {
		logger.From(ctx).Warn("badge lookup failed, continuing without badges",
			logger.Subject(subject), logger.Err(err))
		badges = nil
	}
	id.Badges = badges
	return id, nil
}

// headerKid decodes the JOSE header (no signature check) to get the kid.
func headerKid(raw string) (string, error) {
	tok, _, err := jwtv5.NewParser().ParseUnverified(raw, jwtv5.MapClaims{})
	if err != nil {
		return "", err
	}
	kid, _ := tok.Header["kid"].(string)
	return kid, nil
}

func claimString(m jwtv5.MapClaims, key string) string {
	s, _ := m[key].(string)
	return s
}

// usernameClaim prefers the Cognito-namespaced username.
func usernameClaim(m jwtv5.MapClaims) string {
	if s := claimString(m, "cognito:username"); s != "" {
		return s
	}
	return claimString(m, "username")
}

// claimBool tolerates both boolean and string encodings of boolean claims.
func claimBool(m jwtv5.MapClaims, key string) (value, present bool) {
	switch v := m[key].(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(v) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func claimTime(m jwtv5.MapClaims, key string) time.Time {
	if f, ok := m[key].(float64); ok {
		return time.Unix(int64(f), 0).UTC()
	}
	return time.Time{}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
