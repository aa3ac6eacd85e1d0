package token

import (
	"time"

	"github.com/guilleojeda/community-content-tracker-sub000/internal/identity"
)

// Claims are the validated assertions extracted from a verified token.
// Produced only on successful verification and never mutated afterwards.
type Claims struct {
	Subject       string
	Username      string
	Email         string
	EmailVerified bool
	Audience      string
	Issuer        string
	TokenUse      string // "access" | "id"
	IssuedAt      time.Time
	ExpiresAt     time.Time

	// Custom carries whitelisted passthrough attributes (string-valued
	// claims only). Unrecognized claim shapes are dropped, not propagated.
	Custom map[string]string
}

// Verified pairs the claims with the resolved platform identity. The
// identity is a request-scoped read-only copy.
type Verified struct {
	Claims   Claims
	Identity identity.Identity
}
