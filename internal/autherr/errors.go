// Package autherr defines the closed denial taxonomy of the authorization
// gateway. Every collaborator fault is converted into one of these kinds at
// the nearest boundary; nothing else crosses the orchestrator.
package autherr

import "fmt"

// Kind is the closed set of denial reasons carried in the decision context.
type Kind string

const (
	KindAuthRequired        Kind = "AUTH_REQUIRED"
	KindAuthInvalid         Kind = "AUTH_INVALID"
	KindTokenExpired        Kind = "TOKEN_EXPIRED"
	KindMalformedToken      Kind = "MALFORMED_TOKEN"
	KindInvalidClaims       Kind = "INVALID_CLAIMS"
	KindWrongTokenUse       Kind = "WRONG_TOKEN_USE"
	KindEmailNotVerified    Kind = "EMAIL_NOT_VERIFIED"
	KindIdentityNotFound    Kind = "IDENTITY_NOT_FOUND"
	KindIdentityLookupError Kind = "IDENTITY_LOOKUP_ERROR"
	KindInvalidConfig       Kind = "INVALID_CONFIG"
	KindNetworkError        Kind = "NETWORK_ERROR"
	KindPermissionDenied    Kind = "PERMISSION_DENIED"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindInternalError       Kind = "INTERNAL_ERROR"
)

// Error is the standard application error. Message is safe for callers;
// Detail adds context that is still caller-visible; Err is the server-side
// cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap exposes the original cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// WithDetail returns a copy with extra caller-visible detail; the shared
// base values stay untouched.
func (e *Error) WithDetail(detail string) *Error {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithCause returns a copy carrying the original error for server-side logs.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// New creates an Error of a given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the Kind from any error, mapping unexpected faults to
// INTERNAL_ERROR so an unclassified failure can never widen access.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternalError
}

// FromError normalizes any error into *Error.
func FromError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return ErrInternal.WithCause(err)
}

// Predefined errors, one per kind.
var (
	ErrAuthRequired = &Error{
		Kind:    KindAuthRequired,
		Message: "authorization token is required",
	}
	ErrAuthInvalid = &Error{
		Kind:    KindAuthInvalid,
		Message: "authorization token is invalid",
	}
	ErrTokenExpired = &Error{
		Kind:    KindTokenExpired,
		Message: "token has expired",
	}
	ErrMalformedToken = &Error{
		Kind:    KindMalformedToken,
		Message: "token is malformed or its signature is invalid",
	}
	ErrInvalidClaims = &Error{
		Kind:    KindInvalidClaims,
		Message: "token is missing required claims",
	}
	ErrWrongTokenUse = &Error{
		Kind:    KindWrongTokenUse,
		Message: "token is not an access token",
	}
	ErrEmailNotVerified = &Error{
		Kind:    KindEmailNotVerified,
		Message: "email address is not verified",
	}
	ErrIdentityNotFound = &Error{
		Kind:    KindIdentityNotFound,
		Message: "no user found for token subject",
	}
	ErrIdentityLookup = &Error{
		Kind:    KindIdentityLookupError,
		Message: "user lookup failed",
	}
	ErrInvalidConfig = &Error{
		Kind:    KindInvalidConfig,
		Message: "authorizer configuration is incomplete",
	}
	ErrNetwork = &Error{
		Kind:    KindNetworkError,
		Message: "identity provider is unreachable",
	}
	ErrPermissionDenied = &Error{
		Kind:    KindPermissionDenied,
		Message: "permission denied",
	}
	ErrRateLimited = &Error{
		Kind:    KindRateLimited,
		Message: "rate limit exceeded",
	}
	ErrInternal = &Error{
		Kind:    KindInternalError,
		Message: "internal error",
	}
)
