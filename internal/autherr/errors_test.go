package autherr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetailCopies(t *testing.T) {
	e := ErrMalformedToken.WithDetail("audience not allowed")

	assert.Equal(t, "audience not allowed", e.Detail)
	assert.Empty(t, ErrMalformedToken.Detail, "shared base must stay untouched")
	assert.Equal(t, KindMalformedToken, e.Kind)
}

func TestWithCauseCopiesAndUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	e := ErrNetwork.WithCause(cause)

	require.ErrorIs(t, e, cause)
	assert.Nil(t, ErrNetwork.Err, "shared base must stay untouched")
	assert.Contains(t, e.Error(), "connection refused")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindTokenExpired, KindOf(ErrTokenExpired))
	assert.Equal(t, KindRateLimited, KindOf(ErrRateLimited.WithDetail("subject abc")))
	assert.Equal(t, KindInternalError, KindOf(errors.New("plain")),
		"unclassified errors default to internal")
}

func TestFromError(t *testing.T) {
	e := FromError(ErrPermissionDenied)
	assert.Same(t, ErrPermissionDenied, e)

	plain := errors.New("boom")
	wrapped := FromError(plain)
	assert.Equal(t, KindInternalError, wrapped.Kind)
	assert.ErrorIs(t, wrapped, plain)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "[AUTH_REQUIRED] authorization token is required", ErrAuthRequired.Error())
}
