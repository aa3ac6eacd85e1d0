package authorizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethodArn(t *testing.T) {
	arn, err := ParseMethodArn("arn:aws:execute-api:us-east-1:123456789012:abc123/prod/GET/content/42")
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", arn.Region)
	assert.Equal(t, "123456789012", arn.AccountID)
	assert.Equal(t, "abc123", arn.APIID)
	assert.Equal(t, "prod", arn.Stage)
	assert.Equal(t, "GET", arn.Method)
	assert.Equal(t, "/content/42", arn.Path)
}

func TestParseMethodArnRootPath(t *testing.T) {
	arn, err := ParseMethodArn("arn:aws:execute-api:us-east-1:123456789012:abc123/prod/GET")
	require.NoError(t, err)
	assert.Equal(t, "/", arn.Path)
}

func TestParseMethodArnGovRegion(t *testing.T) {
	arn, err := ParseMethodArn("arn:aws:execute-api:us-gov-west-1:123456789012:abc123/prod/POST/x")
	require.NoError(t, err)
	assert.Equal(t, "us-gov-west-1", arn.Region)
}

func TestParseMethodArnRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"not-an-arn",
		"arn:aws:s3:::bucket/key",
		"arn:aws:execute-api:us-east-1:12345:abc123/prod/GET/x",        // short account id
		"arn:aws:execute-api:us-east-1:123456789012:abc123",            // no stage or method
		"arn:aws:execute-api:us-east-1:123456789012:abc123/prod/get/x", // lowercase method
	}
	for _, raw := range bad {
		_, err := ParseMethodArn(raw)
		assert.ErrorIs(t, err, ErrMalformedArn, "input %q", raw)
	}
}

func TestWildcardResource(t *testing.T) {
	arn, err := ParseMethodArn("arn:aws:execute-api:us-east-1:123456789012:abc123/prod/DELETE/admin/users/7")
	require.NoError(t, err)
	assert.Equal(t,
		"arn:aws:execute-api:us-east-1:123456789012:abc123/prod/*/*",
		arn.WildcardResource())
}

func TestDecisionEffect(t *testing.T) {
	allow := Decision{Policy: newPolicy(EffectAllow, "r")}
	assert.Equal(t, EffectAllow, allow.Effect())

	deny := Decision{Policy: newPolicy(EffectDeny, "r")}
	assert.Equal(t, EffectDeny, deny.Effect())

	var empty Decision
	assert.Equal(t, EffectDeny, empty.Effect(), "a malformed policy reads as deny")
}
