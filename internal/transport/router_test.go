package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilleojeda/community-content-tracker-sub000/internal/authorizer"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/identity"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/token"
)

const testArn = "arn:aws:execute-api:us-east-1:123456789012:abc123/prod/GET/content/42"

type stubVerifier struct {
	verified *token.Verified
	err      error
}

func (s *stubVerifier) Verify(ctx context.Context, raw string) (*token.Verified, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.verified, nil
}

func testRouter() http.Handler {
	verified := &token.Verified{
		Claims:   token.Claims{Subject: "sub-1"},
		Identity: identity.Identity{ID: "user-1", Username: "dev", Email: "dev@example.com"},
	}
	authz := authorizer.New(&stubVerifier{verified: verified}, nil, nil, nil)
	return NewRouter(Deps{Authorizer: authz})
}

func postEvent(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/authorize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthorizeEndpointAllow(t *testing.T) {
	body := `{
		"methodArn": "` + testArn + `",
		"headers": {"Authorization": "Bearer tok", "User-Agent": "Mozilla/5.0 (X11) Gecko"},
		"requestContext": {"identity": {"sourceIp": "203.0.113.9"}}
	}`
	rec := postEvent(t, testRouter(), body)
	require.Equal(t, http.StatusOK, rec.Code)

	var dec authorizer.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dec))
	assert.Equal(t, authorizer.EffectAllow, dec.Effect())
	assert.Equal(t, "user-1", dec.PrincipalID)
	assert.Equal(t, "user-1", dec.Context["userId"])
}

func TestAuthorizeEndpointDenyIsStill200(t *testing.T) {
	body := `{
		"methodArn": "` + testArn + `",
		"headers": {}
	}`
	rec := postEvent(t, testRouter(), body)
	require.Equal(t, http.StatusOK, rec.Code, "the effect lives inside the policy, not the status")

	var dec authorizer.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dec))
	assert.Equal(t, authorizer.EffectDeny, dec.Effect())
	assert.Equal(t, "AUTH_REQUIRED", dec.Context["error"])
}

func TestAuthorizeEndpointHeaderCaseInsensitive(t *testing.T) {
	body := `{
		"methodArn": "` + testArn + `",
		"headers": {"authorization": "Bearer tok", "user-agent": "Mozilla/5.0 (X11) Gecko"}
	}`
	rec := postEvent(t, testRouter(), body)

	var dec authorizer.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dec))
	assert.Equal(t, authorizer.EffectAllow, dec.Effect())
}

func TestAuthorizeEndpointRejectsBadContentType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/authorize", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthorizeEndpointRejectsInvalidJSON(t *testing.T) {
	rec := postEvent(t, testRouter(), "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines",
		"the default registry's standard collectors are exposed")
}

func TestRequestIDPropagation(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))
}

func TestRequestIDGenerated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
