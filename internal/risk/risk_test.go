package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const normalAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

func TestScoreClean(t *testing.T) {
	s := NewScorer("/admin")
	a := s.Score("sub", "203.0.113.9", normalAgent, "/content/42")

	assert.False(t, a.Suspicious)
	assert.Equal(t, LevelNone, a.Level)
	assert.Empty(t, a.Reasons)
}

func TestScoreSingleReason(t *testing.T) {
	s := NewScorer("/admin")

	a := s.Score("sub", "203.0.113.9", normalAgent, "/admin/users")
	assert.True(t, a.Suspicious)
	assert.Equal(t, LevelLow, a.Level)
	assert.Equal(t, []string{ReasonAdminPath}, a.Reasons)
}

func TestScoreAutomationSignatures(t *testing.T) {
	s := NewScorer("/admin")

	for _, ua := range []string{
		"curl/8.4.0 (x86_64-pc-linux-gnu)",
		"python-requests/2.31.0 CPython/3.11",
		"Googlebot/2.1 (+http://www.google.com/bot.html)",
	} {
		a := s.Score("sub", "ip", ua, "/content")
		assert.Contains(t, a.Reasons, ReasonAutomationSig, "agent %q", ua)
	}
}

func TestScoreShortAgent(t *testing.T) {
	s := NewScorer("/admin")

	a := s.Score("sub", "ip", "", "/content")
	assert.Contains(t, a.Reasons, ReasonShortAgent)

	a = s.Score("sub", "ip", "   abc   ", "/content")
	assert.Contains(t, a.Reasons, ReasonShortAgent, "whitespace does not count toward length")
}

func TestScoreLevels(t *testing.T) {
	s := NewScorer("/admin")

	// short + automation signature
	a := s.Score("sub", "ip", "curl/8", "/content")
	assert.Equal(t, LevelMedium, a.Level)
	assert.Len(t, a.Reasons, 2)

	// admin path + short + automation signature
	a = s.Score("sub", "ip", "curl/8", "/admin/users")
	assert.Equal(t, LevelHigh, a.Level)
	assert.Len(t, a.Reasons, 3)
}

func TestScoreNoAdminPrefixConfigured(t *testing.T) {
	s := NewScorer("")
	a := s.Score("sub", "ip", normalAgent, "/admin/users")
	assert.Equal(t, LevelNone, a.Level)
}
