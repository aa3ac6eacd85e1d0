package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogSinkEmit(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	sink.Emit(Event{
		Kind:     EventUnauthorizedAccess,
		Subject:  "sub-1",
		SourceIP: "203.0.113.9",
		Resource: "/admin/users",
		Detail:   "non-admin user on admin resource",
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "security event", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "UNAUTHORIZED_ACCESS", fields["event_kind"])
	assert.Equal(t, "sub-1", fields["subject"])
	assert.Equal(t, "/admin/users", fields["resource"])
	assert.Equal(t, "non-admin user on admin resource", fields["detail"])
	assert.NotZero(t, fields["at"], "missing timestamp is filled in")
}

func TestLogSinkKeepsExplicitTimestamp(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sink.Emit(Event{Kind: EventAdminAccess, At: at})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, at, logs.All()[0].ContextMap()["at"])
}

func TestLogSinkNeverPanics(t *testing.T) {
	broken := &LogSink{} // nil zap logger inside
	assert.NotPanics(t, func() {
		broken.Emit(Event{Kind: EventAuthFailure})
	})
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard{}.Emit(Event{Kind: EventInternalError})
	})
}
