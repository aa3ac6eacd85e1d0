// Package security emits authorization-relevant events for downstream
// monitoring. Emission is fire-and-forget: it never blocks and never panics
// the decision path.
package security

import (
	"time"

	"go.uber.org/zap"

	"github.com/guilleojeda/community-content-tracker-sub000/internal/metrics"
	"github.com/guilleojeda/community-content-tracker-sub000/internal/observability/logger"
)

// EventKind classifies a security event.
type EventKind string

const (
	EventAuthFailure        EventKind = "AUTH_FAILURE"
	EventUnauthorizedAccess EventKind = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded  EventKind = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity EventKind = "SUSPICIOUS_ACTIVITY"
	EventAdminAccess        EventKind = "ADMIN_ACCESS"
	EventInternalError      EventKind = "INTERNAL_ERROR"
)

// Event is one append-only security record. Collaborator error text and
// stack traces belong in Detail and are only ever written server-side.
type Event struct {
	Kind      EventKind
	Subject   string
	SourceIP  string
	UserAgent string
	Resource  string
	Detail    string
	At        time.Time
}

// Sink consumes events.
type Sink interface {
	Emit(e Event)
}

// LogSink writes events as structured log lines through the zap singleton.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a sink. A nil logger falls back to the named singleton.
func NewLogSink(l *zap.Logger) *LogSink {
	if l == nil {
		l = logger.Named("security")
	}
	return &LogSink{log: l}
}

var _ Sink = (*LogSink)(nil)

// Emit writes the event. Any failure is swallowed: a broken sink must not
// take the authorization path down with it.
func (s *LogSink) Emit(e Event) {
	defer func() { _ = recover() }()

	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	metrics.SecurityEventsTotal.WithLabelValues(string(e.Kind)).Inc()

	s.log.Info("security event",
		logger.EventKind(string(e.Kind)),
		logger.Subject(e.Subject),
		logger.ClientIP(e.SourceIP),
		logger.UserAgent(e.UserAgent),
		logger.Resource(e.Resource),
		zap.String("detail", e.Detail),
		zap.Time("at", e.At),
	)
}

// Discard is a Sink that drops everything. Tests only.
type Discard struct{}

func (Discard) Emit(Event) {}
