package logger

import (
	"time"

	"go.uber.org/zap"
)

// Standard fields - HTTP

// RequestID creates a field for the request id.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method creates a field for the HTTP method.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path creates a field for the request path.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status creates a field for the HTTP status code.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration creates a field for elapsed time.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Bytes creates a field for response bytes written.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ClientIP creates a field for the client IP.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// UserAgent creates a field for the User-Agent header.
func UserAgent(v string) zap.Field {
	return zap.String("user_agent", v)
}

// Standard fields - authorization domain

// Subject creates a field for the token subject.
func Subject(v string) zap.Field {
	return zap.String("subject", v)
}

// UserID creates a field for the resolved user id.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// Resource creates a field for the requested resource.
func Resource(v string) zap.Field {
	return zap.String("resource", v)
}

// Decision creates a field for the policy effect (Allow/Deny).
func Decision(v string) zap.Field {
	return zap.String("decision", v)
}

// ErrorKind creates a field for the closed denial taxonomy kind.
func ErrorKind(v string) zap.Field {
	return zap.String("error_kind", v)
}

// EventKind creates a field for the security event kind.
func EventKind(v string) zap.Field {
	return zap.String("event_kind", v)
}

// Standard fields - system

// Op creates a field naming the operation being performed.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err creates a field for an error value.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Any creates a field of arbitrary type.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
