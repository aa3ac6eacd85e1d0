// Package identity resolves token subjects to platform users.
//
// The gateway only ever reads identities: it holds a request-scoped copy of
// what the store returns and never writes back. Ownership of the user rows
// stays with the platform's CRUD services.
package identity

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound marks a clean miss: the subject has no user row. Distinct from
// store faults so callers can tell "unknown user" from "store unavailable".
var ErrNotFound = errors.New("identity: not found")

// Badge is one earned badge of a user.
type Badge struct {
	Type     string    `json:"type"`
	EarnedAt time.Time `json:"earnedAt"`
}

// Identity is the resolved principal behind a verified token.
type Identity struct {
	ID            string
	Username      string
	Email         string
	IsAdmin       bool
	IsAwsEmployee bool
	Badges        []Badge
}

// Lookup resolves subjects and badges. Implementations must return
// ErrNotFound for a clean miss and any other error for a store fault.
type Lookup interface {
	// FindBySubject resolves an identity by the token's subject id.
	FindBySubject(ctx context.Context, subject string) (*Identity, error)

	// FindBadges lists the badges earned by a user. Callers treat a failure
	// as an empty list; implementations should still return the error so it
	// can be logged.
	FindBadges(ctx context.Context, userID string) ([]Badge, error)
}
