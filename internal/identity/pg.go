package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the production Lookup backed by the platform's Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

var _ Lookup = (*PGStore)(nil)

func (s *PGStore) FindBySubject(ctx context.Context, subject string) (*Identity, error) {
	const q = `
		SELECT id, username, email, is_admin, is_aws_employee
		FROM users
		WHERE cognito_sub = $1`

	var (
		id  uuid.UUID
		out Identity
	)
	err := s.pool.QueryRow(ctx, q, subject).Scan(
		&id, &out.Username, &out.Email, &out.IsAdmin, &out.IsAwsEmployee,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out.ID = id.String()
	return &out, nil
}

func (s *PGStore) FindBadges(ctx context.Context, userID string) ([]Badge, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT badge_type, earned_at
		FROM user_badges
		WHERE user_id = $1
		ORDER BY earned_at ASC`

	rows, err := s.pool.Query(ctx, q, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Badge
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.Type, &b.EarnedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
