// Package session persists issued session tokens. A session token is live
// only while its row exists here; deleting the row revokes the session even
// though the token signature stays valid.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gatherspace/backend/pkg/pg"
)

// ErrUnknownUser reports an attempt to open a session for a user that is no
// longer in the users table.
var ErrUnknownUser = errors.New("session: unknown user")

// Token is a single active session belonging to a user.
type Token struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// DB is the subset of pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides direct SQL access to the user_tokens table.
type Store struct {
	db DB
}

// NewStore creates a session store over the given connection pool.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Create records a newly issued session token for the user.
func (s *Store) Create(ctx context.Context, userID uuid.UUID, token string) (*Token, error) {
	var t Token
	err := s.db.QueryRow(ctx, `
		INSERT INTO user_tokens (id, user_id, token)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token, created_at`,
		uuid.New(), userID, token,
	).Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt)
	if err != nil {
		if pg.IsForeignKeyViolationError(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
		}
		return nil, fmt.Errorf("failed to store session token: %w", err)
	}
	return &t, nil
}

// Exists reports whether the exact token string is still active.
func (s *Store) Exists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_tokens WHERE token = $1)`, token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session token: %w", err)
	}
	return exists, nil
}

// RevokeOne deletes a single session token. Revoking a token that is already
// gone is not an error.
func (s *Store) RevokeOne(ctx context.Context, token string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM user_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to revoke session token: %w", err)
	}
	return nil
}

// RevokeAll deletes every session token belonging to the user, logging them
// out on all devices at once.
func (s *Store) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM user_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to revoke session tokens: %w", err)
	}
	return nil
}
