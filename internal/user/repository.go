package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides direct SQL access to the users table.
type Repository struct {
	db DB
}

// NewRepository creates a users repository over the given connection pool.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `
	id, email, full_name, password, unique_url, bio, gender, birthday,
	avatar_url, avatar_key, email_confirm_token, password_reset_token,
	is_email_confirmed, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Password, &u.UniqueURL, &u.Bio,
		&u.Gender, &u.Birthday, &u.AvatarURL, &u.AvatarKey,
		&u.EmailConfirmToken, &u.PasswordResetToken,
		&u.IsEmailConfirmed, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row. The caller provides id, email, full name,
// hashed password and unique_url; a unique-constraint violation on email or
// unique_url surfaces as a pgconn error for the service layer to classify.
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, full_name, password, unique_url, is_email_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		u.ID, u.Email, u.FullName, u.Password, u.UniqueURL, u.IsEmailConfirmed,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *Repository) GetByUniqueURL(ctx context.Context, uniqueURL string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE unique_url = $1`, uniqueURL))
}

func (r *Repository) GetByEmailConfirmToken(ctx context.Context, token string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email_confirm_token = $1`, token))
}

func (r *Repository) GetByPasswordResetToken(ctx context.Context, token string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE password_reset_token = $1`, token))
}

// List returns all users ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetEmailConfirmToken stores a freshly issued confirmation token on the profile.
func (r *Repository) SetEmailConfirmToken(ctx context.Context, id uuid.UUID, token string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET email_confirm_token = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, token, id))
}

// SetPasswordResetToken stores a freshly issued reset token on the profile.
func (r *Repository) SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET password_reset_token = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, token, id))
}

// UpdatePassword stores a new password hash and clears any pending reset
// token so a used reset link cannot be replayed.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET password = $1, password_reset_token = NULL, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, hash, id))
}

// ConfirmEmail marks the email as confirmed and clears the stored token.
func (r *Repository) ConfirmEmail(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET is_email_confirmed = true, email_confirm_token = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id))
}

// UpdateProfile applies a partial profile update; nil fields keep their
// current value via COALESCE.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET
			full_name = COALESCE($2, full_name),
			bio = COALESCE($3, bio),
			gender = COALESCE($4, gender),
			birthday = COALESCE($5, birthday),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, p.FullName, p.Bio, p.Gender, p.Birthday))
}

// SetAvatar stores the public URL and object key of an uploaded avatar.
func (r *Repository) SetAvatar(ctx context.Context, id uuid.UUID, url, key string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		UPDATE users SET avatar_url = $1, avatar_key = $2, updated_at = now()
		WHERE id = $3
		RETURNING `+userColumns, url, key, id))
}
