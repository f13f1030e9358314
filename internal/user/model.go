// Package user holds the identity record and its PostgreSQL persistence.
package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record. Sensitive and bookkeeping columns carry the
// `json:"-"` tag so a User can be rendered into API responses directly.
type User struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	FullName           string     `json:"full_name"`
	Password           string     `json:"-"`
	UniqueURL          string     `json:"unique_url"`
	Bio                *string    `json:"bio,omitempty"`
	Gender             *string    `json:"gender,omitempty"`
	Birthday           *time.Time `json:"birthday,omitempty"`
	AvatarURL          *string    `json:"avatar,omitempty"`
	AvatarKey          *string    `json:"-"`
	EmailConfirmToken  *string    `json:"-"`
	PasswordResetToken *string    `json:"-"`
	IsEmailConfirmed   bool       `json:"is_email_confirmed"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ProfileUpdate carries the optional fields of a partial profile update.
// Nil fields keep their current value.
type ProfileUpdate struct {
	FullName *string    `json:"fullName"`
	Bio      *string    `json:"bio"`
	Gender   *string    `json:"gender"`
	Birthday *time.Time `json:"birthday"`
}
