// Package token issues and verifies the three kinds of signed tokens the
// service hands out: sessions, email confirmations and password resets.
package token

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gatherspace/backend/pkg/jwt"
)

// Kind selects the signing secret and lifetime of a token.
type Kind string

const (
	// KindSession tokens carry no expiry. They stay valid for as long as
	// the matching session row exists.
	KindSession Kind = "session"
	// KindEmailConfirm tokens prove ownership of an email address.
	KindEmailConfirm Kind = "email_confirm"
	// KindPasswordReset tokens authorize a one-time password change.
	KindPasswordReset Kind = "password_reset"
)

var (
	ErrUnknownKind  = errors.New("unknown token kind")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Config holds the signing secrets and the lifetime of short-lived tokens.
type Config struct {
	SessionSecret      string        `env:"JWT_SECRET_KEY,required"`
	EmailConfirmSecret string        `env:"EMAIL_CONFIRM_SECRET_KEY,required"`
	TTL                time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
}

// Service signs and parses tokens. Email confirmation tokens use a secret of
// their own so a leaked session secret cannot forge confirmation links.
type Service struct {
	session      *jwt.Service
	emailConfirm *jwt.Service
	ttl          time.Duration
}

// New creates a token service from the given config.
func New(cfg Config) (*Service, error) {
	session, err := jwt.NewFromString(cfg.SessionSecret)
	if err != nil {
		return nil, err
	}
	emailConfirm, err := jwt.NewFromString(cfg.EmailConfirmSecret)
	if err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{session: session, emailConfirm: emailConfirm, ttl: ttl}, nil
}

func (s *Service) signer(kind Kind) (*jwt.Service, error) {
	switch kind {
	case KindSession, KindPasswordReset:
		return s.session, nil
	case KindEmailConfirm:
		return s.emailConfirm, nil
	default:
		return nil, ErrUnknownKind
	}
}

// Issue signs a token of the given kind for the user. Session tokens are
// issued without an expiry; the other kinds expire after the configured TTL.
func (s *Service) Issue(kind Kind, userID uuid.UUID) (string, error) {
	signer, err := s.signer(kind)
	if err != nil {
		return "", err
	}
	claims := jwt.Claims{ID: userID.String()}
	if kind != KindSession {
		now := time.Now()
		claims.IssuedAt = now.Unix()
		claims.ExpiresAt = now.Add(s.ttl).Unix()
	}
	return signer.Sign(claims)
}

// Verify parses a token of the given kind and returns the user id it was
// issued for.
func (s *Service) Verify(kind Kind, tokenString string) (uuid.UUID, error) {
	signer, err := s.signer(kind)
	if err != nil {
		return uuid.Nil, err
	}
	var claims jwt.Claims
	if err := signer.Parse(tokenString, &claims); err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return uuid.Nil, ErrExpiredToken
		}
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
