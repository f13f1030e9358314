// Package identity implements account lifecycle: signup, login, Google
// sign-in, email confirmation, password reset and profile management.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatherspace/backend/internal/googleauth"
	"github.com/gatherspace/backend/internal/session"
	"github.com/gatherspace/backend/internal/token"
	"github.com/gatherspace/backend/internal/user"
	"github.com/gatherspace/backend/pkg/blobstore"
	"github.com/gatherspace/backend/pkg/email"
	"github.com/gatherspace/backend/pkg/logger"
	"github.com/gatherspace/backend/pkg/password"
	"github.com/gatherspace/backend/pkg/pg"
)

// UserStorage is the persistence surface the service needs for users.
type UserStorage interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByUniqueURL(ctx context.Context, uniqueURL string) (*user.User, error)
	GetByEmailConfirmToken(ctx context.Context, token string) (*user.User, error)
	GetByPasswordResetToken(ctx context.Context, token string) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
	SetEmailConfirmToken(ctx context.Context, id uuid.UUID, token string) (*user.User, error)
	SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string) (*user.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) (*user.User, error)
	ConfirmEmail(ctx context.Context, id uuid.UUID) (*user.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p user.ProfileUpdate) (*user.User, error)
	SetAvatar(ctx context.Context, id uuid.UUID, url, key string) (*user.User, error)
}

// SessionStorage records and revokes issued session tokens.
type SessionStorage interface {
	Create(ctx context.Context, userID uuid.UUID, token string) (*session.Token, error)
	RevokeOne(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// TokenService signs and verifies the tokens the service hands out.
type TokenService interface {
	Issue(kind token.Kind, userID uuid.UUID) (string, error)
	Verify(kind token.Kind, tokenString string) (uuid.UUID, error)
}

// PasswordHasher hashes and checks account passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

// GoogleVerifier resolves a Google authorization code or id token into a
// profile.
type GoogleVerifier interface {
	VerifyCode(ctx context.Context, code string) (*googleauth.Profile, error)
	VerifyIDToken(ctx context.Context, idToken string) (*googleauth.Profile, error)
}

// AvatarStorage uploads and deletes avatar images.
type AvatarStorage interface {
	UploadDataURI(ctx context.Context, dataURI, filename string) (*blobstore.Object, error)
	Delete(ctx context.Context, key string) error
}

// Service wires storage, tokens, mail and blob storage into the account
// operations the HTTP layer exposes.
type Service struct {
	users    UserStorage
	sessions SessionStorage
	tokens   TokenService
	hasher   PasswordHasher
	google   GoogleVerifier
	avatars  AvatarStorage
	mailer   email.EmailSender
	mailCfg  email.Config
	log      *slog.Logger
}

// NewService creates the identity service.
func NewService(
	users UserStorage,
	sessions SessionStorage,
	tokens TokenService,
	hasher PasswordHasher,
	google GoogleVerifier,
	avatars AvatarStorage,
	mailer email.EmailSender,
	mailCfg email.Config,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		google:   google,
		avatars:  avatars,
		mailer:   mailer,
		mailCfg:  mailCfg,
		log:      log,
	}
}

// Signup registers a new account, opens a session for it and sends the email
// confirmation link. The confirmation email is best effort; a mail outage
// must not fail the signup.
func (s *Service) Signup(ctx context.Context, emailAddr, fullName, plaintext string) (*user.User, string, error) {
	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return nil, "", ErrUserExists
	} else if !pg.IsNotFoundError(err) {
		return nil, "", fmt.Errorf("failed to check for existing user: %w", err)
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &user.User{
		ID:        uuid.New(),
		Email:     emailAddr,
		FullName:  fullName,
		Password:  hash,
		UniqueURL: user.UniqueURL(fullName),
	})
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	sessionToken, err := s.openSession(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}

	s.sendConfirmationEmail(ctx, u)

	return u, sessionToken, nil
}

// Login authenticates by email and password and opens a fresh session.
func (s *Service) Login(ctx context.Context, emailAddr, plaintext string) (*user.User, string, error) {
	u, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.hasher.Verify(plaintext, u.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, "", ErrInvalidPassword
	}

	sessionToken, err := s.openSession(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, sessionToken, nil
}

// GoogleLogin signs a user in with a Google authorization code or id token,
// registering the account on first sight. Google accounts come pre-confirmed
// since Google already verified the address.
func (s *Service) GoogleLogin(ctx context.Context, code, idToken string) (*user.User, string, error) {
	var (
		profile *googleauth.Profile
		err     error
	)
	if code != "" {
		profile, err = s.google.VerifyCode(ctx, code)
	} else {
		profile, err = s.google.VerifyIDToken(ctx, idToken)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify google sign-in: %w", err)
	}

	u, err := s.users.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if !u.IsEmailConfirmed {
			if u, err = s.users.ConfirmEmail(ctx, u.ID); err != nil {
				return nil, "", fmt.Errorf("failed to confirm email: %w", err)
			}
		}
	case pg.IsNotFoundError(err):
		u, err = s.registerGoogleUser(ctx, profile)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	sessionToken, err := s.openSession(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, sessionToken, nil
}

func (s *Service) registerGoogleUser(ctx context.Context, profile *googleauth.Profile) (*user.User, error) {
	// The account never learns this password; it only exists so the row
	// satisfies the same schema as password signups.
	secret, err := password.RandomSecret(16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate placeholder password: %w", err)
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	u, err := s.users.Create(ctx, &user.User{
		ID:               uuid.New(),
		Email:            profile.Email,
		FullName:         profile.Name,
		Password:         hash,
		UniqueURL:        user.UniqueURL(profile.Name),
		IsEmailConfirmed: true,
	})
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if profile.Picture != "" {
		if u, err = s.users.SetAvatar(ctx, u.ID, profile.Picture, ""); err != nil {
			return nil, fmt.Errorf("failed to store google avatar: %w", err)
		}
	}
	return u, nil
}

// RequestPasswordReset issues a reset token, stores it on the account and
// mails the reset link.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	u, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	resetToken, err := s.tokens.Issue(token.KindPasswordReset, u.ID)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}
	if _, err := s.users.SetPasswordResetToken(ctx, u.ID, resetToken); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.SendEmail(ctx, email.PasswordResetEmail(s.mailCfg, u.Email, resetToken)); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

// CompletePasswordReset sets a new password for the account the token
// belongs to, revokes every open session and opens a fresh one. The token
// must still match the stored copy, carry a valid signature and be unexpired.
func (s *Service) CompletePasswordReset(ctx context.Context, tokenString, plaintext string) (*user.User, string, error) {
	u, err := s.users.GetByPasswordResetToken(ctx, tokenString)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, "", ErrInvalidToken
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	userID, err := s.tokens.Verify(token.KindPasswordReset, tokenString)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return nil, "", ErrExpiredToken
		}
		return nil, "", ErrInvalidToken
	}
	if userID != u.ID {
		return nil, "", ErrInvalidToken
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}
	if u, err = s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return nil, "", fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.sessions.RevokeAll(ctx, u.ID); err != nil {
		return nil, "", fmt.Errorf("failed to revoke sessions: %w", err)
	}

	sessionToken, err := s.openSession(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, sessionToken, nil
}

// ConfirmEmail marks an account as confirmed using the token from the
// confirmation link.
func (s *Service) ConfirmEmail(ctx context.Context, tokenString string) (*user.User, error) {
	u, err := s.users.GetByEmailConfirmToken(ctx, tokenString)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	userID, err := s.tokens.Verify(token.KindEmailConfirm, tokenString)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if userID != u.ID {
		return nil, ErrInvalidToken
	}

	u, err = s.users.ConfirmEmail(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}
	return u, nil
}

// Logout revokes the single session the token identifies.
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	return s.sessions.RevokeOne(ctx, sessionToken)
}

// LogoutAll revokes every session of the user.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.RevokeAll(ctx, userID)
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, p user.ProfileUpdate) (*user.User, error) {
	u, err := s.users.UpdateProfile(ctx, userID, p)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, replacement string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.hasher.Verify(current, u.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidPassword
	}

	hash, err := s.hasher.Hash(replacement)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u, err = s.users.UpdatePassword(ctx, userID, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	return u, nil
}

// UpdateAvatar uploads a new avatar image and removes the previous object
// once the profile points at the new one. Deleting the old object is best
// effort.
func (s *Service) UpdateAvatar(ctx context.Context, userID uuid.UUID, dataURI string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	obj, err := s.avatars.UploadDataURI(ctx, dataURI, u.UniqueURL+"-avatar.jpg")
	if err != nil {
		if errors.Is(err, blobstore.ErrInvalidDataURI) {
			return nil, ErrInvalidAvatar
		}
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := ""
	if u.AvatarKey != nil {
		oldKey = *u.AvatarKey
	}

	u, err = s.users.SetAvatar(ctx, userID, obj.URL, obj.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	if oldKey != "" {
		if err := s.avatars.Delete(ctx, oldKey); err != nil {
			s.log.WarnContext(ctx, "failed to delete previous avatar",
				logger.UserID(userID.String()), logger.Error(err))
		}
	}
	return u, nil
}

// ListUsers returns every registered user.
func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetByUniqueURL resolves a public profile by its slug.
func (s *Service) GetByUniqueURL(ctx context.Context, uniqueURL string) (*user.User, error) {
	u, err := s.users.GetByUniqueURL(ctx, uniqueURL)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

func (s *Service) openSession(ctx context.Context, userID uuid.UUID) (string, error) {
	sessionToken, err := s.tokens.Issue(token.KindSession, userID)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	if _, err := s.sessions.Create(ctx, userID, sessionToken); err != nil {
		return "", fmt.Errorf("failed to store session token: %w", err)
	}
	return sessionToken, nil
}

func (s *Service) sendConfirmationEmail(ctx context.Context, u *user.User) {
	confirmToken, err := s.tokens.Issue(token.KindEmailConfirm, u.ID)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to issue confirmation token",
			logger.UserID(u.ID.String()), logger.Error(err))
		return
	}
	if _, err := s.users.SetEmailConfirmToken(ctx, u.ID, confirmToken); err != nil {
		s.log.ErrorContext(ctx, "failed to store confirmation token",
			logger.UserID(u.ID.String()), logger.Error(err))
		return
	}
	if err := s.mailer.SendEmail(ctx, email.ConfirmationEmail(s.mailCfg, u.Email, confirmToken)); err != nil {
		s.log.ErrorContext(ctx, "failed to send confirmation email",
			logger.Email(u.Email), logger.Error(err))
	}
}
