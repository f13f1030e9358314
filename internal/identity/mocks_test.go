package identity_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/gatherspace/backend/internal/googleauth"
	"github.com/gatherspace/backend/internal/session"
	"github.com/gatherspace/backend/internal/token"
	"github.com/gatherspace/backend/internal/user"
	"github.com/gatherspace/backend/pkg/blobstore"
	"github.com/gatherspace/backend/pkg/email"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) user(args mock.Arguments) (*user.User, error) {
	if u := args.Get(0); u != nil {
		return u.(*user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) Create(ctx context.Context, u *user.User) (*user.User, error) {
	return m.user(m.Called(ctx, u))
}

func (m *mockUsers) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *mockUsers) GetByUniqueURL(ctx context.Context, uniqueURL string) (*user.User, error) {
	return m.user(m.Called(ctx, uniqueURL))
}

func (m *mockUsers) GetByEmailConfirmToken(ctx context.Context, tok string) (*user.User, error) {
	return m.user(m.Called(ctx, tok))
}

func (m *mockUsers) GetByPasswordResetToken(ctx context.Context, tok string) (*user.User, error) {
	return m.user(m.Called(ctx, tok))
}

func (m *mockUsers) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) SetEmailConfirmToken(ctx context.Context, id uuid.UUID, tok string) (*user.User, error) {
	return m.user(m.Called(ctx, id, tok))
}

func (m *mockUsers) SetPasswordResetToken(ctx context.Context, id uuid.UUID, tok string) (*user.User, error) {
	return m.user(m.Called(ctx, id, tok))
}

func (m *mockUsers) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) (*user.User, error) {
	return m.user(m.Called(ctx, id, hash))
}

func (m *mockUsers) ConfirmEmail(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *mockUsers) UpdateProfile(ctx context.Context, id uuid.UUID, p user.ProfileUpdate) (*user.User, error) {
	return m.user(m.Called(ctx, id, p))
}

func (m *mockUsers) SetAvatar(ctx context.Context, id uuid.UUID, url, key string) (*user.User, error) {
	return m.user(m.Called(ctx, id, url, key))
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Create(ctx context.Context, userID uuid.UUID, tok string) (*session.Token, error) {
	args := m.Called(ctx, userID, tok)
	if t := args.Get(0); t != nil {
		return t.(*session.Token), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessions) RevokeOne(ctx context.Context, tok string) error {
	return m.Called(ctx, tok).Error(0)
}

func (m *mockSessions) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) Issue(kind token.Kind, userID uuid.UUID) (string, error) {
	args := m.Called(kind, userID)
	return args.String(0), args.Error(1)
}

func (m *mockTokens) Verify(kind token.Kind, tokenString string) (uuid.UUID, error) {
	args := m.Called(kind, tokenString)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type mockHasher struct{ mock.Mock }

func (m *mockHasher) Hash(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *mockHasher) Verify(plaintext, hash string) (bool, error) {
	args := m.Called(plaintext, hash)
	return args.Bool(0), args.Error(1)
}

type mockGoogle struct{ mock.Mock }

func (m *mockGoogle) VerifyCode(ctx context.Context, code string) (*googleauth.Profile, error) {
	args := m.Called(ctx, code)
	if p := args.Get(0); p != nil {
		return p.(*googleauth.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGoogle) VerifyIDToken(ctx context.Context, idToken string) (*googleauth.Profile, error) {
	args := m.Called(ctx, idToken)
	if p := args.Get(0); p != nil {
		return p.(*googleauth.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAvatars struct{ mock.Mock }

func (m *mockAvatars) UploadDataURI(ctx context.Context, dataURI, filename string) (*blobstore.Object, error) {
	args := m.Called(ctx, dataURI, filename)
	if o := args.Get(0); o != nil {
		return o.(*blobstore.Object), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAvatars) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	return m.Called(ctx, params).Error(0)
}
