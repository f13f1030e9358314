package httpapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gatherspace/backend/internal/auth"
	"github.com/gatherspace/backend/internal/httpapi"
	"github.com/gatherspace/backend/internal/identity"
	"github.com/gatherspace/backend/internal/token"
	"github.com/gatherspace/backend/internal/user"
)

type mockService struct{ mock.Mock }

func (m *mockService) userToken(args mock.Arguments) (*user.User, string, error) {
	var u *user.User
	if v := args.Get(0); v != nil {
		u = v.(*user.User)
	}
	return u, args.String(1), args.Error(2)
}

func (m *mockService) userOnly(args mock.Arguments) (*user.User, error) {
	if v := args.Get(0); v != nil {
		return v.(*user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) Signup(ctx context.Context, email, fullName, password string) (*user.User, string, error) {
	return m.userToken(m.Called(ctx, email, fullName, password))
}

func (m *mockService) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	return m.userToken(m.Called(ctx, email, password))
}

func (m *mockService) GoogleLogin(ctx context.Context, code, idToken string) (*user.User, string, error) {
	return m.userToken(m.Called(ctx, code, idToken))
}

func (m *mockService) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockService) CompletePasswordReset(ctx context.Context, tok, password string) (*user.User, string, error) {
	return m.userToken(m.Called(ctx, tok, password))
}

func (m *mockService) ConfirmEmail(ctx context.Context, tok string) (*user.User, error) {
	return m.userOnly(m.Called(ctx, tok))
}

func (m *mockService) Logout(ctx context.Context, tok string) error {
	return m.Called(ctx, tok).Error(0)
}

func (m *mockService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockService) UpdateProfile(ctx context.Context, userID uuid.UUID, p user.ProfileUpdate) (*user.User, error) {
	return m.userOnly(m.Called(ctx, userID, p))
}

func (m *mockService) ChangePassword(ctx context.Context, userID uuid.UUID, current, replacement string) (*user.User, error) {
	return m.userOnly(m.Called(ctx, userID, current, replacement))
}

func (m *mockService) UpdateAvatar(ctx context.Context, userID uuid.UUID, dataURI string) (*user.User, error) {
	return m.userOnly(m.Called(ctx, userID, dataURI))
}

func (m *mockService) ListUsers(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) GetByUniqueURL(ctx context.Context, uniqueURL string) (*user.User, error) {
	return m.userOnly(m.Called(ctx, uniqueURL))
}

type stubVerifier struct {
	userID uuid.UUID
	err    error
}

func (s stubVerifier) Verify(token.Kind, string) (uuid.UUID, error) { return s.userID, s.err }

type stubSessions struct{ live bool }

func (s stubSessions) Exists(context.Context, string) (bool, error) { return s.live, nil }

type stubUsers struct{ u *user.User }

func (s stubUsers) GetByID(context.Context, uuid.UUID) (*user.User, error) { return s.u, nil }

func newServer(t *testing.T, svc *mockService, authed *user.User) http.Handler {
	t.Helper()
	var gate *auth.Gate
	if authed != nil {
		gate = auth.NewGate(stubVerifier{userID: authed.ID}, stubSessions{live: true}, stubUsers{u: authed}, nil)
	} else {
		gate = auth.NewGate(stubVerifier{err: token.ErrInvalidToken}, stubSessions{}, stubUsers{}, nil)
	}
	return httpapi.NewRouter(httpapi.NewHandler(svc, nil), gate, nil)
}

func do(t *testing.T, h http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authed {
		req.Header.Set("Authorization", "Bearer session-token")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSignup(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		u := &user.User{ID: uuid.New(), Email: "ada@example.com", FullName: "Ada Lovelace", UniqueURL: "ada-lovelace-1"}
		svc.On("Signup", mock.Anything, "ada@example.com", "Ada Lovelace", "pw123").Return(u, "tok", nil)

		rec := do(t, newServer(t, svc, nil), http.MethodPost, "/signup",
			`{"fullName":"Ada Lovelace","email":"Ada@Example.com","password":"pw123"}`, false)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"success":true`)
		assert.Contains(t, rec.Body.String(), `"token":"tok"`)
		assert.NotContains(t, rec.Body.String(), `"password"`)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("Signup", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, "", identity.ErrUserExists)

		rec := do(t, newServer(t, svc, nil), http.MethodPost, "/signup",
			`{"fullName":"X","email":"x@example.com","password":"pw"}`, false)

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"User already exists"}`, rec.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Parallel()

		rec := do(t, newServer(t, new(mockService), nil), http.MethodPost, "/signup",
			`{"email":"x@example.com"}`, false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		rec := do(t, newServer(t, new(mockService), nil), http.MethodPost, "/signup", `{`, false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("Login", mock.Anything, "ghost@example.com", "pw").Return(nil, "", identity.ErrUserNotFound)

		rec := do(t, newServer(t, svc, nil), http.MethodPost, "/login",
			`{"email":"ghost@example.com","password":"pw"}`, false)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"User does not exist"}`, rec.Body.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("Login", mock.Anything, "ada@example.com", "nope").Return(nil, "", identity.ErrInvalidPassword)

		rec := do(t, newServer(t, svc, nil), http.MethodPost, "/login",
			`{"email":"ada@example.com","password":"nope"}`, false)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Invalid password"}`, rec.Body.String())
	})

	t.Run("internal failure is opaque", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, "", assert.AnError)

		rec := do(t, newServer(t, svc, nil), http.MethodPost, "/login",
			`{"email":"a@example.com","password":"pw"}`, false)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Internal Server Error"}`, rec.Body.String())
	})
}

func TestGoogleLogin(t *testing.T) {
	t.Parallel()

	u := &user.User{ID: uuid.New(), Email: "g@example.com"}

	t.Run("with authorization code", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("GoogleLogin", mock.Anything, "auth-code", "").Return(u, "g-tok", nil)

		rec := do(t, newServer(t, svc, nil), http.MethodPost, "/googleauth", `{"code":"auth-code"}`, false)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"token":"g-tok"`)
	})

	t.Run("with id token", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("GoogleLogin", mock.Anything, "", "raw-id-token").Return(u, "g-tok", nil)

		rec := do(t, newServer(t, svc, nil), http.MethodPost, "/googleauth", `{"idToken":"raw-id-token"}`, false)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("empty body rejected", func(t *testing.T) {
		t.Parallel()

		rec := do(t, newServer(t, new(mockService), nil), http.MethodPost, "/googleauth", `{}`, false)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()

	t.Run("request", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("RequestPasswordReset", mock.Anything, "ada@example.com").Return(nil)

		rec := do(t, newServer(t, svc, nil), http.MethodPost, "/resetpassword",
			`{"email":"ada@example.com"}`, false)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("complete with expired token", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("CompletePasswordReset", mock.Anything, "old-token", "newpw").
			Return(nil, "", identity.ErrExpiredToken)

		rec := do(t, newServer(t, svc, nil), http.MethodPost, "/resetpassword/old-token",
			`{"password":"newpw"}`, false)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("complete returns fresh session", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		u := &user.User{ID: uuid.New()}
		svc.On("CompletePasswordReset", mock.Anything, "good-token", "newpw").Return(u, "fresh", nil)

		rec := do(t, newServer(t, svc, nil), http.MethodPost, "/resetpassword/good-token",
			`{"password":"newpw"}`, false)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"token":"fresh"`)
	})
}

func TestConfirmEmail(t *testing.T) {
	t.Parallel()

	svc := new(mockService)
	svc.On("ConfirmEmail", mock.Anything, "confirm-token").
		Return(&user.User{ID: uuid.New(), IsEmailConfirmed: true}, nil)

	rec := do(t, newServer(t, svc, nil), http.MethodGet, "/confirmemail/confirm-token", "", false)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_email_confirmed":true`)
}

func TestAuthenticatedRoutes(t *testing.T) {
	t.Parallel()

	me := &user.User{ID: uuid.New(), Email: "me@example.com"}

	t.Run("me returns the caller", func(t *testing.T) {
		t.Parallel()

		rec := do(t, newServer(t, new(mockService), me), http.MethodGet, "/auth/me", "", true)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), me.Email)
	})

	t.Run("me without session", func(t *testing.T) {
		t.Parallel()

		rec := do(t, newServer(t, new(mockService), nil), http.MethodGet, "/auth/me", "", true)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Please login first."}`, rec.Body.String())
	})

	t.Run("logout revokes the presented token", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("Logout", mock.Anything, "session-token").Return(nil).Once()

		rec := do(t, newServer(t, svc, me), http.MethodPost, "/logout", "", true)

		require.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("logoutall revokes by user", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("LogoutAll", mock.Anything, me.ID).Return(nil).Once()

		rec := do(t, newServer(t, svc, me), http.MethodPost, "/logoutall", "", true)

		require.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("update profile", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("UpdateProfile", mock.Anything, me.ID, mock.MatchedBy(func(p user.ProfileUpdate) bool {
			return p.Bio != nil && *p.Bio == "hello" && p.FullName == nil
		})).Return(me, nil)

		rec := do(t, newServer(t, svc, me), http.MethodPatch, "/update", `{"bio":"hello"}`, true)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("change password with wrong current", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("ChangePassword", mock.Anything, me.ID, "bad", "next").
			Return(nil, identity.ErrInvalidPassword)

		rec := do(t, newServer(t, svc, me), http.MethodPatch, "/changepassword",
			`{"currentPassword":"bad","newPassword":"next"}`, true)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("update avatar", func(t *testing.T) {
		t.Parallel()

		avatarURL := "https://cdn.example.com/new.png"
		updated := &user.User{ID: me.ID, AvatarURL: &avatarURL}
		svc := new(mockService)
		svc.On("UpdateAvatar", mock.Anything, me.ID, "data:image/png;base64,AAAA").Return(updated, nil)

		rec := do(t, newServer(t, svc, me), http.MethodPatch, "/updateavatar",
			`{"avatar":"data:image/png;base64,AAAA"}`, true)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"avatar":"https://cdn.example.com/new.png"`)
	})
}

func TestPublicProfiles(t *testing.T) {
	t.Parallel()

	t.Run("list users", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("ListUsers", mock.Anything).Return([]user.User{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

		rec := do(t, newServer(t, svc, nil), http.MethodGet, "/users", "", false)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"data":[`)
	})

	t.Run("profile by slug", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("GetByUniqueURL", mock.Anything, "ada-lovelace-1").
			Return(&user.User{ID: uuid.New(), UniqueURL: "ada-lovelace-1"}, nil)

		rec := do(t, newServer(t, svc, nil), http.MethodGet, "/ada-lovelace-1", "", false)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"unique_url":"ada-lovelace-1"`)
	})

	t.Run("unknown slug", func(t *testing.T) {
		t.Parallel()

		svc := new(mockService)
		svc.On("GetByUniqueURL", mock.Anything, "nobody-1").Return(nil, identity.ErrUserNotFound)

		rec := do(t, newServer(t, svc, nil), http.MethodGet, "/nobody-1", "", false)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"User not found"}`, rec.Body.String())
	})
}
