// Package httpapi exposes the account service over HTTP with JSON bodies.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gatherspace/backend/internal/auth"
	"github.com/gatherspace/backend/internal/identity"
	"github.com/gatherspace/backend/internal/user"
)

// AccountService is the part of the identity service the handlers call.
type AccountService interface {
	Signup(ctx context.Context, email, fullName, password string) (*user.User, string, error)
	Login(ctx context.Context, email, password string) (*user.User, string, error)
	GoogleLogin(ctx context.Context, code, idToken string) (*user.User, string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CompletePasswordReset(ctx context.Context, token, password string) (*user.User, string, error)
	ConfirmEmail(ctx context.Context, token string) (*user.User, error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, p user.ProfileUpdate) (*user.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, replacement string) (*user.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, dataURI string) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	GetByUniqueURL(ctx context.Context, uniqueURL string) (*user.User, error)
}

// Handler holds the HTTP handlers for every account endpoint.
type Handler struct {
	svc AccountService
	log *slog.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(svc AccountService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.FullName == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "fullName, email and password are required")
		return
	}

	u, token, err := h.svc.Signup(r.Context(), req.Email, req.FullName, req.Password)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, User: u, Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	u, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: u, Token: token})
}

type googleLoginRequest struct {
	Code    string `json:"code"`
	IDToken string `json:"idToken"`
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" && req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "code or idToken is required")
		return
	}

	u, token, err := h.svc.GoogleLogin(r.Context(), req.Code, req.IDToken)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: u, Token: token})
}

type resetRequest struct {
	Email string `json:"email"`
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Password reset email sent"})
}

type completeResetRequest struct {
	Password string `json:"password"`
}

func (h *Handler) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req completeResetRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	u, token, err := h.svc.CompletePasswordReset(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: u, Token: token})
}

func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: u, Message: "Email confirmed"})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please login first.")
		return
	}
	if err := h.svc.Logout(r.Context(), id.Token); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out"})
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please login first.")
		return
	}
	if err := h.svc.LogoutAll(r.Context(), id.User.ID); err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Logged out everywhere"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please login first.")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: id.User})
}

type updateProfileRequest struct {
	FullName *string    `json:"fullName"`
	Bio      *string    `json:"bio"`
	Gender   *string    `json:"gender"`
	Birthday *time.Time `json:"birthday"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please login first.")
		return
	}
	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), id.User.ID, user.ProfileUpdate{
		FullName: req.FullName,
		Bio:      req.Bio,
		Gender:   req.Gender,
		Birthday: req.Birthday,
	})
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: u})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please login first.")
		return
	}
	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "newPassword is required")
		return
	}

	u, err := h.svc.ChangePassword(r.Context(), id.User.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: u, Message: "Password changed"})
}

type updateAvatarRequest struct {
	Avatar string `json:"avatar"`
}

func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please login first.")
		return
	}
	var req updateAvatarRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Avatar == "" {
		writeError(w, http.StatusBadRequest, "avatar is required")
		return
	}

	u, err := h.svc.UpdateAvatar(r.Context(), id.User.ID, req.Avatar)
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	avatar := ""
	if u.AvatarURL != nil {
		avatar = *u.AvatarURL
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: u, Avatar: avatar})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: users})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetByUniqueURL(r.Context(), chi.URLParam(r, "uniqueURL"))
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeServiceError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, User: u})
}
