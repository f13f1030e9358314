package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gatherspace/backend/internal/identity"
	"github.com/gatherspace/backend/internal/user"
	"github.com/gatherspace/backend/pkg/logger"
)

// envelope is the response shape every endpoint returns.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *user.User  `json:"user,omitempty"`
	Token   string      `json:"token,omitempty"`
	Data    []user.User `json:"data,omitempty"`
	Avatar  string      `json:"avatar,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

// writeServiceError maps identity errors onto the status codes and messages
// clients rely on. Anything unrecognized is logged and hidden behind a 500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, identity.ErrUserExists):
		writeError(w, http.StatusConflict, "User already exists")
	case errors.Is(err, identity.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User does not exist")
	case errors.Is(err, identity.ErrInvalidPassword):
		writeError(w, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, identity.ErrExpiredToken):
		writeError(w, http.StatusNotFound, "Token expired")
	case errors.Is(err, identity.ErrInvalidToken):
		writeError(w, http.StatusNotFound, "Invalid token")
	case errors.Is(err, identity.ErrInvalidAvatar):
		writeError(w, http.StatusBadRequest, "Invalid image")
	default:
		log.ErrorContext(ctx, "request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
