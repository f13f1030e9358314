// Package auth guards HTTP routes with session-token authentication. A
// request is authenticated only when its bearer token both carries a valid
// signature and is still present in the session store.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gatherspace/backend/internal/token"
	"github.com/gatherspace/backend/internal/user"
	"github.com/gatherspace/backend/pkg/logger"
)

var (
	errMissingBearer  = errors.New("missing bearer token")
	errSessionRevoked = errors.New("session token revoked")
)

// UserLoader fetches the user a verified token belongs to.
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// SessionChecker reports whether a session token is still active.
type SessionChecker interface {
	Exists(ctx context.Context, token string) (bool, error)
}

// TokenVerifier parses a session token and returns the user id inside it.
type TokenVerifier interface {
	Verify(kind token.Kind, tokenString string) (uuid.UUID, error)
}

// Gate builds the authentication middleware.
type Gate struct {
	tokens   TokenVerifier
	sessions SessionChecker
	users    UserLoader
	log      *slog.Logger
}

// NewGate creates an authentication gate.
func NewGate(tokens TokenVerifier, sessions SessionChecker, users UserLoader, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{tokens: tokens, sessions: sessions, users: users, log: log}
}

// Require rejects unauthenticated requests with 401 before they reach the
// wrapped handler.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.authenticate(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
				"success": false,
				"message": "Please login first.",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// Optional attaches an identity when the request carries a live session
// token and passes the request through untouched otherwise. Failures are
// logged, never surfaced to the client.
func (g *Gate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.authenticate(r)
		switch {
		case err == nil:
			r = r.WithContext(WithIdentity(r.Context(), id))
		case !errors.Is(err, errMissingBearer):
			g.log.DebugContext(r.Context(), "optional authentication failed", logger.Error(err))
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) authenticate(r *http.Request) (Identity, error) {
	raw := bearerToken(r)
	if raw == "" {
		return Identity{}, errMissingBearer
	}

	userID, err := g.tokens.Verify(token.KindSession, raw)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to verify session token: %w", err)
	}

	live, err := g.sessions.Exists(r.Context(), raw)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to check session token: %w", err)
	}
	if !live {
		return Identity{}, errSessionRevoked
	}

	u, err := g.users.GetByID(r.Context(), userID)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to load user: %w", err)
	}

	return Identity{User: u, Token: raw}, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
