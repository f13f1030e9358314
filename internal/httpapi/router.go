package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gatherspace/backend/internal/auth"
)

// NewRouter assembles the account API. The public profile route by slug is
// registered last so it cannot shadow the named routes.
func NewRouter(h *Handler, gate *auth.Gate, ready func(w http.ResponseWriter, r *http.Request)) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if ready != nil {
		r.Get("/health", ready)
	}

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/googleauth", h.GoogleLogin)
	r.Post("/resetpassword", h.RequestPasswordReset)
	r.Post("/resetpassword/{token}", h.CompletePasswordReset)
	r.Get("/confirmemail/{token}", h.ConfirmEmail)

	// Profile listings work without a session but pick up the caller's
	// identity when one is presented.
	r.Group(func(r chi.Router) {
		r.Use(gate.Optional)
		r.Get("/users", h.ListUsers)
	})

	r.Group(func(r chi.Router) {
		r.Use(gate.Require)
		r.Get("/auth/me", h.Me)
		r.Post("/logout", h.Logout)
		r.Post("/logoutall", h.LogoutAll)
		r.Patch("/update", h.UpdateProfile)
		r.Patch("/changepassword", h.ChangePassword)
		r.Patch("/updateavatar", h.UpdateAvatar)
	})

	r.With(gate.Optional).Get("/{uniqueURL}", h.Profile)

	return r
}
