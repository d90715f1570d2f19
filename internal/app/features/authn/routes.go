// internal/app/features/authn/routes.go
package authn

import (
	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.HandleSignup)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.With(sm.RequireSignedIn).Get("/getMe", h.ServeMe)
	return r
}
