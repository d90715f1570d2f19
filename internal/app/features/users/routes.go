// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/filter", h.ServeFilter)
	r.Get("/search", h.ServeSearch)
	r.Get("/featured", h.ServeFeatured)
	r.Post("/", h.HandleCreate)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeUser)
		r.Get("/followers", h.ServeFollowers)
		r.Get("/following", h.ServeFollowing)
		r.Get("/rooms", h.ServeRooms)
		r.Get("/activity", h.ServeActivity)

		r.Group(func(pr chi.Router) {
			pr.Use(sm.RequireSignedIn)
			pr.Put("/", h.HandleUpdate)
			pr.Patch("/follow", h.HandleFollow)
			pr.Delete("/", h.HandleDelete)
		})
	})
	return r
}
