// internal/app/features/rooms/routes.go
package rooms

import (
	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/recent", h.ServeRecent)
	r.Get("/filter", h.ServeFilter)
	r.Get("/search", h.ServeSearch)
	r.With(sm.RequireSignedIn).Post("/", h.HandleCreate)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeRoom)
		r.Get("/message", h.ServeMessages)
		r.Get("/file", h.ServeFiles)
		r.Get("/link", h.ServeLinks)
		r.Get("/activity", h.ServeActivity)
		r.Get("/task", h.ServeTasks)
		r.Get("/contributor", h.ServeContributors)

		r.Group(func(pr chi.Router) {
			pr.Use(sm.RequireSignedIn)
			pr.Post("/message", h.HandleMessage)
			pr.Post("/file", h.HandleUpload)
			pr.Post("/link", h.HandleCreateLink)
			pr.Post("/task", h.HandleCreateTask)
			pr.Post("/join", h.HandleJoin)
			pr.Delete("/", h.HandleDelete)
			pr.Delete("/link", h.HandleDeleteLink)
			pr.Patch("/task", h.HandleTaskStatus)
		})
	})
	return r
}
