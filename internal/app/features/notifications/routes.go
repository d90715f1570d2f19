// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/roomhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the inbox and the invitation/request workflow. Every route
// requires a signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeInbox)
	r.Get("/unread", h.ServeUnread)
	r.Post("/sendInvitation", h.HandleSendInvitation)
	r.Post("/sendRequest", h.HandleSendRequest)

	r.Put("/{id}/acceptInvitation", h.HandleAcceptInvitation())
	r.Put("/{id}/rejectInvitation", h.HandleRejectInvitation())
	r.Put("/{id}/acceptRequest", h.HandleAcceptRequest())
	r.Put("/{id}/rejectRequest", h.HandleRejectRequest())
	return r
}
