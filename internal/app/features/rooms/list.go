package rooms

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/roomhub/internal/app/features/errors"
	roomstore "github.com/dalemusser/roomhub/internal/app/store/rooms"
	"github.com/dalemusser/roomhub/internal/app/system/httpjson"
	"github.com/dalemusser/roomhub/internal/app/system/normalize"
	"github.com/dalemusser/roomhub/internal/app/system/timeouts"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList handles GET /room.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, "", 0)
}

// ServeRecent handles GET /room/recent.
func (h *Handler) ServeRecent(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, "", roomstore.RecentLimit)
}

// ServeFilter handles GET /room/filter?topic=. No topic lists everything.
func (h *Handler) ServeFilter(w http.ResponseWriter, r *http.Request) {
	raw := normalize.QueryParam(r.URL.Query().Get("topic"))
	if raw == "" {
		h.serveList(w, r, "", 0)
		return
	}
	topic, ok := normalize.Topic(raw)
	if !ok {
		httpjson.BadRequest(w, "Invalid topic")
		return
	}
	h.serveList(w, r, topic, 0)
}

func (h *Handler) serveList(w http.ResponseWriter, r *http.Request, topic string, limit int64) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rooms, err := h.Rooms.List(ctx, topic, limit)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list rooms", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, rooms)
}

// ServeSearch handles GET /room/search?query=.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	q := normalize.QueryParam(r.URL.Query().Get("query"))
	if q == "" {
		httpjson.BadRequest(w, "Missing query")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rooms, err := h.Search.Rooms(ctx, q)
	if err != nil {
		httpjson.ServerError(w, h.Log, "search rooms", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, rooms)
}

// loadRoom resolves the {id} path parameter, writing 400/404/500 itself.
func (h *Handler) loadRoom(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Room, bool) {
	id, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return nil, false
	}
	room, err := h.Rooms.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.NotFound(w, "Room not found")
		return nil, false
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "load room", err)
		return nil, false
	}
	return room, true
}

// ServeRoom handles GET /room/{id}.
func (h *Handler) ServeRoom(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	room, ok := h.loadRoom(ctx, w, r)
	if !ok {
		return
	}
	httpjson.JSON(w, http.StatusOK, room)
}

// MessageView is a message with its sender populated.
type MessageView struct {
	ID        primitive.ObjectID `json:"id"`
	Sender    models.UserSummary `json:"sender"`
	Body      string             `json:"body"`
	CreatedAt time.Time          `json:"created_at"`
}

// ServeMessages handles GET /room/{id}/message, oldest first.
func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	room, ok := h.loadRoom(ctx, w, r)
	if !ok {
		return
	}
	senders := make([]primitive.ObjectID, 0, len(room.Messages))
	for _, m := range room.Messages {
		senders = append(senders, m.Sender)
	}
	users, err := h.Users.Summaries(ctx, senders)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list messages: load senders", err)
		return
	}

	out := make([]MessageView, 0, len(room.Messages))
	for _, m := range room.Messages {
		sender, ok := users[m.Sender]
		if !ok {
			sender = models.UserSummary{ID: m.Sender}
		}
		out = append(out, MessageView{ID: m.ID, Sender: sender, Body: m.Body, CreatedAt: m.CreatedAt})
	}
	httpjson.JSON(w, http.StatusOK, out)
}

// ServeFiles handles GET /room/{id}/file.
func (h *Handler) ServeFiles(w http.ResponseWriter, r *http.Request) {
	h.serveEmbedded(w, r, func(room *models.Room) any { return nonNil(room.Files) })
}

// ServeLinks handles GET /room/{id}/link.
func (h *Handler) ServeLinks(w http.ResponseWriter, r *http.Request) {
	h.serveEmbedded(w, r, func(room *models.Room) any { return nonNil(room.Links) })
}

// ServeTasks handles GET /room/{id}/task.
func (h *Handler) ServeTasks(w http.ResponseWriter, r *http.Request) {
	h.serveEmbedded(w, r, func(room *models.Room) any { return nonNil(room.Tasks) })
}

func (h *Handler) serveEmbedded(w http.ResponseWriter, r *http.Request, pick func(*models.Room) any) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	room, ok := h.loadRoom(ctx, w, r)
	if !ok {
		return
	}
	httpjson.JSON(w, http.StatusOK, pick(room))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ServeActivity handles GET /room/{id}/activity, oldest first.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	room, ok := h.loadRoom(ctx, w, r)
	if !ok {
		return
	}
	acts, err := h.Activities.ListByRoom(ctx, room.ID)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list room activity", err)
		return
	}
	actors, err := h.Users.Summaries(ctx, models.ActivityActors(acts))
	if err != nil {
		httpjson.ServerError(w, h.Log, "list room activity: load actors", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, models.ActivityViews(acts, actors))
}

// ServeContributors handles GET /room/{id}/contributor.
func (h *Handler) ServeContributors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	room, ok := h.loadRoom(ctx, w, r)
	if !ok {
		return
	}
	us, err := h.Users.ListByIDs(ctx, room.Contributors)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list contributors", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, models.PublicUsers(us))
}
