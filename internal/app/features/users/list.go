package users

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/roomhub/internal/app/features/errors"
	"github.com/dalemusser/roomhub/internal/app/system/httpjson"
	"github.com/dalemusser/roomhub/internal/app/system/normalize"
	"github.com/dalemusser/roomhub/internal/app/system/timeouts"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList handles GET /user.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	us, err := h.Users.List(ctx, "")
	if err != nil {
		httpjson.ServerError(w, h.Log, "list users", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, models.PublicUsers(us))
}

// ServeFilter handles GET /user/filter?specialization=.
func (h *Handler) ServeFilter(w http.ResponseWriter, r *http.Request) {
	raw := normalize.QueryParam(r.URL.Query().Get("specialization"))
	if raw == "" {
		h.ServeList(w, r)
		return
	}
	sp, ok := normalize.Specialization(raw)
	if !ok {
		httpjson.BadRequest(w, "Invalid specialization")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	us, err := h.Users.List(ctx, sp)
	if err != nil {
		httpjson.ServerError(w, h.Log, "filter users", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, models.PublicUsers(us))
}

// ServeSearch handles GET /user/search?query=.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	q := normalize.QueryParam(r.URL.Query().Get("query"))
	if q == "" {
		httpjson.BadRequest(w, "Missing query")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	us, err := h.Users.Search(ctx, q)
	if err != nil {
		httpjson.ServerError(w, h.Log, "search users", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, models.PublicUsers(us))
}

// ServeFeatured handles GET /user/featured.
func (h *Handler) ServeFeatured(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	us, err := h.Users.Featured(ctx, 0)
	if err != nil {
		httpjson.ServerError(w, h.Log, "featured users", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, models.PublicUsers(us))
}

// loadUser resolves the {id} path parameter, writing 400/404/500 itself.
func (h *Handler) loadUser(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := uierrors.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return nil, false
	}
	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		httpjson.NotFound(w, "User not found")
		return nil, false
	}
	if err != nil {
		httpjson.ServerError(w, h.Log, "load user", err)
		return nil, false
	}
	return u, true
}

// ServeUser handles GET /user/{id}.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadUser(ctx, w, r)
	if !ok {
		return
	}
	httpjson.JSON(w, http.StatusOK, u.Public())
}

func (h *Handler) serveEdge(w http.ResponseWriter, r *http.Request, op string, pick func(*models.User) []primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadUser(ctx, w, r)
	if !ok {
		return
	}
	us, err := h.Users.ListByIDs(ctx, pick(u))
	if err != nil {
		httpjson.ServerError(w, h.Log, op, err)
		return
	}
	httpjson.JSON(w, http.StatusOK, models.PublicUsers(us))
}

// ServeFollowers handles GET /user/{id}/followers.
func (h *Handler) ServeFollowers(w http.ResponseWriter, r *http.Request) {
	h.serveEdge(w, r, "list followers", func(u *models.User) []primitive.ObjectID { return u.Followers })
}

// ServeFollowing handles GET /user/{id}/following.
func (h *Handler) ServeFollowing(w http.ResponseWriter, r *http.Request) {
	h.serveEdge(w, r, "list following", func(u *models.User) []primitive.ObjectID { return u.Following })
}

// ServeRooms handles GET /user/{id}/rooms.
func (h *Handler) ServeRooms(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadUser(ctx, w, r)
	if !ok {
		return
	}
	rooms, err := h.Rooms.ListByIDs(ctx, u.Rooms)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list user rooms", err)
		return
	}
	httpjson.JSON(w, http.StatusOK, rooms)
}

// ServeActivity handles GET /user/{id}/activity, newest first.
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadUser(ctx, w, r)
	if !ok {
		return
	}
	acts, err := h.Activities.ListByUser(ctx, u.ID)
	if err != nil {
		httpjson.ServerError(w, h.Log, "list user activity", err)
		return
	}
	actors := map[primitive.ObjectID]models.UserSummary{
		u.ID: {ID: u.ID, Name: u.Name, Avatar: u.Avatar},
	}
	httpjson.JSON(w, http.StatusOK, models.ActivityViews(acts, actors))
}
